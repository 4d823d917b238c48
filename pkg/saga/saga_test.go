package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recorder 记录步骤执行顺序
type recorder struct {
	calls []string
}

func (r *recorder) step(name string, err error) func(context.Context) error {
	return func(context.Context) error {
		r.calls = append(r.calls, name)
		return err
	}
}

// TestSaga_Execute_Success 所有步骤成功
func TestSaga_Execute_Success(t *testing.T) {
	rec := &recorder{}
	s := NewSaga("switch_price_list", time.Second, zap.NewNop()).
		AddStep("拉取目录", rec.step("fetch", nil), nil).
		AddStep("替换目录", rec.step("swap", nil), rec.step("restore", nil)).
		AddStep("激活", rec.step("activate", nil), nil)

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"fetch", "swap", "activate"}, rec.calls)
}

// TestSaga_Execute_FailureAndCompensate 失败后逆序补偿已完成的步骤
func TestSaga_Execute_FailureAndCompensate(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("reprice failed")
	s := NewSaga("switch_price_list", time.Second, nil).
		AddStep("替换目录", rec.step("swap", nil), rec.step("restore_index", nil)).
		AddStep("重算购物车", rec.step("reprice", nil), rec.step("restore_cart", nil)).
		AddStep("激活", rec.step("activate", boom), rec.step("never", nil))

	err := s.Execute(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "激活")
	assert.Equal(t, []string{"swap", "reprice", "activate", "restore_cart", "restore_index"}, rec.calls,
		"失败步骤本身不补偿,其余逆序补偿")
}

// TestSaga_CompensationFailure 补偿失败继续执行其余补偿并报告
func TestSaga_CompensationFailure(t *testing.T) {
	rec := &recorder{}
	s := NewSaga("t", 0, nil).
		AddStep("a", rec.step("a", nil), rec.step("undo_a", nil)).
		AddStep("b", rec.step("b", nil), rec.step("undo_b", errors.New("redis down"))).
		AddStep("c", rec.step("c", errors.New("fail")), nil)

	err := s.Execute(context.Background())

	assert.ErrorIs(t, err, ErrCompensationFailed)
	assert.Equal(t, []string{"a", "b", "c", "undo_b", "undo_a"}, rec.calls)
}

// TestSaga_Execute_Timeout 超时后不再执行后续步骤
func TestSaga_Execute_Timeout(t *testing.T) {
	rec := &recorder{}
	s := NewSaga("t", 20*time.Millisecond, nil).
		AddStep("slow", func(ctx context.Context) error {
			rec.calls = append(rec.calls, "slow")
			<-ctx.Done()
			return nil
		}, rec.step("undo_slow", nil)).
		AddStep("next", rec.step("next", nil), nil)

	err := s.Execute(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"slow", "undo_slow"}, rec.calls)
}
