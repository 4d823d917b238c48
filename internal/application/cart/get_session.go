package cart

import (
	"context"

	"github.com/xiebiao/poscart/internal/application/pricelist"
	"github.com/xiebiao/poscart/internal/application/session"
)

// GetSessionUseCase 恢复会话
// 会话不在内存时由Manager从快照重建(购物车金额按原始字段重算,不需要目录)
// 价格表在这里补齐;目录等到真正用到时再加载
type GetSessionUseCase struct {
	sessions *session.Manager
	provider *pricelist.Provider
}

// NewGetSessionUseCase 创建恢复会话用例
func NewGetSessionUseCase(sessions *session.Manager, provider *pricelist.Provider) *GetSessionUseCase {
	return &GetSessionUseCase{sessions: sessions, provider: provider}
}

// Execute 执行恢复
func (uc *GetSessionUseCase) Execute(ctx context.Context, token string) (*SessionResponse, error) {
	var resp *SessionResponse
	err := uc.sessions.With(ctx, token, func(st *session.State) error {
		uc.provider.Ensure(ctx, st)
		resp = newSessionResponse(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
