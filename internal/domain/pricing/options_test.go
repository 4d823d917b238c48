package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/poscart/pkg/errors"
)

func sampleOptions() *ItemOptions {
	return &ItemOptions{
		ItemCode: "NOODLE",
		Groups: []OptionGroup{
			{Name: GroupSize, Kind: KindRequired, Choices: []OptionChoice{
				{Value: "M", IsDefault: true},
				{Value: "L", AdditionalPrice: d(3000)},
			}},
			{Name: GroupSpice, Kind: KindSingle, Choices: []OptionChoice{
				{Value: "mild"}, {Value: "hot"},
			}},
			{Name: GroupTopping, Kind: KindMulti, Choices: []OptionChoice{
				{Value: "egg", AdditionalPrice: d(1000), IsDefault: true},
				{Value: "cheese", AdditionalPrice: d(2000), IsDefault: true},
				{Value: "bad", AdditionalPrice: d(-500)},
			}},
		},
	}
}

func TestItemOptions_Select(t *testing.T) {
	opts := sampleOptions()

	sel, err := opts.Select(map[string][]string{
		GroupSize:    {"L"},
		GroupTopping: {"egg", "cheese", "egg"},
	})
	require.NoError(t, err)

	assert.Len(t, sel[GroupTopping], 2, "重复选项去重")
	assert.True(t, ResolveOptionExtra(sel).Equal(d(6000)))
}

func TestItemOptions_SelectErrors(t *testing.T) {
	opts := sampleOptions()

	tests := []struct {
		name   string
		values map[string][]string
		code   int
		field  string
	}{
		{"缺少必选", map[string][]string{GroupSpice: {"hot"}}, apperrors.ErrCodeOptionRequired, GroupSize},
		{"未知分组", map[string][]string{GroupSize: {"M"}, "sauce": {"bbq"}}, apperrors.ErrCodeOptionInvalid, "sauce"},
		{"未知选项", map[string][]string{GroupSize: {"XL"}}, apperrors.ErrCodeOptionInvalid, GroupSize},
		{"单选多个", map[string][]string{GroupSize: {"M"}, GroupSpice: {"mild", "hot"}}, apperrors.ErrCodeOptionInvalid, GroupSpice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := opts.Select(tt.values)
			require.Error(t, err)
			appErr := apperrors.GetAppError(err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field, "字段级错误需指出分组")
		})
	}
}

func TestItemOptions_NegativePriceClamped(t *testing.T) {
	sel, err := sampleOptions().Select(map[string][]string{GroupSize: {"M"}, GroupTopping: {"bad"}})
	require.NoError(t, err)
	assert.True(t, sel[GroupTopping][0].AdditionalPrice.IsZero())
}

func TestItemOptions_DefaultSelection(t *testing.T) {
	sel := sampleOptions().DefaultSelection()

	assert.Len(t, sel[GroupSize], 1)
	assert.Len(t, sel[GroupTopping], 2, "多选分组保留全部默认项")
	assert.NoError(t, sampleOptions().Validate(sel))

	var none *ItemOptions
	assert.Empty(t, none.DefaultSelection())
}

func TestSelectedOptions_Signature(t *testing.T) {
	a := SelectedOptions{
		GroupTopping: {{Value: "egg"}, {Value: "cheese"}},
		GroupSize:    {{Value: "L"}},
	}
	b := SelectedOptions{
		GroupSize:    {{Value: "L", AdditionalPrice: decimal.Zero}},
		GroupTopping: {{Value: "cheese"}, {Value: "egg"}},
		GroupSpice:   {},
	}
	c := SelectedOptions{
		GroupSize:    {{Value: "L"}},
		GroupTopping: {{Value: "egg"}},
	}

	assert.Equal(t, a.Signature(), b.Signature(), "顺序不同内容相同签名一致")
	assert.NotEqual(t, a.Signature(), c.Signature(), "加料不同签名不同")
	assert.Equal(t, "", SelectedOptions{}.Signature())
	assert.Equal(t, "", SelectedOptions{GroupSpice: nil}.Signature())
}

func TestSelectedOptions_LinkedItem(t *testing.T) {
	sel := SelectedOptions{
		GroupSize:    {{Value: "L", LinkedItem: "TEA-L-SIZE"}},
		GroupVariant: {{Value: "L", LinkedItem: "TEA-L"}},
	}
	assert.Equal(t, "TEA-L", sel.LinkedItem(), "variant分组优先")

	delete(sel, GroupVariant)
	assert.Equal(t, "TEA-L-SIZE", sel.LinkedItem())
	assert.Equal(t, "", SelectedOptions{}.LinkedItem())
}
