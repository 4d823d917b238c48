package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(entries []*Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ItemCode)
	}
	return out
}

func TestIndex_RegisterAndGet(t *testing.T) {
	idx := NewIndex()
	idx.Register(&Entry{ItemCode: "TEA", ItemName: "奶茶"})
	idx.Register(&Entry{ItemCode: "RICE", ItemName: "米饭"})
	idx.Register(&Entry{ItemCode: "TEA", ItemName: "珍珠奶茶"})
	idx.Register(nil)
	idx.Register(&Entry{})

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"TEA", "RICE"}, codes(idx.Entries()), "覆盖注册不改变首次顺序")
	assert.Equal(t, "珍珠奶茶", idx.Get("TEA").ItemName)
	assert.Nil(t, idx.Get("UNKNOWN"), "未知标识返回nil")
	assert.Nil(t, idx.Get(""))
}

// TestIndex_VariantReachableByAnyTemplateKey 变体可通过模板的任一标识查到
func TestIndex_VariantReachableByAnyTemplateKey(t *testing.T) {
	idx := NewIndex()
	tpl := &Entry{ItemCode: "COFFEE", ItemName: "Coffee", HasVariants: true, TemplateItemCode: "CF-T"}
	idx.Register(tpl)

	// 两个变体使用不同的字段指向模板
	small := &Entry{ItemCode: "COFFEE-S", VariantOf: "COFFEE"}
	large := &Entry{ItemCode: "COFFEE-L", ParentItem: "Coffee"}
	idx.CacheVariants(tpl, []*Entry{small, large})

	for _, key := range []string{"COFFEE", "Coffee", "CF-T"} {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, []string{"COFFEE-S", "COFFEE-L"}, codes(idx.VariantsByKey(key)))
		})
	}

	assert.Equal(t, []string{"COFFEE-S", "COFFEE-L"}, codes(idx.VariantsFor(tpl)))
	assert.True(t, idx.HasCachedVariants(tpl))
	assert.NotNil(t, idx.Get("COFFEE-L"), "变体同时注册到条目表")
	assert.Empty(t, idx.VariantsByKey("COFFEE-L"), "变体编码不是变体池的key")
	assert.Empty(t, idx.VariantsByKey("TEA"))
	assert.Empty(t, idx.VariantsFor(nil))
}

func TestIndex_AllVariantsDeduplicated(t *testing.T) {
	idx := NewIndex()
	a := &Entry{ItemCode: "A", HasVariants: true}
	b := &Entry{ItemCode: "B", HasVariants: true}
	idx.Register(a)
	idx.Register(b)
	idx.CacheVariants(a, []*Entry{{ItemCode: "A1", VariantOf: "A"}, {ItemCode: "A2", VariantOf: "A"}})
	idx.CacheVariants(b, []*Entry{{ItemCode: "B1", VariantOf: "B"}})
	// 重复缓存不产生重复
	idx.CacheVariants(a, []*Entry{{ItemCode: "A1", VariantOf: "A"}})

	assert.Equal(t, []string{"A1", "A2", "B1"}, codes(idx.AllVariants()))
}

func TestIndex_TemplateOf(t *testing.T) {
	idx := NewIndex()
	tpl := &Entry{ItemCode: "TEA", ItemName: "Milk Tea", HasVariants: true}
	idx.Register(tpl)
	idx.Register(&Entry{ItemCode: "RICE"})

	byCode := &Entry{ItemCode: "TEA-L", VariantOf: "TEA"}
	byName := &Entry{ItemCode: "TEA-M", ParentItem: "Milk Tea"}

	assert.Same(t, tpl, idx.TemplateOf(byCode))
	assert.Same(t, tpl, idx.TemplateOf(byName), "按模板名称别名匹配")
	assert.Nil(t, idx.TemplateOf(&Entry{ItemCode: "X", VariantOf: "RICE"}), "非模板不算")
	assert.Nil(t, idx.TemplateOf(nil))
}

func TestIndex_Reset(t *testing.T) {
	idx := NewIndex()
	tpl := &Entry{ItemCode: "TEA", HasVariants: true}
	idx.Register(tpl)
	idx.CacheVariants(tpl, []*Entry{{ItemCode: "TEA-L", VariantOf: "TEA"}})
	require.Equal(t, 2, idx.Len())

	idx.Reset()

	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.AllVariants())
	assert.False(t, idx.HasCachedVariants(tpl))
}

func TestEntry_Clone(t *testing.T) {
	e := &Entry{ItemCode: "A", StockQty: Qty(3)}
	cp := e.Clone()
	*cp.StockQty = 0

	assert.Equal(t, 3.0, *e.StockQty, "克隆后库存指针互不影响")
}
