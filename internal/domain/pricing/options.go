package pricing

import (
	"sort"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// 常用规格分组名
const (
	GroupSize    = "size"
	GroupSpice   = "spice"
	GroupTopping = "topping"
	GroupVariant = "variant"
)

// Choice 已选中的规格项
// LinkedItem非空表示该选项对应一个具体的目录商品(通常是变体)
type Choice struct {
	Value           string          `json:"value"`
	Label           string          `json:"label,omitempty"`
	LinkedItem      string          `json:"linked_item,omitempty"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

// SelectedOptions 分组名 → 选中项(多选分组可有多个)
type SelectedOptions map[string][]Choice

// Signature 规格签名(购物车合并判断用)
// 分组按名称排序,组内按Value排序,空分组忽略;
// 因此选择顺序不同但内容相同的两次加购得到相同签名
func (s SelectedOptions) Signature() string {
	if len(s) == 0 {
		return ""
	}

	type group struct {
		Name   string   `json:"g"`
		Values []string `json:"v"`
		Linked []string `json:"l,omitempty"`
	}

	names := make([]string, 0, len(s))
	for name, choices := range s {
		if len(choices) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)

	groups := make([]group, 0, len(names))
	for _, name := range names {
		choices := append([]Choice(nil), s[name]...)
		sort.SliceStable(choices, func(i, j int) bool {
			if choices[i].Value != choices[j].Value {
				return choices[i].Value < choices[j].Value
			}
			return choices[i].LinkedItem < choices[j].LinkedItem
		})
		g := group{Name: name}
		for _, c := range choices {
			g.Values = append(g.Values, c.Value)
			if c.LinkedItem != "" {
				g.Linked = append(g.Linked, c.LinkedItem)
			}
		}
		groups = append(groups, g)
	}

	data, err := json.Marshal(groups)
	if err != nil {
		return ""
	}
	return string(data)
}

// LinkedItem 返回选中项里第一个关联的目录商品(variant分组优先)
func (s SelectedOptions) LinkedItem() string {
	for _, c := range s[GroupVariant] {
		if c.LinkedItem != "" {
			return c.LinkedItem
		}
	}
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, c := range s[name] {
			if c.LinkedItem != "" {
				return c.LinkedItem
			}
		}
	}
	return ""
}

// Clone 深拷贝
func (s SelectedOptions) Clone() SelectedOptions {
	if s == nil {
		return nil
	}
	cp := make(SelectedOptions, len(s))
	for k, v := range s {
		cp[k] = append([]Choice(nil), v...)
	}
	return cp
}

// GroupKind 规格分组类型
type GroupKind string

const (
	KindSingle   GroupKind = "single"   // 可选单选
	KindRequired GroupKind = "required" // 必选单选
	KindMulti    GroupKind = "multi"    // 多选(如加料)
)

// OptionChoice 规格定义中的可选项
type OptionChoice struct {
	Value           string
	Label           string
	LinkedItem      string
	AdditionalPrice decimal.Decimal
	IsDefault       bool
}

func (c OptionChoice) toChoice() Choice {
	price := c.AdditionalPrice
	if price.IsNegative() {
		price = decimal.Zero
	}
	return Choice{
		Value:           c.Value,
		Label:           c.Label,
		LinkedItem:      c.LinkedItem,
		AdditionalPrice: price,
	}
}

// OptionGroup 规格分组定义
type OptionGroup struct {
	Name    string
	Label   string
	Kind    GroupKind
	Choices []OptionChoice
}

func (g *OptionGroup) find(value string) (OptionChoice, bool) {
	for _, c := range g.Choices {
		if c.Value == value {
			return c, true
		}
	}
	return OptionChoice{}, false
}

// ItemOptions 商品的全部规格定义
type ItemOptions struct {
	ItemCode string
	Groups   []OptionGroup
}

// Group 按名称查找分组
func (o *ItemOptions) Group(name string) (*OptionGroup, bool) {
	if o == nil {
		return nil, false
	}
	for i := range o.Groups {
		if o.Groups[i].Name == name {
			return &o.Groups[i], true
		}
	}
	return nil, false
}

// DefaultSelection 按默认标记生成初始选择(终端打开规格弹窗时预选)
// 单选分组有多个默认项时只取第一个
func (o *ItemOptions) DefaultSelection() SelectedOptions {
	sel := make(SelectedOptions)
	if o == nil {
		return sel
	}
	for _, g := range o.Groups {
		for _, c := range g.Choices {
			if !c.IsDefault {
				continue
			}
			sel[g.Name] = append(sel[g.Name], c.toChoice())
			if g.Kind != KindMulti {
				break
			}
		}
	}
	return sel
}

// Select 校验终端提交的选择并换成服务端定义的选项
// 终端只提交 分组名 → 选项值,价格和关联商品一律以定义为准
// 校验规则:
// 1. 未知分组、未知选项 → ErrOptionInvalid(字段为分组名)
// 2. 单选分组选了多个 → ErrOptionInvalid
// 3. 必选分组没有选择 → ErrOptionRequired
// 4. 定义中的负数加价按0处理
func (o *ItemOptions) Select(values map[string][]string) (SelectedOptions, error) {
	sel := make(SelectedOptions)

	for name, vals := range values {
		if len(vals) == 0 {
			continue
		}
		g, ok := o.Group(name)
		if !ok {
			return nil, ErrOptionInvalid.WithField(name)
		}
		if g.Kind != KindMulti && len(vals) > 1 {
			return nil, ErrOptionInvalid.WithField(name)
		}

		seen := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}

			c, ok := g.find(v)
			if !ok {
				return nil, ErrOptionInvalid.WithField(name)
			}
			sel[name] = append(sel[name], c.toChoice())
		}
	}

	if o != nil {
		for _, g := range o.Groups {
			if g.Kind == KindRequired && len(sel[g.Name]) == 0 {
				return nil, ErrOptionRequired.WithField(g.Name)
			}
		}
	}

	return sel, nil
}

// Validate 校验已经构造好的选择(会话恢复等场景)
func (o *ItemOptions) Validate(sel SelectedOptions) error {
	values := make(map[string][]string, len(sel))
	for name, choices := range sel {
		for _, c := range choices {
			values[name] = append(values[name], c.Value)
		}
	}
	_, err := o.Select(values)
	return err
}
