package pricing

import (
	"github.com/shopspring/decimal"
)

// PriceList 价格表
// Adjustment是统一的价格调整值(可为负),只作用于没有专属价的商品
type PriceList struct {
	Name       string
	Label      string
	Currency   string
	Adjustment decimal.Decimal
}

// DisplayLabel 展示名称
func (p PriceList) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// PriceListSet 终端可用的价格表集合
type PriceListSet struct {
	Lists   []PriceList
	Default string
}

// Find 按名称查找价格表
func (s *PriceListSet) Find(name string) (PriceList, bool) {
	if s == nil || name == "" {
		return PriceList{}, false
	}
	for _, pl := range s.Lists {
		if pl.Name == name {
			return pl, true
		}
	}
	return PriceList{}, false
}

// DefaultList 返回默认价格表
// 默认值不在列表中时取第一个;列表为空返回false
func (s *PriceListSet) DefaultList() (PriceList, bool) {
	if s == nil || len(s.Lists) == 0 {
		return PriceList{}, false
	}
	if pl, ok := s.Find(s.Default); ok {
		return pl, true
	}
	return s.Lists[0], true
}
