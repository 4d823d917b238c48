package session

import (
	"time"

	"github.com/xiebiao/poscart/internal/domain/cart"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/discount"
	"github.com/xiebiao/poscart/internal/domain/pricing"
)

// State 单个终端会话的全部可变状态
// 设计说明:
// 1. 目录索引、购物车、价格表选择、优惠码结果都属于会话,不同会话互不影响
// 2. 只能在Manager.With/Each的回调里访问,回调期间持有会话锁(单写者)
// 3. CatalogLoaded为false表示目录尚未加载(例如刚从快照恢复),用到目录时再加载
type State struct {
	Token string

	Index         *catalog.Index
	CatalogLoaded bool

	Ledger *cart.Ledger

	PriceLists *pricing.PriceListSet
	PriceList  pricing.PriceList

	// Promo 最近一次校验通过的优惠码;PendingPromo是待校验的码(会话恢复后)
	Promo        *discount.PromoResult
	PendingPromo string
	PromoStatus  string

	notices   []string
	touchedAt time.Time
}

func newState(token string) *State {
	return &State{
		Token:     token,
		Index:     catalog.NewIndex(),
		Ledger:    cart.NewLedger(),
		touchedAt: time.Now(),
	}
}

// Notice 记录一条非阻塞提示(远程降级、优惠码失效等),同一条只记录一次
func (s *State) Notice(msg string) {
	for _, n := range s.notices {
		if n == msg {
			return
		}
	}
	s.notices = append(s.notices, msg)
}

// DrainNotices 取出并清空提示
func (s *State) DrainNotices() []string {
	out := s.notices
	s.notices = nil
	return out
}

// PromoCode 当前生效或待校验的优惠码
func (s *State) PromoCode() string {
	if s.Promo != nil {
		return s.Promo.Code
	}
	return s.PendingPromo
}

// Resolver 绑定当前价格表的价格解析器
// 每次调用时读取当前价格表,不缓存调整值
func (s *State) Resolver() pricing.Resolver {
	return pricing.NewResolver(s.PriceList)
}

// Snapshot 导出可持久化的快照(只含原始字段)
func (s *State) Snapshot() *cart.Snapshot {
	return &cart.Snapshot{
		Token:     s.Token,
		PriceList: s.PriceList.Name,
		PromoCode: s.PromoCode(),
		Lines:     s.Ledger.Snapshot(),
		SavedAt:   time.Now(),
	}
}

// restoreState 从快照重建会话
// 购物车金额由原始字段重新计算,不需要目录;优惠码标记为待校验
func restoreState(snap *cart.Snapshot) *State {
	st := newState(snap.Token)
	st.Ledger = cart.Restore(snap.Lines)
	st.PriceList = pricing.PriceList{Name: snap.PriceList}
	st.PendingPromo = discount.NormalizeCode(snap.PromoCode)
	return st
}
