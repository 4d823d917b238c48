package cart

import (
	"context"

	"go.uber.org/zap"

	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	"github.com/xiebiao/poscart/internal/application/pricelist"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/pricing"
)

// OpenSessionUseCase 开启终端会话
// 1. 生成访客会话token
// 2. 加载价格表(可指定初始价格表,否则使用默认)
// 3. 按选中的价格表加载目录
type OpenSessionUseCase struct {
	sessions *session.Manager
	provider *pricelist.Provider
	loader   *appcatalog.Loader
	logger   *zap.Logger
}

// NewOpenSessionUseCase 创建开启会话用例
func NewOpenSessionUseCase(
	sessions *session.Manager,
	provider *pricelist.Provider,
	loader *appcatalog.Loader,
	logger *zap.Logger,
) *OpenSessionUseCase {
	return &OpenSessionUseCase{
		sessions: sessions,
		provider: provider,
		loader:   loader,
		logger:   logger,
	}
}

// OpenSessionRequest 开启会话请求
type OpenSessionRequest struct {
	PriceList string
}

// SessionResponse 会话信息
type SessionResponse struct {
	Token     string   `json:"token"`
	PriceList string   `json:"price_list"`
	Cart      CartView `json:"cart"`
	Notices   []string `json:"-"`
}

// Execute 执行开启会话
func (uc *OpenSessionUseCase) Execute(ctx context.Context, req OpenSessionRequest) (*SessionResponse, error) {
	var resp *SessionResponse
	token, err := uc.sessions.Create(ctx, func(st *session.State) error {
		uc.provider.Ensure(ctx, st)
		if req.PriceList != "" {
			pl, ok := st.PriceLists.Find(req.PriceList)
			if !ok {
				return pricing.ErrPriceListNotFound.WithField("price_list")
			}
			st.PriceList = pl
		}
		uc.loader.EnsureLoaded(ctx, st)

		resp = newSessionResponse(st)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("session opened",
		zap.String("token", token),
		zap.String("price_list", resp.PriceList),
	)
	return resp, nil
}

func newSessionResponse(st *session.State) *SessionResponse {
	return &SessionResponse{
		Token:     st.Token,
		PriceList: st.PriceList.Name,
		Cart:      NewCartView(st),
		Notices:   st.DrainNotices(),
	}
}
