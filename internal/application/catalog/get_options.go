package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	"github.com/xiebiao/poscart/pkg/metrics"
)

// GetOptionsUseCase 查询商品规格选项
// 远程失败时返回空规格并记录提示(终端只能按无规格下单)
type GetOptionsUseCase struct {
	sessions *session.Manager
	loader   *Loader
	options  pricing.OptionsGateway
	logger   *zap.Logger
}

// NewGetOptionsUseCase 创建规格查询用例
func NewGetOptionsUseCase(sessions *session.Manager, loader *Loader, options pricing.OptionsGateway, logger *zap.Logger) *GetOptionsUseCase {
	return &GetOptionsUseCase{sessions: sessions, loader: loader, options: options, logger: logger}
}

// GetOptionsRequest 规格查询请求
type GetOptionsRequest struct {
	Token    string
	ItemCode string
}

// ChoiceView 可选项
type ChoiceView struct {
	Value           string          `json:"value"`
	Label           string          `json:"label"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
	LinkedItem      string          `json:"linked_item,omitempty"`
	IsDefault       bool            `json:"is_default"`
}

// GroupView 规格分组
type GroupView struct {
	Name    string       `json:"name"`
	Label   string       `json:"label"`
	Kind    string       `json:"kind"`
	Choices []ChoiceView `json:"choices"`
}

// GetOptionsResponse 规格查询响应
type GetOptionsResponse struct {
	ItemCode string              `json:"item_code"`
	Groups   []GroupView         `json:"groups"`
	Defaults map[string][]string `json:"defaults"`
	Notices  []string            `json:"-"`
}

// Execute 执行规格查询
func (uc *GetOptionsUseCase) Execute(ctx context.Context, req GetOptionsRequest) (*GetOptionsResponse, error) {
	var resp *GetOptionsResponse
	err := uc.sessions.With(ctx, req.Token, func(st *session.State) error {
		uc.loader.EnsureLoaded(ctx, st)
		if st.Index.Get(req.ItemCode) == nil {
			return catalog.ErrItemNotFound
		}

		opts, err := uc.options.GetItemOptions(ctx, req.ItemCode)
		if err != nil {
			metrics.IncFallback("options")
			uc.logger.Warn("fetch item options failed",
				zap.String("item_code", req.ItemCode),
				zap.Error(err),
			)
			st.Notice(NoticeOptionsDegraded)
			opts = &pricing.ItemOptions{ItemCode: req.ItemCode}
		}

		resp = NewOptionsResponse(opts)
		resp.Notices = st.DrainNotices()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// NewOptionsResponse 规格定义 → 视图(含默认选择)
func NewOptionsResponse(opts *pricing.ItemOptions) *GetOptionsResponse {
	resp := &GetOptionsResponse{
		ItemCode: opts.ItemCode,
		Groups:   make([]GroupView, 0, len(opts.Groups)),
		Defaults: make(map[string][]string),
	}
	for _, g := range opts.Groups {
		gv := GroupView{Name: g.Name, Label: g.Label, Kind: string(g.Kind), Choices: make([]ChoiceView, 0, len(g.Choices))}
		if gv.Label == "" {
			gv.Label = g.Name
		}
		for _, c := range g.Choices {
			label := c.Label
			if label == "" {
				label = c.Value
			}
			gv.Choices = append(gv.Choices, ChoiceView{
				Value:           c.Value,
				Label:           label,
				AdditionalPrice: c.AdditionalPrice,
				LinkedItem:      c.LinkedItem,
				IsDefault:       c.IsDefault,
			})
		}
		resp.Groups = append(resp.Groups, gv)
	}
	for name, choices := range opts.DefaultSelection() {
		for _, c := range choices {
			resp.Defaults[name] = append(resp.Defaults[name], c.Value)
		}
	}
	return resp
}
