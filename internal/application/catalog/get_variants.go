package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/pkg/metrics"
)

// GetVariantsUseCase 查询模板变体
// 设计说明:
// 1. 每次打开规格选择都向远程拉取最新变体(价格、库存)
// 2. 远程失败时回退到索引里已缓存的变体,并记录提示
// 3. 传入的编码可以是模板的任意标识(编码、名称、别名字段)
type GetVariantsUseCase struct {
	sessions *session.Manager
	loader   *Loader
	logger   *zap.Logger
}

// NewGetVariantsUseCase 创建变体查询用例
func NewGetVariantsUseCase(sessions *session.Manager, loader *Loader, logger *zap.Logger) *GetVariantsUseCase {
	return &GetVariantsUseCase{sessions: sessions, loader: loader, logger: logger}
}

// GetVariantsRequest 变体查询请求
type GetVariantsRequest struct {
	Token    string
	ItemCode string
}

// AttributeView 规格属性
type AttributeView struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// GetVariantsResponse 变体查询响应
type GetVariantsResponse struct {
	Template   ItemView        `json:"template"`
	Variants   []ItemView      `json:"variants"`
	Attributes []AttributeView `json:"attributes"`
	Notices    []string        `json:"-"`
}

// Execute 执行变体查询
func (uc *GetVariantsUseCase) Execute(ctx context.Context, req GetVariantsRequest) (*GetVariantsResponse, error) {
	var resp *GetVariantsResponse
	err := uc.sessions.With(ctx, req.Token, func(st *session.State) error {
		uc.loader.EnsureLoaded(ctx, st)

		template := st.Index.Get(req.ItemCode)
		if template == nil {
			return catalog.ErrItemNotFound
		}
		if !template.IsTemplate() {
			return catalog.ErrItemNotFound.WithField("item_code")
		}

		resp = &GetVariantsResponse{Attributes: make([]AttributeView, 0)}
		set, err := uc.loader.FetchVariants(ctx, st, template)
		if err != nil {
			metrics.IncFallback("variants")
			uc.logger.Warn("fetch variants failed, using cached",
				zap.String("template", template.ItemCode),
				zap.Error(err),
			)
			st.Notice(NoticeVariantsCached)
		} else {
			for _, a := range set.Attributes {
				resp.Attributes = append(resp.Attributes, AttributeView{Name: a.Name, Values: a.Values})
			}
		}

		resp.Template = NewItemView(template)
		variants := st.Index.VariantsFor(template)
		resp.Variants = make([]ItemView, 0, len(variants))
		for _, v := range variants {
			resp.Variants = append(resp.Variants, NewItemView(v))
		}
		resp.Notices = st.DrainNotices()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
