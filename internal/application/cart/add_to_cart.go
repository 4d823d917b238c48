package cart

import (
	"context"

	"go.uber.org/zap"

	appcatalog "github.com/xiebiao/poscart/internal/application/catalog"
	"github.com/xiebiao/poscart/internal/application/pricelist"
	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/catalog"
	"github.com/xiebiao/poscart/internal/domain/pricing"
	apperrors "github.com/xiebiao/poscart/pkg/errors"
	"github.com/xiebiao/poscart/pkg/metrics"
	"github.com/xiebiao/poscart/pkg/tracing"
)

// AddToCartUseCase 加购
// 业务规则:
// 1. 终端只提交 商品编码+规格值+备注,价格一律由服务端解析
// 2. 提交了规格或商品是模板时,按服务端规格定义校验(必选分组、未知选项)
// 3. 选项关联了具体商品(变体)时,行使用该变体的编码、名称和价格
// 4. 售罄商品静默忽略,不加行也不报错
type AddToCartUseCase struct {
	sessions *session.Manager
	provider *pricelist.Provider
	loader   *appcatalog.Loader
	options  pricing.OptionsGateway
	logger   *zap.Logger
}

// NewAddToCartUseCase 创建加购用例
func NewAddToCartUseCase(
	sessions *session.Manager,
	provider *pricelist.Provider,
	loader *appcatalog.Loader,
	options pricing.OptionsGateway,
	logger *zap.Logger,
) *AddToCartUseCase {
	return &AddToCartUseCase{
		sessions: sessions,
		provider: provider,
		loader:   loader,
		options:  options,
		logger:   logger,
	}
}

// AddToCartRequest 加购请求
type AddToCartRequest struct {
	Token    string
	ItemCode string
	Options  map[string][]string // 分组名 → 选项值
	Notes    string
}

// AddToCartResponse 加购响应
// Added为false表示商品已售罄,请求被忽略
type AddToCartResponse struct {
	Added   bool      `json:"added"`
	Line    *LineView `json:"line,omitempty"`
	Cart    CartView  `json:"cart"`
	Notices []string  `json:"-"`
}

// Execute 执行加购
func (uc *AddToCartUseCase) Execute(ctx context.Context, req AddToCartRequest) (*AddToCartResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "cart", "AddToCart")
	defer span.End()

	var resp *AddToCartResponse
	err := uc.sessions.With(ctx, req.Token, func(st *session.State) error {
		uc.provider.Ensure(ctx, st)
		uc.loader.EnsureLoaded(ctx, st)

		entry := st.Index.Get(req.ItemCode)
		if entry == nil {
			return catalog.ErrItemNotFound.WithField("item_code")
		}

		selected, err := uc.selectOptions(ctx, st, entry, req.Options)
		if err != nil {
			return err
		}

		target, err := uc.resolveTarget(ctx, st, entry, selected)
		if err != nil {
			return err
		}

		resp = &AddToCartResponse{}
		if st.Index.IsSoldOut(target) {
			metrics.IncCartOperation("add_ignored")
			uc.logger.Debug("sold out item ignored",
				zap.String("token", st.Token),
				zap.String("item_code", target.ItemCode),
			)
		} else {
			line, err := st.Ledger.AddLine(target, selected, req.Notes, st.Resolver())
			if err != nil {
				return err
			}
			metrics.IncCartOperation("add")
			resp.Added = true
			idx := lineIndex(st, line.ID.String())
			view := NewLineView(idx, line)
			resp.Line = &view
		}

		resp.Cart = NewCartView(st)
		resp.Notices = st.DrainNotices()
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

// selectOptions 校验终端提交的规格
// 没有提交规格的普通商品不查询规格定义
func (uc *AddToCartUseCase) selectOptions(
	ctx context.Context,
	st *session.State,
	entry *catalog.Entry,
	values map[string][]string,
) (pricing.SelectedOptions, error) {
	if len(values) == 0 && !entry.IsTemplate() {
		return nil, nil
	}

	defs, err := uc.options.GetItemOptions(ctx, entry.ItemCode)
	if err != nil {
		metrics.IncFallback("options")
		uc.logger.Warn("fetch item options failed",
			zap.String("item_code", entry.ItemCode),
			zap.Error(err),
		)
		if len(values) > 0 {
			// 无法校验规格,不能按未定价的规格下单
			return nil, apperrors.ErrRemoteError.WithErr(err)
		}
		st.Notice(appcatalog.NoticeOptionsDegraded)
		return nil, nil
	}

	selected, err := defs.Select(values)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, nil
	}
	return selected, nil
}

// resolveTarget 确定实际下单的商品
// 1. 规格选项关联了商品时使用该商品(索引里没有时先补拉模板变体)
// 2. 模板商品没有关联到变体 → 需要先选规格
func (uc *AddToCartUseCase) resolveTarget(
	ctx context.Context,
	st *session.State,
	entry *catalog.Entry,
	selected pricing.SelectedOptions,
) (*catalog.Entry, error) {
	linked := selected.LinkedItem()
	if linked == "" {
		if entry.IsTemplate() {
			return nil, catalog.ErrTemplateItem.WithField("options")
		}
		return entry, nil
	}

	target := st.Index.Get(linked)
	if target == nil && entry.IsTemplate() {
		if _, err := uc.loader.FetchVariants(ctx, st, entry); err != nil {
			metrics.IncFallback("variants")
			uc.logger.Warn("fetch variants for linked option failed",
				zap.String("template", entry.ItemCode),
				zap.String("linked_item", linked),
				zap.Error(err),
			)
		}
		target = st.Index.Get(linked)
	}
	if target == nil {
		return nil, catalog.ErrItemNotFound.WithField("options")
	}
	if target.IsTemplate() {
		return nil, catalog.ErrTemplateItem.WithField("options")
	}
	return target, nil
}

func lineIndex(st *session.State, id string) int {
	for i, line := range st.Ledger.Lines() {
		if line.ID.String() == id {
			return i
		}
	}
	return -1
}
