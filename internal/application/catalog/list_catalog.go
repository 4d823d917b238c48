package catalog

import (
	"context"
	"strings"

	"github.com/xiebiao/poscart/internal/application/session"
	"github.com/xiebiao/poscart/internal/domain/catalog"
)

// ListCatalogUseCase 目录网格查询用例
// 设计说明:
// 1. 已归属到模板的变体不在网格中单独展示(通过模板进入规格选择)
// 2. 模板展示价为最低变体价,售罄标记为变体汇总结果
// 3. 目录未加载时先加载,远程失败的提示随响应返回
type ListCatalogUseCase struct {
	sessions *session.Manager
	loader   *Loader
}

// NewListCatalogUseCase 创建目录查询用例
func NewListCatalogUseCase(sessions *session.Manager, loader *Loader) *ListCatalogUseCase {
	return &ListCatalogUseCase{sessions: sessions, loader: loader}
}

// ListCatalogRequest 目录查询请求
type ListCatalogRequest struct {
	Token  string
	Group  string // 按商品分组过滤
	Search string // 按编码或名称模糊搜索(不区分大小写)
}

// ListCatalogResponse 目录查询响应
type ListCatalogResponse struct {
	PriceList string     `json:"price_list"`
	Groups    []string   `json:"groups"`
	Items     []ItemView `json:"items"`
	Notices   []string   `json:"-"`
}

// Execute 执行目录查询
func (uc *ListCatalogUseCase) Execute(ctx context.Context, req ListCatalogRequest) (*ListCatalogResponse, error) {
	var resp *ListCatalogResponse
	err := uc.sessions.With(ctx, req.Token, func(st *session.State) error {
		uc.loader.EnsureLoaded(ctx, st)

		resp = &ListCatalogResponse{
			PriceList: st.PriceList.Name,
			Groups:    groupsOf(st.Index),
			Items:     make([]ItemView, 0, st.Index.Len()),
		}

		search := strings.ToLower(strings.TrimSpace(req.Search))
		for _, e := range st.Index.Entries() {
			if e.IsVariant() && st.Index.TemplateOf(e) != nil {
				continue
			}
			if req.Group != "" && e.ItemGroup != req.Group {
				continue
			}
			if search != "" && !matches(e, search) {
				continue
			}
			resp.Items = append(resp.Items, NewItemView(e))
		}
		resp.Notices = st.DrainNotices()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func matches(e *catalog.Entry, search string) bool {
	return strings.Contains(strings.ToLower(e.ItemCode), search) ||
		strings.Contains(strings.ToLower(e.ItemName), search)
}

// groupsOf 目录中出现的商品分组(按首次出现顺序)
func groupsOf(idx *catalog.Index) []string {
	seen := make(map[string]struct{})
	groups := make([]string, 0)
	for _, e := range idx.Entries() {
		if e.ItemGroup == "" {
			continue
		}
		if _, ok := seen[e.ItemGroup]; ok {
			continue
		}
		seen[e.ItemGroup] = struct{}{}
		groups = append(groups, e.ItemGroup)
	}
	return groups
}
