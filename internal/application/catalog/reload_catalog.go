package catalog

import (
	"context"

	"github.com/xiebiao/poscart/internal/application/session"
)

// ReloadCatalogUseCase 重新加载目录
// 索引整体重建,购物车不受影响(行价格在加购时已确定)
type ReloadCatalogUseCase struct {
	sessions *session.Manager
	loader   *Loader
}

// NewReloadCatalogUseCase 创建目录重载用例
func NewReloadCatalogUseCase(sessions *session.Manager, loader *Loader) *ReloadCatalogUseCase {
	return &ReloadCatalogUseCase{sessions: sessions, loader: loader}
}

// ReloadCatalogResponse 重载结果
type ReloadCatalogResponse struct {
	Entries int      `json:"entries"`
	Notices []string `json:"-"`
}

// Execute 执行重载
func (uc *ReloadCatalogUseCase) Execute(ctx context.Context, token string) (*ReloadCatalogResponse, error) {
	var resp *ReloadCatalogResponse
	err := uc.sessions.With(ctx, token, func(st *session.State) error {
		uc.loader.Load(ctx, st)
		resp = &ReloadCatalogResponse{
			Entries: st.Index.Len(),
			Notices: st.DrainNotices(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
