package handlers

import (
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/media"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type Deps struct {
	ProductHandler *ProductHandler
	HealthHandler  *HealthHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config) (*Deps, error) {
	prodRepo := repos.NewProductRepo(db)

	assets, err := media.NewStore(media.Options{
		Root:     cfg.UploadDir,
		MaxBytes: cfg.AssetMaxBytes,
		Sniff:    cfg.AssetSniff,
	})
	if err != nil {
		return nil, err
	}

	cleanup := services.RetainAssets
	if cfg.AssetCleanup == config.CleanupRemove {
		cleanup = services.RemoveAssets
	}
	catalogSvc := services.NewCatalogService(prodRepo, assets, cleanup)

	return &Deps{
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		HealthHandler:  &HealthHandler{DB: prodRepo},
	}, nil
}
