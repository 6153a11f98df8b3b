package services

import (
	"context"

	"storefront/internal/domain"
	applog "storefront/internal/log"
)

// ProductStore is the record side of the catalog. repos.ProductRepo is the
// production implementation.
type ProductStore interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Create(ctx context.Context, p domain.Product) (int64, error)
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, id int64) error
}

// AssetStore is the file side of the catalog. media.Store is the production
// implementation.
type AssetStore interface {
	Accept(ctx context.Context, u domain.Upload) (domain.Asset, error)
	Remove(path string) error
}

type CleanupPolicy int

const (
	// RetainAssets never deletes files; replaced or orphaned pictures stay on disk.
	RetainAssets CleanupPolicy = iota
	// RemoveAssets deletes a product's previous picture once it is replaced
	// or the product is deleted.
	RemoveAssets
)

type CatalogService struct {
	Products ProductStore
	Assets   AssetStore
	Cleanup  CleanupPolicy
}

func NewCatalogService(products ProductStore, assets AssetStore, cleanup CleanupPolicy) *CatalogService {
	return &CatalogService{Products: products, Assets: assets, Cleanup: cleanup}
}

// ProductInput carries the mutable fields of a product as sent by a client.
// Picture is the previously stored path echoed back on update; it is ignored
// when an upload is present.
type ProductInput struct {
	Name    string
	Email   string
	Store   string
	Picture string
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	return s.Products.List(ctx)
}

// Create writes the upload first (if any) and then inserts the record.
func (s *CatalogService) Create(ctx context.Context, in ProductInput, up *domain.Upload) (int64, *domain.Asset, error) {
	p := domain.Product{Name: in.Name, Email: in.Email, Store: in.Store}

	var asset *domain.Asset
	if up != nil {
		a, err := s.Assets.Accept(ctx, *up)
		if err != nil {
			return 0, nil, err
		}
		asset = &a
		p.Picture = a.Path
	}

	id, err := s.Products.Create(ctx, p)
	if err != nil {
		return 0, asset, err
	}
	return id, asset, nil
}

// Update overwrites every mutable field. Without an upload the picture is
// whatever the caller sent, so an omitted picture clears the reference.
func (s *CatalogService) Update(ctx context.Context, id int64, in ProductInput, up *domain.Upload) (*domain.Asset, error) {
	var previous string
	if up != nil && s.Cleanup == RemoveAssets {
		old, err := s.Products.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		previous = old.Picture
	}

	p := domain.Product{ID: id, Name: in.Name, Email: in.Email, Store: in.Store, Picture: in.Picture}

	var asset *domain.Asset
	if up != nil {
		a, err := s.Assets.Accept(ctx, *up)
		if err != nil {
			return nil, err
		}
		asset = &a
		p.Picture = a.Path
	}

	if err := s.Products.Update(ctx, p); err != nil {
		return asset, err
	}
	if previous != "" && previous != p.Picture {
		s.removeAsset(previous, id)
	}
	return asset, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if s.Cleanup != RemoveAssets {
		return s.Products.Delete(ctx, id)
	}

	old, err := s.Products.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Products.Delete(ctx, id); err != nil {
		return err
	}
	s.removeAsset(old.Picture, id)
	return nil
}

func (s *CatalogService) removeAsset(path string, id int64) {
	if path == "" {
		return
	}
	if err := s.Assets.Remove(path); err != nil {
		applog.Error(nil, "asset.remove.fail", err, map[string]any{"product_id": id, "path": path})
		return
	}
	applog.Audit(nil, "asset.remove", map[string]any{"product_id": id, "path": path})
}
