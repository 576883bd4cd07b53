package service

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"bakery-shop-backend/internal/cache"
	"bakery-shop-backend/internal/model"
)

var productSorts = map[string]bool{
	"":           true,
	"newest":     true,
	"price-asc":  true,
	"price-desc": true,
	"rating":     true,
}

// CatalogService serves read-only product and category lookups. Single
// product reads go through the cache, with concurrent misses for the same
// id collapsed into one store query.
type CatalogService struct {
	repo  CatalogRepository
	cache cache.ProductCache
	sfg   singleflight.Group
	lg    *zap.Logger
}

func NewCatalogService(repo CatalogRepository, c cache.ProductCache, lg *zap.Logger) *CatalogService {
	if c == nil {
		c = cache.Nop{}
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: c, lg: lg}
}

func (s *CatalogService) ListProducts(ctx context.Context, f model.ProductFilter) ([]*model.Product, error) {
	if !productSorts[f.Sort] {
		return nil, validationError("sort must be one of [newest price-asc price-desc rating]")
	}
	products, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

func (s *CatalogService) Product(ctx context.Context, id string) (*model.Product, error) {
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		p, err := s.cache.Get(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.lg.Warn("Product cache read failed", zap.String("product_id", id), zap.Error(err))
		}

		p, err = s.repo.FindProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, p); err != nil {
			s.lg.Warn("Product cache write failed", zap.String("product_id", id), zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return nil, storeErr(err, "Product not found", "find product")
	}
	return v.(*model.Product), nil
}

// ProductsByID returns the known products among ids, in the order of ids.
func (s *CatalogService) ProductsByID(ctx context.Context, ids []string) ([]*model.Product, error) {
	found, err := s.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "find products")
	}
	byID := make(map[string]*model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]*model.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return cats, nil
}

func (s *CatalogService) Category(ctx context.Context, id string) (*model.Category, error) {
	c, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Category not found", "find category")
	}
	return c, nil
}
