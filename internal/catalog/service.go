// Package catalog serves products from the repository through a read-through cache.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	repo   repository.ProductRepository
	cache  Cache
	sfg    singleflight.Group // collapses concurrent misses for the same key
	logger *zap.Logger
}

// NewService returns a catalog service. cache may be nil, in which case every
// read goes to the repository.
func NewService(repo repository.ProductRepository, cache Cache, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// ListProducts returns the catalog newest first.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do(listKey, func() (interface{}, error) {
		if s.cache != nil {
			products, err := s.cache.GetProducts(ctx)
			if err == nil {
				return products, nil
			}
			s.logCacheError("get products", err)
		}

		products, err := s.repo.GetAllProducts(ctx)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			if err := s.cache.SetProducts(ctx, products); err != nil {
				s.logger.Warn("cache set failed", zap.String("key", listKey), zap.Error(err))
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]domain.Product)
	products := make([]domain.Product, len(shared))
	copy(products, shared)
	return products, nil
}

// GetProduct returns repository.ErrProductNotFound for unknown ids.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(productKey(id), func() (interface{}, error) {
		if s.cache != nil {
			product, err := s.cache.GetProduct(ctx, id)
			if err == nil {
				return product, nil
			}
			s.logCacheError("get product", err)
		}

		product, err := s.repo.GetProductByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			if err := s.cache.SetProduct(ctx, product); err != nil {
				s.logger.Warn("cache set failed", zap.String("product_id", id), zap.Error(err))
			}
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*domain.Product)
	return &p, nil
}

// AddProduct writes through to the repository and invalidates cached reads.
func (s *Service) AddProduct(ctx context.Context, product domain.Product) (string, error) {
	id, err := s.repo.AddProduct(ctx, product)
	if err != nil {
		return "", err
	}
	s.invalidate(id)
	return id, nil
}

func (s *Service) invalidate(ids ...string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Error(err))
	}
}

func (s *Service) logCacheError(op string, err error) {
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("cache error, falling back to repository", zap.String("op", op), zap.Error(err))
	}
}
