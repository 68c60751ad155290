package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
)

// SampleProducts is the demo catalog. Ids are fixed so seeding twice updates
// the same records instead of duplicating them.
func SampleProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "1",
			Title:       "Wireless Earphones",
			Description: "High quality wireless earphones, comfortable for long listening sessions.",
			Price:       15000,
			ImageURL:    "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400",
			Category:    "Audio",
			Stock:       50,
		},
		{
			ID:          "2",
			Title:       "Smart Watch",
			Description: "Smart watch with health tracking and smartphone integration.",
			Price:       25000,
			ImageURL:    "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=400",
			Category:    "Wearables",
			Stock:       30,
		},
		{
			ID:          "3",
			Title:       "Bluetooth Speaker",
			Description: "Compact portable Bluetooth speaker.",
			Price:       8000,
			ImageURL:    "https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=400",
			Category:    "Audio",
			Stock:       25,
		},
		{
			ID:          "4",
			Title:       "Wireless Mouse",
			Description: "Ergonomic wireless mouse.",
			Price:       5000,
			ImageURL:    "https://images.unsplash.com/photo-1527864550417-7fd91fc51a46?w=400",
			Category:    "PC Accessories",
			Stock:       100,
		},
		{
			ID:          "5",
			Title:       "USB-C Cable",
			Description: "Fast charging USB-C cable, 1m.",
			Price:       2000,
			ImageURL:    "https://images.unsplash.com/photo-1583394838336-acd977736f90?w=400",
			Category:    "Cables",
			Stock:       200,
		},
		{
			ID:          "6",
			Title:       "Mobile Battery",
			Description: "High capacity 10000mAh mobile battery.",
			Price:       6000,
			ImageURL:    "https://images.unsplash.com/photo-1609592807900-0b8b0a4a0b8b?w=400",
			Category:    "Batteries",
			Stock:       40,
		},
	}
}

// Seed writes products in order. Creation times are spaced a second apart so the
// newest-first listing shows them in reverse seed order.
func (s *Service) Seed(ctx context.Context, products []domain.Product) (int, error) {
	base := time.Now().UTC()
	for i, p := range products {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = base.Add(time.Duration(i) * time.Second)
			p.UpdatedAt = p.CreatedAt
		}
		id, err := s.AddProduct(ctx, p)
		if err != nil {
			return i, fmt.Errorf("seed product %q: %w", p.Title, err)
		}
		s.logger.Info("seeded product", zap.String("product_id", id), zap.String("title", p.Title))
	}
	return len(products), nil
}
