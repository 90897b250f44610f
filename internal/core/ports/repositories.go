package ports

import (
	"context"

	"github.com/samirrijal/youthcenters/internal/core/domain"
)

// CenterRepository stores the youth center dataset.
type CenterRepository interface {
	// List returns every center in dataset order.
	List(ctx context.Context) ([]domain.Center, error)
	// ReplaceAll swaps the whole dataset for centers, keeping their order.
	ReplaceAll(ctx context.Context, centers []domain.Center) error
	Count(ctx context.Context) (int, error)
}
