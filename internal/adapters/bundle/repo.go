// Package bundle serves centers from the CSV file shipped with the service.
package bundle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/core/finder"
)

// Repo implements ports.CenterRepository in memory.
type Repo struct {
	mu      sync.RWMutex
	centers []domain.Center
}

// New creates a Repo holding centers.
func New(centers []domain.Center) *Repo {
	return &Repo{centers: clone(centers)}
}

// Load reads the bundled CSV at path. The file must pass finder.Check, so an
// empty bundle or a NaN coordinate fails startup instead of serving.
func Load(path string) (*Repo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	res, err := finder.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", path, err)
	}
	if res.Dropped > 0 {
		slog.Warn("bundle contains malformed lines", "path", path, "dropped", res.Dropped)
	}
	if err := res.Check(0); err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", path, err)
	}
	return New(res.Centers), nil
}

// List returns a copy of the centers in file order.
func (r *Repo) List(ctx context.Context) ([]domain.Center, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.centers), nil
}

// ReplaceAll swaps the held dataset.
func (r *Repo) ReplaceAll(ctx context.Context, centers []domain.Center) error {
	c := clone(centers)
	r.mu.Lock()
	r.centers = c
	r.mu.Unlock()
	return nil
}

// Count returns the number of held centers.
func (r *Repo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.centers), nil
}

func clone(centers []domain.Center) []domain.Center {
	out := make([]domain.Center, len(centers))
	copy(out, centers)
	return out
}
