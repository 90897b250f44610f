// Package bootstrap wires adapters and services from configuration. Every
// binary builds its runtime here so the optional backends degrade the same way.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/youthcenters/internal/adapters/bundle"
	natsadapter "github.com/samirrijal/youthcenters/internal/adapters/nats"
	"github.com/samirrijal/youthcenters/internal/adapters/postgres"
	"github.com/samirrijal/youthcenters/internal/adapters/valkey"
	"github.com/samirrijal/youthcenters/internal/core/ports"
	"github.com/samirrijal/youthcenters/internal/core/usecases"
	"github.com/samirrijal/youthcenters/internal/pkg/config"
)

// Runtime holds the wired service and the backends behind it.
// DB, Cache and Publisher are nil when not configured or unreachable.
type Runtime struct {
	Centers   *usecases.CenterService
	Repo      ports.CenterRepository
	DB        *postgres.DB
	Cache     *valkey.Cache
	Publisher *natsadapter.Publisher

	closers []func()
}

// Options selects the optional backends.
type Options struct {
	Cache  bool
	Events bool
}

// New builds the runtime. The center source is required; cache and events
// are best effort and only logged when unavailable.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{}

	switch cfg.Data.Source {
	case config.SourcePostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		rt.DB = db
		rt.Repo = postgres.NewCenterRepo(db)
		rt.closers = append(rt.closers, db.Close)
	default:
		repo, err := bundle.Load(cfg.Data.Path)
		if err != nil {
			return nil, err
		}
		rt.Repo = repo
	}

	// Interfaces are only assigned from non-nil adapters.
	var cache ports.CacheService
	if opts.Cache {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, caching disabled", "error", err)
		} else {
			rt.Cache = c
			cache = c
			rt.closers = append(rt.closers, c.Close)
		}
	}

	var events ports.EventPublisher
	if opts.Events {
		p, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, events disabled", "error", err)
		} else {
			rt.Publisher = p
			events = p
			rt.closers = append(rt.closers, p.Close)
		}
	}

	rt.Centers = usecases.NewCenterService(rt.Repo, cache, events, cfg.Finder.RadiusMeters,
		usecases.WithMaxDropRatio(cfg.Finder.MaxDropRatio))
	return rt, nil
}

// Close releases backends in reverse order of creation.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}
