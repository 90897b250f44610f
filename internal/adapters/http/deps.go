package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/youthcenters/internal/core/usecases"
)

// Pinger is a backend the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Limits bounds the size of nearby results.
type Limits struct {
	Default int
	Max     int
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Centers *usecases.CenterService
	Limits  Limits
	NATS    *nats.Conn // optional, enables dataset relays on /ws
	DB      Pinger     // nil when centers come from the bundled file
	Cache   Pinger

	// AdminToken guards dataset writes. Empty leaves them unrouted.
	AdminToken string
}

func (d *Dependencies) limits() Limits {
	l := d.Limits
	if l.Default <= 0 {
		l.Default = 50
	}
	if l.Max < l.Default {
		l.Max = l.Default
	}
	return l
}
