package ports

import (
	"context"

	"github.com/samirrijal/youthcenters/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishLocation(ctx context.Context, event *domain.LocationEvent) error
	PublishDatasetUpdated(ctx context.Context, event *domain.DatasetEvent) error
}

// CacheService provides read-through caching. Entries are only ever
// removed in bulk, by key prefix.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	DeletePrefix(ctx context.Context, prefix string) error
}
