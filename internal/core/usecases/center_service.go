package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/core/finder"
	"github.com/samirrijal/youthcenters/internal/core/ports"
	"github.com/samirrijal/youthcenters/internal/pkg/metrics"
	"github.com/samirrijal/youthcenters/internal/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	cachePrefix     = "centers:"
	nearbyCacheTTL  = 300
	markersCacheTTL = 3600
)

// NearbyQuery describes a nearby lookup.
type NearbyQuery struct {
	Reference    domain.Location
	RadiusMeters float64 // <= 0 means no radius filter
	Limit        int     // <= 0 means no limit
	SessionID    string  // optional, forwarded with the location event
}

// CenterService handles youth-center lookups and dataset imports.
type CenterService struct {
	centers       ports.CenterRepository
	cache         ports.CacheService
	events        ports.EventPublisher
	overlayRadius float64
	maxDropRatio  float64

	// version names the dataset generation cached entries belong to. Keys
	// carry it, so an entry computed from an older dataset is never read
	// after an import, even if it is written after the invalidation.
	mu      sync.RWMutex
	version string
}

// Option configures a CenterService.
type Option func(*CenterService)

// WithMaxDropRatio makes Import refuse a dataset in which more than ratio of
// the data lines are malformed. Zero disables the check.
func WithMaxDropRatio(ratio float64) Option {
	return func(s *CenterService) { s.maxDropRatio = ratio }
}

// NewCenterService creates a new CenterService. cache and events may be nil.
// overlayRadius is the radius in meters of the circle returned with every
// nearby result.
func NewCenterService(centers ports.CenterRepository, cache ports.CacheService, events ports.EventPublisher, overlayRadius float64, opts ...Option) *CenterService {
	s := &CenterService{
		centers:       centers,
		cache:         cache,
		events:        events,
		overlayRadius: overlayRadius,
		version:       uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DatasetVersion returns the generation tag of the current dataset.
func (s *CenterService) DatasetVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Count returns the number of stored centers.
func (s *CenterService) Count(ctx context.Context) (int, error) {
	n, err := s.centers.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count centers: %w", err)
	}
	return n, nil
}

// List returns every center in dataset order.
func (s *CenterService) List(ctx context.Context) ([]domain.Center, error) {
	centers, err := s.centers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list centers: %w", err)
	}
	return centers, nil
}

// Nearby ranks all centers by distance from q.Reference, nearest first.
func (s *CenterService) Nearby(ctx context.Context, q NearbyQuery) (*domain.NearbyResult, error) {
	if !q.Reference.Valid() {
		return nil, fmt.Errorf("%w: (%v, %v)", ErrInvalidLocation, q.Reference.Latitude, q.Reference.Longitude)
	}

	ctx, span := telemetry.StartSpan(ctx, "CenterService.Nearby")
	defer span.End()

	result, err := s.nearby(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrMatches, len(result.Centers)))

	s.publishLocation(ctx, q, len(result.Centers))
	return result, nil
}

func (s *CenterService) nearby(ctx context.Context, q NearbyQuery) (*domain.NearbyResult, error) {
	ranked, err := s.ranked(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.NearbyResult{
		Reference: q.Reference,
		Overlay:   finder.Overlay(q.Reference, s.overlayRadius),
		Centers:   ranked,
	}, nil
}

// ranked returns the filtered ranking for q. Only the ranking is cached: the
// key rounds the reference, so the echoed reference and overlay are always
// rebuilt from q.
func (s *CenterService) ranked(ctx context.Context, q NearbyQuery) ([]domain.RankedCenter, error) {
	cacheKey := fmt.Sprintf("%s%s:nearby:%.6f:%.6f:%.0f:%d",
		cachePrefix, s.DatasetVersion(), q.Reference.Latitude, q.Reference.Longitude, q.RadiusMeters, q.Limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var ranked []domain.RankedCenter
			if err := json.Unmarshal(data, &ranked); err == nil {
				metrics.CacheHits.WithLabelValues("nearby").Inc()
				return ranked, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("nearby").Inc()
	}

	centers, err := s.centers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("nearby centers: %w", err)
	}

	ranked := finder.Rank(q.Reference, centers)
	ranked = finder.WithinRadius(ranked, q.RadiusMeters/1000)
	ranked = finder.Limit(ranked, q.Limit)

	metrics.RankRequests.Inc()
	metrics.RankCandidates.Observe(float64(len(centers)))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int(telemetry.AttrCandidates, len(centers)))

	if s.cache != nil {
		if data, err := json.Marshal(ranked); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, nearbyCacheTTL)
		}
	}

	return ranked, nil
}

// Markers returns one map marker per center.
func (s *CenterService) Markers(ctx context.Context) ([]domain.Marker, error) {
	markersCacheKey := cachePrefix + s.DatasetVersion() + ":markers"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, markersCacheKey); err == nil {
			var markers []domain.Marker
			if err := json.Unmarshal(data, &markers); err == nil {
				metrics.CacheHits.WithLabelValues("markers").Inc()
				return markers, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("markers").Inc()
	}

	centers, err := s.centers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("markers: %w", err)
	}
	markers := finder.Markers(centers)

	if s.cache != nil {
		if data, err := json.Marshal(markers); err == nil {
			_ = s.cache.Set(ctx, markersCacheKey, data, markersCacheTTL)
		}
	}
	return markers, nil
}

// Overlay returns the radius circle for a reference point.
func (s *CenterService) Overlay(ref domain.Location) (domain.RadiusOverlay, error) {
	if !ref.Valid() {
		return domain.RadiusOverlay{}, fmt.Errorf("%w: (%v, %v)", ErrInvalidLocation, ref.Latitude, ref.Longitude)
	}
	return finder.Overlay(ref, s.overlayRadius), nil
}

// Import replaces the dataset with the records read from r. Malformed lines
// are dropped and counted. A dataset that fails finder.Check is refused with
// ErrInvalidDataset and the stored one is left untouched.
func (s *CenterService) Import(ctx context.Context, r io.Reader, source string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "CenterService.Import", attribute.String(telemetry.AttrSource, source))
	defer span.End()

	res, err := finder.ReadRecords(r)
	if err != nil {
		return 0, fmt.Errorf("import centers: %w", err)
	}

	metrics.RecordsParsed.Add(float64(len(res.Centers)))
	metrics.RecordsDropped.Add(float64(res.Dropped))
	if res.Dropped > 0 {
		slog.WarnContext(ctx, "dropped malformed center records", "source", source, "dropped", res.Dropped)
	}
	if err := res.Check(s.maxDropRatio); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}

	if err := s.centers.ReplaceAll(ctx, res.Centers); err != nil {
		return 0, fmt.Errorf("import centers: store: %w", err)
	}

	version := uuid.NewString()
	s.Invalidate(ctx, version)

	if s.events != nil {
		event := &domain.DatasetEvent{Source: source, Centers: len(res.Centers), Version: version}
		if err := s.events.PublishDatasetUpdated(ctx, event); err != nil {
			slog.WarnContext(ctx, "publish dataset event failed", "error", err)
		}
	}

	span.SetAttributes(attribute.Int(telemetry.AttrImported, len(res.Centers)))
	return len(res.Centers), nil
}

// Invalidate moves the service to dataset generation version and drops
// every cached center result. An empty version starts a fresh generation;
// a version already in use is a no-op.
func (s *CenterService) Invalidate(ctx context.Context, version string) {
	if version == "" {
		version = uuid.NewString()
	}
	s.mu.Lock()
	if s.version == version {
		s.mu.Unlock()
		return
	}
	s.version = version
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, cachePrefix); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "error", err)
	}
}

func (s *CenterService) publishLocation(ctx context.Context, q NearbyQuery, matches int) {
	if s.events == nil {
		return
	}
	event := &domain.LocationEvent{SessionID: q.SessionID, Location: q.Reference, Matches: matches}
	if err := s.events.PublishLocation(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish location event failed", "error", err)
	}
}
