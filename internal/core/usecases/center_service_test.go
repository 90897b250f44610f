package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/core/finder"
	"github.com/samirrijal/youthcenters/internal/core/usecases"
)

// --- Mock CenterRepository ---

type mockCenterRepo struct {
	listFn       func(ctx context.Context) ([]domain.Center, error)
	replaceAllFn func(ctx context.Context, centers []domain.Center) error
	listCalls    int
}

func (m *mockCenterRepo) List(ctx context.Context) ([]domain.Center, error) {
	m.listCalls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCenterRepo) ReplaceAll(ctx context.Context, centers []domain.Center) error {
	if m.replaceAllFn != nil {
		return m.replaceAllFn(ctx, centers)
	}
	return nil
}

func (m *mockCenterRepo) Count(ctx context.Context) (int, error) {
	if m.listFn == nil {
		return 0, nil
	}
	centers, err := m.listFn(ctx)
	return len(centers), err
}

// --- Mock CacheService ---

type mockCache struct {
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) DeletePrefix(ctx context.Context, prefix string) error {
	m.deleted = append(m.deleted, prefix)
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	locations []domain.LocationEvent
	datasets  []domain.DatasetEvent
	err       error
}

func (m *mockPublisher) PublishLocation(ctx context.Context, e *domain.LocationEvent) error {
	m.locations = append(m.locations, *e)
	return m.err
}

func (m *mockPublisher) PublishDatasetUpdated(ctx context.Context, e *domain.DatasetEvent) error {
	m.datasets = append(m.datasets, *e)
	return m.err
}

// --- Fixtures ---

var seoul = domain.Location{Latitude: 37.5665, Longitude: 126.9780}

func seoulCenters() []domain.Center {
	return []domain.Center{
		{Name: "Busan", Latitude: 35.1796, Longitude: 129.0756},
		{Name: "Jung-gu", Latitude: 37.5651, Longitude: 126.9895},
		{Name: "City Hall", Latitude: 37.5665, Longitude: 126.9780},
	}
}

// --- Tests ---

func TestCenterService_Nearby(t *testing.T) {
	repo := &mockCenterRepo{
		listFn: func(ctx context.Context) ([]domain.Center, error) { return seoulCenters(), nil },
	}
	svc := usecases.NewCenterService(repo, nil, nil, 1000)

	res, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Reference: seoul})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Centers) != 3 {
		t.Fatalf("expected 3 centers, got %d", len(res.Centers))
	}
	want := []string{"City Hall", "Jung-gu", "Busan"}
	for i, name := range want {
		if res.Centers[i].Center.Name != name {
			t.Errorf("position %d = %s, want %s", i, res.Centers[i].Center.Name, name)
		}
	}
	if res.Overlay.RadiusMeters != 1000 || res.Overlay.Center != seoul {
		t.Errorf("unexpected overlay: %+v", res.Overlay)
	}
	if res.Reference != seoul {
		t.Errorf("reference = %+v, want %+v", res.Reference, seoul)
	}
}

func TestCenterService_Nearby_RadiusAndLimit(t *testing.T) {
	repo := &mockCenterRepo{
		listFn: func(ctx context.Context) ([]domain.Center, error) { return seoulCenters(), nil },
	}
	svc := usecases.NewCenterService(repo, nil, nil, 1000)

	res, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Reference: seoul, RadiusMeters: 2000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Centers) != 2 {
		t.Fatalf("expected 2 centers within 2 km, got %d", len(res.Centers))
	}

	res, err = svc.Nearby(context.Background(), usecases.NearbyQuery{Reference: seoul, Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Centers) != 1 || res.Centers[0].Center.Name != "City Hall" {
		t.Fatalf("expected only City Hall, got %+v", res.Centers)
	}
}

func TestCenterService_Nearby_InvalidLocation(t *testing.T) {
	repo := &mockCenterRepo{}
	svc := usecases.NewCenterService(repo, nil, nil, 1000)

	_, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Reference: domain.Location{Latitude: 91}})
	if !errors.Is(err, usecases.ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
	if repo.listCalls != 0 {
		t.Error("repository must not be called for an invalid location")
	}
}

func TestCenterService_Nearby_RepoError(t *testing.T) {
	repo := &mockCenterRepo{
		listFn: func(ctx context.Context) ([]domain.Center, error) { return nil, errors.New("db down") },
	}
	svc := usecases.NewCenterService(repo, nil, nil, 1000)

	_, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Reference: seoul})
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestCenterService_Nearby_UsesCache(t *testing.T) {
	repo := &mockCenterRepo{
		listFn: func(ctx context.Context) ([]domain.Center, error) { return seoulCenters(), nil },
	}
	cache := newMockCache()
	svc := usecases.NewCenterService(repo, cache, nil, 1000)

	q := usecases.NearbyQuery{Reference: seoul, Limit: 2}
	first, err := svc.Nearby(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Nearby(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.listCalls != 1 {
		t.Errorf("expected 1 repository call, got %d", repo.listCalls)
	}
	if len(second.Centers) != len(first.Centers) || second.Centers[1].Center.Name != first.Centers[1].Center.Name {
		t.Errorf("cached result differs: %+v vs %+v", second.Centers, first.Centers)
	}
}

// Two references that round to the same cache key share the ranking but
// each gets its own reference and overlay back.
func TestCenterService_Nearby_CacheKeepsCallerReference(t *testing.T) {
	repo := &mockCenterRepo{
		listFn: func(ctx context.Context) ([]domain.Center, error) { return seoulCenters(), nil },
	}
	svc := usecases.NewCenterService(repo, newMockCache(), nil, 1000)

	first := domain.Location{Latitude: 37.5665001, Longitude: 126.978}
	second := domain.Location{Latitude: 37.5665004, Longitude: 126.978}

	if _, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Reference: first}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Reference: second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.listCalls != 1 {
		t.Fatalf("expected the second lookup to hit the cache, got %d repository calls", repo.listCalls)
	}
	if res.Reference != second {
		t.Errorf("reference = %+v, want %+v", res.Reference, second)
	}
	if res.Overlay.Center != second {
		t.Errorf("overlay center = %+v, want %+v", res.Overlay.Center, second)
	}
	if len(res.Centers) != 3 {
		t.Errorf("expected 3 cached centers, got %d", len(res.Centers))
	}
}

// A lookup that read the old dataset before an import and writes its
// ranking after the invalidation must not be served afterwards.
func TestCenterService_Nearby_ImportDuringLookup(t *testing.T) {
	current := seoulCenters()
	importDuringList := true
	var svc *usecases.CenterService

	repo := &mockCenterRepo{
		replaceAllFn: func(ctx context.Context, centers []domain.Center) error {
			current = centers
			return nil
		},
	}
	repo.listFn = func(ctx context.Context) ([]domain.Center, error) {
		snapshot := current
		if importDuringList {
			importDuringList = false
			if _, err := svc.Import(ctx, strings.NewReader("h\nNew Center,37.5665,126.9780\n"), "upload"); err != nil {
				t.Fatalf("import: %v", err)
			}
		}
		return snapshot, nil
	}
	svc = usecases.NewCenterService(repo, newMockCache(), nil, 1000)

	q := usecases.NearbyQuery{Reference: seoul}
	stale, err := svc.Nearby(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stale.Centers) != 3 {
		t.Fatalf("expected the in-flight lookup to see the old dataset, got %d centers", len(stale.Centers))
	}

	fresh, err := svc.Nearby(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fresh.Centers) != 1 || fresh.Centers[0].Center.Name != "New Center" {
		t.Errorf("expected the imported dataset, got %+v", fresh.Centers)
	}
}

func TestCenterService_Invalidate_AdoptsVersion(t *testing.T) {
	cache := newMockCache()
	svc := usecases.NewCenterService(&mockCenterRepo{}, cache, nil, 1000)

	svc.Invalidate(context.Background(), "v2")
	if got := svc.DatasetVersion(); got != "v2" {
		t.Fatalf("version = %q, want v2", got)
	}
	if len(cache.deleted) != 1 {
		t.Fatalf("expected one prefix deletion, got %d", len(cache.deleted))
	}

	// The importing instance also receives its own announcement.
	svc.Invalidate(context.Background(), "v2")
	if len(cache.deleted) != 1 {
		t.Errorf("repeating a version must not flush again, got %d deletions", len(cache.deleted))
	}

	svc.Invalidate(context.Background(), "")
	if got := svc.DatasetVersion(); got == "" || got == "v2" {
		t.Errorf("expected a fresh version, got %q", got)
	}
}

func TestCenterService_Count(t *testing.T) {
	repo := &mockCenterRepo{
		listFn: func(ctx context.Context) ([]domain.Center, error) { return seoulCenters(), nil },
	}
	svc := usecases.NewCenterService(repo, nil, nil, 1000)

	n, err := svc.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}

func TestCenterService_Nearby_PublishesLocation(t *testing.T) {
	repo := &mockCenterRepo{
		listFn: func(ctx context.Context) ([]domain.Center, error) { return seoulCenters(), nil },
	}
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	svc := usecases.NewCenterService(repo, nil, pub, 1000)

	// A broker failure must not fail the lookup.
	if _, err := svc.Nearby(context.Background(), usecases.NearbyQuery{Reference: seoul, SessionID: "s1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.locations) != 1 {
		t.Fatalf("expected 1 location event, got %d", len(pub.locations))
	}
	if ev := pub.locations[0]; ev.SessionID != "s1" || ev.Matches != 3 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestCenterService_Import(t *testing.T) {
	var stored []domain.Center
	repo := &mockCenterRepo{
		replaceAllFn: func(ctx context.Context, centers []domain.Center) error {
			stored = centers
			return nil
		},
	}
	cache := newMockCache()
	cache.data["centers:markers"] = []byte("[]")
	pub := &mockPublisher{}
	svc := usecases.NewCenterService(repo, cache, pub, 1000)

	n, err := svc.Import(context.Background(),
		strings.NewReader("header\nAlpha,10.0,20.0\nBeta,bad,30.0\nGamma,1,2,3\n"), "upload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(stored) != 2 {
		t.Fatalf("expected 2 stored centers, got n=%d stored=%d", n, len(stored))
	}
	if stored[1].Name != "Beta" || stored[1].Latitude != 0 || stored[1].Longitude != 30 {
		t.Errorf("unexpected Beta: %+v", stored[1])
	}
	if _, ok := cache.data["centers:markers"]; ok {
		t.Error("expected cache to be invalidated")
	}
	if len(pub.datasets) != 1 || pub.datasets[0].Centers != 2 || pub.datasets[0].Source != "upload" {
		t.Fatalf("unexpected dataset events: %+v", pub.datasets)
	}
	if pub.datasets[0].Version != svc.DatasetVersion() {
		t.Errorf("event version %q does not match the service version %q", pub.datasets[0].Version, svc.DatasetVersion())
	}
}

func TestCenterService_Import_RefusesUnusableDataset(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		opts    []usecases.Option
		wantErr error
	}{
		{"header only", "name,latitude,longitude\n", nil, finder.ErrNoCenters},
		{"only malformed lines", "h\nx\ny\n", nil, finder.ErrNoCenters},
		{"non-finite coordinate", "h\nOdd,NaN,1\n", nil, finder.ErrNonFinite},
		{"too many dropped", "h\nA,1,2\nx\ny\nz\n", []usecases.Option{usecases.WithMaxDropRatio(0.5)}, finder.ErrTooManyDropped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replaced := false
			repo := &mockCenterRepo{
				replaceAllFn: func(ctx context.Context, centers []domain.Center) error {
					replaced = true
					return nil
				},
			}
			cache := newMockCache()
			pub := &mockPublisher{}
			svc := usecases.NewCenterService(repo, cache, pub, 1000, tt.opts...)
			before := svc.DatasetVersion()

			_, err := svc.Import(context.Background(), strings.NewReader(tt.body), "upload")
			if !errors.Is(err, usecases.ErrInvalidDataset) || !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected ErrInvalidDataset wrapping %v, got %v", tt.wantErr, err)
			}
			if replaced {
				t.Error("a refused dataset must not replace the stored one")
			}
			if len(pub.datasets) != 0 || len(cache.deleted) != 0 || svc.DatasetVersion() != before {
				t.Error("a refused dataset must not invalidate or announce anything")
			}
		})
	}
}

func TestCenterService_Import_StoreError(t *testing.T) {
	repo := &mockCenterRepo{
		replaceAllFn: func(ctx context.Context, centers []domain.Center) error { return errors.New("tx aborted") },
	}
	pub := &mockPublisher{}
	svc := usecases.NewCenterService(repo, nil, pub, 1000)

	if _, err := svc.Import(context.Background(), strings.NewReader("h\nA,1,2\n"), "upload"); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.datasets) != 0 {
		t.Error("no dataset event expected after a failed import")
	}
}

func TestCenterService_Markers(t *testing.T) {
	repo := &mockCenterRepo{
		listFn: func(ctx context.Context) ([]domain.Center, error) { return seoulCenters(), nil },
	}
	svc := usecases.NewCenterService(repo, newMockCache(), nil, 1000)

	markers, err := svc.Markers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markers) != 3 || markers[0].Caption != "Busan" {
		t.Fatalf("unexpected markers: %+v", markers)
	}

	// Second call is served from cache.
	if _, err := svc.Markers(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listCalls != 1 {
		t.Errorf("expected 1 repository call, got %d", repo.listCalls)
	}
}

func TestCenterService_Overlay(t *testing.T) {
	svc := usecases.NewCenterService(&mockCenterRepo{}, nil, nil, 1000)

	o, err := svc.Overlay(seoul)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.RadiusMeters != 1000 {
		t.Errorf("expected radius 1000, got %v", o.RadiusMeters)
	}

	if _, err := svc.Overlay(domain.Location{Longitude: 200}); !errors.Is(err, usecases.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}
}
