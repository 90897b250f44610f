package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/youthcenters/internal/pkg/metrics"
)

type fakePool struct{ acquired, idle, total int32 }

func (f fakePool) AcquiredConns() int32 { return f.acquired }
func (f fakePool) IdleConns() int32     { return f.idle }
func (f fakePool) TotalConns() int32    { return f.total }

func TestUpdateDBPoolMetrics(t *testing.T) {
	metrics.UpdateDBPoolMetrics(fakePool{acquired: 2, idle: 3, total: 5})

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DBPoolConnsAcquired))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.DBPoolConnsIdle))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.DBPoolConnsOpen))
}

func TestHandlerExposesFinderMetrics(t *testing.T) {
	metrics.RankRequests.Inc()

	app := fiber.New()
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "youthcenters_finder_rank_requests_total"))
}
