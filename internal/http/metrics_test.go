package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/calorilog/internal/telemetry"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusOK, "2xx"},
		{http.StatusNoContent, "2xx"},
		{http.StatusNotFound, "4xx"},
		{http.StatusGatewayTimeout, "5xx"},
		{0, "unknown"},
		{700, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusClass(tt.status), tt.status)
	}
}

func TestHTTPMetrics_RouteAndStatus(t *testing.T) {
	tel := telemetry.NewTestTelemetry(t)
	env := setupTestServer(t, WithHTTPMetrics(NewHTTPMetrics(tel.Meter(httpInstrumentationName), zap.NewNop())))

	env.do(t, http.MethodGet, "/api/v1/days/2024-03-15", nil)
	env.do(t, http.MethodDelete, "/api/v1/days/2024-03-15/entries/0", nil)

	m, ok := tel.Metric(t, metricRequests)
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value("route")
		class, _ := dp.Attributes.Value("status_class")
		counts[route.AsString()+" "+class.AsString()] += dp.Value
	}
	assert.Equal(t, int64(1), counts["/api/v1/days/:date 2xx"])
	assert.Equal(t, int64(1), counts["/api/v1/days/:date/entries/:index 4xx"], counts)
}
