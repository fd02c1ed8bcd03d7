package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.CollectRuns.WithLabelValues("ok").Inc()
	a.RowsDropped.WithLabelValues("unparsable").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CollectRuns.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.RowsDropped.WithLabelValues("unparsable")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CollectRuns.WithLabelValues("ok")))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.CleanRows.Set(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "growth_clean_rows 7")
}
