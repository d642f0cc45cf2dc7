package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordConflict(t *testing.T) {
	m := New("test")

	m.RecordConflict("schedule")
	m.RecordConflict("schedule")
	m.RecordConflict("availability")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Conflicts.WithLabelValues("schedule")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Conflicts.WithLabelValues("availability")))
}

func TestNew_IndependentRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		New("a")
		New("a")
	})
}

func TestHandler_ExposesSchedulingMetrics(t *testing.T) {
	m := New("test")
	m.RecordMutation("schedule", "create")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `test_scheduling_mutations_total{kind="schedule",op="create"} 1`))
}
