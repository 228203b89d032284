package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkHealth(t *testing.T, h *HealthChecker) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	return rec.Code, status
}

func TestHealthChecker_DegradedBeforeFirstAnalysis(t *testing.T) {
	h := NewHealthChecker(time.Minute)

	code, status := checkHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", status.Status)
}

func TestHealthChecker_HealthyAfterAnalysis(t *testing.T) {
	h := NewHealthChecker(time.Minute)
	h.MarkAnalysis()

	code, status := checkHealth(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	assert.False(t, status.LastAnalysis.IsZero())
}

func TestHealthChecker_UnhealthyOnError(t *testing.T) {
	h := NewHealthChecker(time.Minute)
	h.MarkAnalysis()
	h.MarkError(errors.New("fetch timed out"))

	code, status := checkHealth(t, h)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "fetch timed out", status.LastError)
}

// A successful pass clears a previous error.
func TestHealthChecker_RecoversAfterError(t *testing.T) {
	h := NewHealthChecker(time.Minute)
	h.MarkError(errors.New("boom"))
	h.MarkAnalysis()

	code, status := checkHealth(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	assert.Empty(t, status.LastError)
}
