package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_New(t *testing.T) {
	m := New()
	assert.NotNil(t, m.AsksTotal)
	assert.NotNil(t, m.GenerationsTotal)
	assert.NotNil(t, m.UpstreamDuration)
	assert.NotNil(t, m.DirectoryErrors)
	assert.NotNil(t, m.ActiveSessions)
}

func TestMetrics_RecordAsk(t *testing.T) {
	m := New()
	m.RecordAsk("ok")
	m.RecordAsk("ok")
	m.RecordAsk("failed")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `ktai_asks_total{status="ok"} 2`)
	assert.Contains(t, body, `ktai_asks_total{status="failed"} 1`)
}

func TestMetrics_RecordGeneration(t *testing.T) {
	m := New()
	m.RecordGeneration("pptx", "ok")
	m.RecordGeneration("docx", "failed")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `ktai_generations_total{format="pptx",status="ok"} 1`)
	assert.Contains(t, body, `ktai_generations_total{format="docx",status="failed"} 1`)
}

func TestMetrics_ObserveUpstream(t *testing.T) {
	m := New()
	m.ObserveUpstream("answer", 0.25)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "ktai_upstream_request_duration_seconds")
}

func TestMetrics_DirectoryErrorsAndSessions(t *testing.T) {
	m := New()
	m.RecordDirectoryError()
	m.SetActiveSessions(4)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "ktai_directory_load_errors_total 1")
	assert.Contains(t, body, "ktai_active_sessions 4")
}

func getMetricsBody(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	return strings.TrimSpace(string(body))
}
