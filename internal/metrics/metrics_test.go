package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHours(t *testing.T) {
	before := testutil.ToFloat64(hoursRecorded.WithLabelValues("manual"))

	RecordHours("manual", 1.5)
	RecordHours("manual", 0) // ignored

	assert.InDelta(t, before+1.5, testutil.ToFloat64(hoursRecorded.WithLabelValues("manual")), 1e-9)
}

func TestRecordLedgerOp(t *testing.T) {
	before := testutil.ToFloat64(ledgerOps.WithLabelValues("check_in", "conflict"))
	RecordLedgerOp("check_in", "conflict")
	assert.Equal(t, before+1, testutil.ToFloat64(ledgerOps.WithLabelValues("check_in", "conflict")))
}

func TestInFlight(t *testing.T) {
	before := testutil.ToFloat64(httpInFlight)
	IncrementInFlight()
	assert.Equal(t, before+1, testutil.ToFloat64(httpInFlight))
	DecrementInFlight()
	assert.Equal(t, before, testutil.ToFloat64(httpInFlight))
}

func TestHandler(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/hours/me", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `volhours_http_requests_total{method="GET",path="/api/hours/me",status="200"}`)
	assert.Contains(t, string(body), "volhours_http_request_duration_seconds_bucket")
}
