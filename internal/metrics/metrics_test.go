package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSubmission(OutcomeSuccess)
	c.RecordSubmission(OutcomeSuccess)
	c.RecordSubmission(OutcomeUploadFailed)
	c.RecordUpload(OutcomeSuccess, 30*time.Millisecond)
	c.RecordProfileLookup(OutcomeNotFound)
	c.RecordSessionEvent("signed_in")
	c.RecordHTTPRequest(http.MethodGet, http.StatusOK, time.Millisecond)
	c.RecordFeedAssembly(5*time.Millisecond, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.submissions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.submissions.WithLabelValues(OutcomeUploadFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.uploads.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.profileLookups.WithLabelValues(OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionEvents.WithLabelValues("signed_in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "200")))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSubmission(OutcomeSuccess)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `theoryboard_submissions_total{outcome="success"} 1`)
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordSubmission(OutcomeSuccess)
	r.RecordFeedAssembly(time.Second, 0)
}
