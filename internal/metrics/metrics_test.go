package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveChat(OutcomeAnswered)
	m.ObserveChat(OutcomeAnswered)
	m.ObserveChat(OutcomeBlocked)
	m.ObserveFetch("miss", 7)
	m.ObserveInjected(3)
	m.ObserveAppend()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.chatRequests.WithLabelValues(OutcomeAnswered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatRequests.WithLabelValues(OutcomeBlocked)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.cachedFacts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.factsAppended))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveChat(OutcomeAnswered)
	m.ObserveFetch("hit", 1)
	m.ObserveInjected(1)
	m.ObserveAppend()
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveChat(OutcomeGeneratorError)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `dhammi_chat_requests_total{outcome="generator_error"} 1`))
}
