package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveAssignment(t *testing.T) {
	m := metricsSingleton()
	before := testutil.ToFloat64(m.assignments.WithLabelValues("team", "skipped"))
	ObserveAssignment("team", 3, 2)
	require.Equal(t, before+2, testutil.ToFloat64(m.assignments.WithLabelValues("team", "skipped")))
}

func TestObserveRequest_UnmatchedRoute(t *testing.T) {
	m := metricsSingleton()
	before := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404"))
	ObserveRequest("GET", "", 404, time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")))
}
