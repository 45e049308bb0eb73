package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(checks.WithLabelValues("blocked"))
	IncCheck(false)
	if got := testutil.ToFloat64(checks.WithLabelValues("blocked")); got != before+1 {
		t.Errorf("blocked checks = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(httpRequests.WithLabelValues("GET", "200"))
	ObserveHTTP("GET", 200, 15*time.Millisecond)
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "200")); got != before+1 {
		t.Errorf("http requests = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(conflicts.WithLabelValues("capacity-exceeded", "ERROR"))
	IncConflict("capacity-exceeded", "ERROR")
	IncConflict("capacity-exceeded", "ERROR")
	if got := testutil.ToFloat64(conflicts.WithLabelValues("capacity-exceeded", "ERROR")); got != before+2 {
		t.Errorf("conflicts = %v, want %v", got, before+2)
	}
}
