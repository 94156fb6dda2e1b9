package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUnitCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(unitsFailed.WithLabelValues("story", FailurePermanent))
	IncUnitFailed("story", true)
	IncUnitFailed("story", false)

	if got := testutil.ToFloat64(unitsFailed.WithLabelValues("story", FailurePermanent)); got != before+1 {
		t.Fatalf("expected %v got %v", before+1, got)
	}

	IncUnitPublished("feed")
	if got := testutil.ToFloat64(unitsPublished.WithLabelValues("feed")); got < 1 {
		t.Fatalf("expected published counter incremented got %v", got)
	}
}

func TestSetTokenStatusCountsReplacesGauge(t *testing.T) {
	SetTokenStatusCounts(map[string]int{"valid": 3, "expired": 1})
	SetTokenStatusCounts(map[string]int{"valid": 2})

	if got := testutil.ToFloat64(pageTokenStatus.WithLabelValues("valid")); got != 2 {
		t.Fatalf("expected 2 got %v", got)
	}
	if got := testutil.CollectAndCount(pageTokenStatus); got != 1 {
		t.Fatalf("expected stale statuses dropped got %d series", got)
	}
}
