package metrics

import (
	"strings"
	"testing"
)

func TestRenderExposesRunMetrics(t *testing.T) {
	IncAnalysisStarted()
	IncAnalysisCompleted()
	AddPhotosAnalyzed(3)
	ObserveAnalysisDurationMs(1200)

	out := Render()
	for _, want := range []string{
		"# TYPE analysis_started_total counter",
		"# TYPE analysis_completed_total counter",
		"# TYPE analysis_failed_total counter",
		"# TYPE analysis_photos_total counter",
		"# TYPE analysis_duration_ms histogram",
		"analysis_duration_ms_count",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestAddPhotosAnalyzedIgnoresNonPositive(t *testing.T) {
	before := analysisPhotosTotal.Load()
	AddPhotosAnalyzed(0)
	AddPhotosAnalyzed(-5)
	if got := analysisPhotosTotal.Load(); got != before {
		t.Fatalf("photos total changed from %d to %d", before, got)
	}
}

func TestObserveNegativeDurationClampedToZero(t *testing.T) {
	before := analysisDuration.Snapshot()
	ObserveAnalysisDurationMs(-10)
	after := analysisDuration.Snapshot()
	if after.count != before.count+1 {
		t.Fatalf("count = %d, want %d", after.count, before.count+1)
	}
	if after.sum != before.sum {
		t.Fatalf("sum = %v, want unchanged %v", after.sum, before.sum)
	}
}
