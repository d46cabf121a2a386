package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 || snap.sum != 555 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	var buf bytes.Buffer
	writeHistogram(&buf, "x", "test", snap)
	out := buf.String()
	for _, want := range []string{
		`x_bucket{le="10"} 1`,
		`x_bucket{le="100"} 2`,
		`x_bucket{le="+Inf"} 3`,
		`x_sum 555`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderIncludesJobCounters(t *testing.T) {
	IncJobsReceived()
	IncJobsDuplicate()
	out := Render()
	for _, name := range []string{"jobs_received_total", "jobs_duplicate_total", "jobs_aborted_total", "job_duration_ms_count"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}
