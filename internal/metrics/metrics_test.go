package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.SectionsFound("headings", 3)
	m.SectionsFound("headings", 2)
	m.SectionsFound("emphasis", 0)
	m.JobFinished("completed")
	m.JobFinished("failed")
	m.JobFinished("completed")
	m.EmbedRequest(nil)
	m.EmbedRequest(errors.New("rate limited"))

	if got := testutil.ToFloat64(m.sections.WithLabelValues("headings")); got != 5 {
		t.Errorf("expected 5 heading sections, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobs.WithLabelValues("completed")); got != 2 {
		t.Errorf("expected 2 completed jobs, got %v", got)
	}
	if got := testutil.ToFloat64(m.embedRequests.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed embed, got %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.FilingParsed(42, 250*time.Millisecond)
	m.Answered(nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"secgest_chunks_per_filing_count 1",
		"secgest_parse_duration_seconds_count 1",
		`secgest_answers_total{outcome="ok"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in exposition", want)
		}
	}
}
