package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/secgest/internal/config"
	"github.com/dgallion1/secgest/internal/filing"
	"github.com/dgallion1/secgest/internal/llm"
	"github.com/dgallion1/secgest/internal/parser"
	"github.com/dgallion1/secgest/internal/vectorstore"
)

const testFiling = `<html><body>
<p>REGISTRATION STATEMENT ON FORM S-1</p>
<h1>RISK FACTORS</h1>
<p>Investing in our common stock involves a high degree of risk. You should carefully consider the risks described below.</p>
<p>We have a history of losses and may not achieve or sustain profitability in the future, which could harm our business.</p>
<h1>USE OF PROCEEDS</h1>
<p>We estimate that the net proceeds from this offering will be approximately $85.2 million after deducting underwriting discounts.</p>
</body></html>`

// fakeEmbedder returns a constant vector, failing for texts containing any
// of the configured substrings.
type fakeEmbedder struct {
	mu        sync.Mutex
	calls     int
	failOn    string
	transient int // number of retryable failures before succeeding
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.transient > 0 {
		f.transient--
		return nil, &llm.RetryableError{StatusCode: 429, Message: "slow down"}
	}
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("permanent failure")
	}
	return []float32{1, 0, 0}, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	parsed   int
	embeds   int
	finished []string
}

func (r *recordingObserver) FilingParsed(int, time.Duration) { r.mu.Lock(); r.parsed++; r.mu.Unlock() }
func (r *recordingObserver) EmbedRequest(error)              { r.mu.Lock(); r.embeds++; r.mu.Unlock() }
func (r *recordingObserver) JobFinished(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, s)
}

func newTestWorker(e *fakeEmbedder, s vectorstore.Store, obs Observer) *Worker {
	w := NewWorker(parser.New(nil), e, s, nil, obs, 2)
	w.backoff = func(int) time.Duration { return 0 }
	return w
}

func testJob() *Job {
	return NewJob(filing.RawDocument{Locator: "acme/s-1.htm", FormType: "s-1", Content: []byte(testFiling)}, "ACME")
}

func TestWorker_ProcessCompletes(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	obs := &recordingObserver{}
	w := newTestWorker(&fakeEmbedder{}, store, obs)

	job := testJob()
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected %q, got %q (errors: %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.FilingType != string(filing.TypeS1) {
		t.Errorf("expected filing type S-1, got %q", snap.Progress.FilingType)
	}
	if snap.Progress.TotalChunks == 0 || snap.Progress.ChunksStored != snap.Progress.TotalChunks {
		t.Errorf("expected every chunk stored, got %+v", snap.Progress)
	}
	if store.Len() != snap.Progress.ChunksStored {
		t.Errorf("expected %d records in store, got %d", snap.Progress.ChunksStored, store.Len())
	}
	if len(job.Document().Content) != 0 {
		t.Error("expected raw content to be released after parsing")
	}
	if obs.parsed != 1 || len(obs.finished) != 1 || obs.finished[0] != string(StatusCompleted) {
		t.Errorf("unexpected observer state: %+v", obs)
	}

	matches, err := store.Query(context.Background(), []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if m.FilingID != snap.ContentHash {
			t.Errorf("record %s has filing id %q, want %q", m.ID, m.FilingID, snap.ContentHash)
		}
		if m.Metadata["source"] != "acme/s-1.htm" {
			t.Errorf("record %s missing source metadata: %v", m.ID, m.Metadata)
		}
	}
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	w := newTestWorker(&fakeEmbedder{}, store, nil)

	w.Process(context.Background(), testJob())
	before := store.Len()

	dup := testJob()
	w.Process(context.Background(), dup)
	if dup.Snapshot().Status != StatusDupSkipped {
		t.Errorf("expected %q, got %q", StatusDupSkipped, dup.Snapshot().Status)
	}
	if store.Len() != before {
		t.Errorf("expected store unchanged, had %d now %d", before, store.Len())
	}
}

func TestWorker_RetriesTransientErrors(t *testing.T) {
	emb := &fakeEmbedder{transient: 2}
	w := newTestWorker(emb, vectorstore.NewMemoryStore(), nil)

	job := testJob()
	w.Process(context.Background(), job)
	if job.Snapshot().Status != StatusCompleted {
		t.Errorf("expected transient errors to be retried, got %q: %v", job.Snapshot().Status, job.Snapshot().Progress.Errors)
	}
}

func TestWorker_PartialOnSomeFailures(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	w := newTestWorker(&fakeEmbedder{failOn: "net proceeds"}, store, nil)

	job := testJob()
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected %q, got %q", StatusPartial, snap.Status)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected the failed chunk to be recorded")
	}
	if snap.Progress.ChunksStored >= snap.Progress.TotalChunks {
		t.Errorf("expected fewer stored than total, got %+v", snap.Progress)
	}

	matches, err := store.Query(context.Background(), []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != snap.Progress.ChunksStored {
		t.Errorf("expected %d stored records, got %d", snap.Progress.ChunksStored, len(matches))
	}
	for _, m := range matches {
		if strings.Contains(m.Text, "net proceeds") {
			t.Errorf("failed chunk was stored: %q", m.Text)
		}
		if !strings.HasPrefix(m.ID, snap.ContentHash+"-") {
			t.Errorf("record id %q not derived from filing hash %q", m.ID, snap.ContentHash)
		}
	}
}

func TestWorker_FailsWhenNothingEmbeds(t *testing.T) {
	w := newTestWorker(&fakeEmbedder{failOn: " "}, vectorstore.NewMemoryStore(), nil)

	job := testJob()
	w.Process(context.Background(), job)
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected %q, got %q", StatusFailed, job.Snapshot().Status)
	}
}

func TestWorker_UndecodableInputFails(t *testing.T) {
	w := newTestWorker(&fakeEmbedder{}, vectorstore.NewMemoryStore(), nil)

	job := NewJob(filing.RawDocument{Locator: "bad.htm", Content: []byte{0x00, 0x01, 0x02, 0x81}}, "")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parsing" {
		t.Errorf("expected failure in parsing, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestOrchestrator_SubmitAndWait(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestWorker(&fakeEmbedder{}, vectorstore.NewMemoryStore(), nil), discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := testJob()
	if err := o.Submit(job); err != nil {
		t.Fatal(err)
	}
	select {
	case <-job.Wait():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}
	if got := o.GetJob(job.ID); got == nil || got.Snapshot().Status != StatusCompleted {
		t.Errorf("expected completed job to be retrievable")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 0, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestWorker(&fakeEmbedder{}, vectorstore.NewMemoryStore(), nil), discardLogger())

	if err := o.Submit(testJob()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	overflow := testJob()
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue full error")
	}
	if overflow.Snapshot().Status != StatusFailed {
		t.Errorf("expected overflow job to fail, got %q", overflow.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
