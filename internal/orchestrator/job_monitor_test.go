package orchestrator

import (
    "context"
    "sync"
    "testing"
    "time"

    cfgpkg "github.com/local/examforge/internal/config"
    "github.com/local/examforge/internal/exam"
    "github.com/local/examforge/internal/renderer"
)

type fakeQueue struct {
    mu        sync.Mutex
    cancelled map[string]bool
}

func newFakeQueue() *fakeQueue { return &fakeQueue{cancelled: map[string]bool{}} }

func (q *fakeQueue) EnqueuePage(ctx context.Context, payload []byte) error { return nil }

func (q *fakeQueue) CancelJob(ctx context.Context, jobID string) error {
    q.mu.Lock()
    defer q.mu.Unlock()
    q.cancelled[jobID] = true
    return nil
}

func (q *fakeQueue) IsCancelled(ctx context.Context, jobID string) (bool, error) {
    q.mu.Lock()
    defer q.mu.Unlock()
    return q.cancelled[jobID], nil
}

type fakeStatus struct {
    mu   sync.Mutex
    jobs map[string]Status
}

func newFakeStatus() *fakeStatus { return &fakeStatus{jobs: map[string]Status{}} }

func (s *fakeStatus) Set(ctx context.Context, jobID string, st Status) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.jobs[jobID] = st
    return nil
}

func (s *fakeStatus) Get(ctx context.Context, jobID string) (Status, bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    st, ok := s.jobs[jobID]
    return st, ok, nil
}

func (s *fakeStatus) MapFile(ctx context.Context, fileID, jobID string) error { return nil }

func (s *fakeStatus) JobByFile(ctx context.Context, fileID string) (string, error) {
    return "", nil
}

type fakeItems struct {
    items []exam.QuestionItem
}

func (f *fakeItems) SavePageItems(ctx context.Context, jobID string, page int, items []exam.QuestionItem, provider, model string) error {
    return nil
}

func (f *fakeItems) AggregateItems(ctx context.Context, jobID string, total int) ([]exam.QuestionItem, error) {
    return f.items, nil
}

func (f *fakeItems) DeleteJobPages(ctx context.Context, jobID string, total int) error {
    return nil
}

type fakeRenderer struct{}

func (fakeRenderer) Name() string { return "fake" }

func (fakeRenderer) Render(ctx context.Context, job renderer.Job) renderer.Result {
    return renderer.Result{Success: true, OutputPath: job.OutputPath}
}

func monitorFixture(t *testing.T, items []exam.QuestionItem) (*Orchestrator, *fakeQueue, *fakeStatus) {
    t.Helper()
    q := newFakeQueue()
    st := newFakeStatus()
    cfg := cfgpkg.Config{}
    cfg.Storage.ResultDir = t.TempDir()
    cfg.Storage.UploadDir = t.TempDir()
    o := New(cfg, Dependencies{
        Queue:    q,
        Status:   st,
        Items:    &fakeItems{items: items},
        Renderer: fakeRenderer{},
    })
    return o, q, st
}

func questionFixtures(n int) []exam.QuestionItem {
    items := make([]exam.QuestionItem, 0, n)
    for i := 0; i < n; i++ {
        items = append(items, exam.QuestionItem{
            Text:    "What is the capital of France?",
            Options: []exam.Option{{Label: "A", Text: "Paris"}, {Label: "B", Text: "Lyon"}},
        })
    }
    return items
}

func TestWatchJob_FinalizesWhenCountersComplete(t *testing.T) {
    o, q, st := monitorFixture(t, questionFixtures(3))
    _ = st.Set(context.Background(), "job-1", Status{
        Status: "processing",
        Metadata: map[string]any{
            "total_pages": 2, "pages_done": 2, "pages_failed": 0, "target_pages": 2,
        },
    })

    o.watchJob("job-1", 2, 5*time.Second, 5*time.Millisecond)

    got, _, _ := st.Get(context.Background(), "job-1")
    if got.Status != "success" {
        t.Fatalf("status = %q, want success", got.Status)
    }
    if q.cancelled["job-1"] {
        t.Error("completed job must not be cancelled")
    }
}

func TestWatchJob_DeadlineFinalizesPartial(t *testing.T) {
    o, q, st := monitorFixture(t, questionFixtures(1))
    _ = st.Set(context.Background(), "job-2", Status{
        Status: "processing",
        Metadata: map[string]any{
            "total_pages": 3, "pages_done": 1, "pages_failed": 0, "target_pages": 2,
        },
    })

    // Pages 2 and 3 never report back; the deadline must still produce
    // a paper from the one page that did.
    o.watchJob("job-2", 3, 50*time.Millisecond, 5*time.Millisecond)

    if !q.cancelled["job-2"] {
        t.Error("deadline must cancel the job's remaining pages")
    }
    got, _, _ := st.Get(context.Background(), "job-2")
    if got.Status != "success" {
        t.Fatalf("status = %q, want success from partial results", got.Status)
    }
    if n, _ := got.Metadata["question_count"].(int); n != 1 {
        t.Errorf("question_count = %v, want 1", got.Metadata["question_count"])
    }
}

func TestWatchJob_DeadlineWithNothingExtractedFails(t *testing.T) {
    o, _, st := monitorFixture(t, nil)
    _ = st.Set(context.Background(), "job-3", Status{
        Status:   "processing",
        Metadata: map[string]any{"total_pages": 2, "pages_done": 0, "pages_failed": 0},
    })

    o.watchJob("job-3", 2, 50*time.Millisecond, 5*time.Millisecond)

    got, _, _ := st.Get(context.Background(), "job-3")
    if got.Status != "failed" {
        t.Fatalf("status = %q, want failed when no page produced questions", got.Status)
    }
}

func TestWatchJob_StopsOnCancel(t *testing.T) {
    o, q, st := monitorFixture(t, questionFixtures(2))
    _ = st.Set(context.Background(), "job-4", Status{
        Status:   "processing",
        Metadata: map[string]any{"total_pages": 2, "pages_done": 0, "pages_failed": 0},
    })
    _ = q.CancelJob(context.Background(), "job-4")

    done := make(chan struct{})
    go func() {
        o.watchJob("job-4", 2, time.Minute, 5*time.Millisecond)
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(2 * time.Second):
        t.Fatal("monitor did not stop after cancellation")
    }

    got, _, _ := st.Get(context.Background(), "job-4")
    if got.Status != "processing" {
        t.Errorf("cancel path must leave finalization to the cancel handler, got %q", got.Status)
    }
}
