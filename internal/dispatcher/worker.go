package dispatcher

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "os"
    "time"

    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/examforge/internal/config"
    "github.com/local/examforge/internal/exam"
    "github.com/local/examforge/internal/extract"
    "github.com/local/examforge/internal/filetype"
    "github.com/local/examforge/internal/limiter"
    mpkg "github.com/local/examforge/internal/metrics"
    "github.com/local/examforge/internal/pagerender"
)

// Queue is the minimal queue surface workers consume.
type Queue interface {
    DequeuePage(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error)
    Ack(ctx context.Context, msgID string) error
    IsCancelled(ctx context.Context, jobID string) (bool, error)
    AddDLQ(ctx context.Context, payload []byte, reason string) error
    EnqueueDelayed(ctx context.Context, payload []byte, executeAt time.Time) error
    IsIdemDone(ctx context.Context, key string) (bool, error)
    MarkIdemDone(ctx context.Context, key string, ttl time.Duration) error
}

// PageJob is the queue payload for one page-extraction job.
type PageJob struct {
    JobID        string `json:"job_id"`
    PageID       int    `json:"page_id"`
    ContentRef   string `json:"content_ref"` // path to the uploaded source file
    SourceKind   string `json:"source_kind"` // "pdf" or "image"
    PreferEngine string `json:"ai_engine,omitempty"`
    PageText     string `json:"page_text,omitempty"` // born-digital text hint
    Retries      int    `json:"retries,omitempty"`
}

type Config struct {
    Concurrency int
}

// Worker pulls page jobs off the queue, rasterizes the page, runs provider
// failover extraction and reports results back to the orchestrator.
type Worker struct {
    cfg     Config
    q       Queue
    conf    cfgpkg.Config
    clients map[string]extract.Client
    breaker *CircuitBreaker
    slots   *limiter.Adaptive
    stop    chan struct{}
}

func New(cfg Config, q Queue, conf cfgpkg.Config, breaker *CircuitBreaker, slots *limiter.Adaptive) *Worker {
    if cfg.Concurrency <= 0 {
        cfg.Concurrency = 2
    }
    return &Worker{
        cfg:  cfg,
        q:    q,
        conf: conf,
        clients: map[string]extract.Client{
            "openai":    extract.NewOpenAIClient(),
            "anthropic": extract.NewAnthropicClient(),
            "gemini":    extract.NewGeminiClient(),
        },
        breaker: breaker,
        slots:   slots,
        stop:    make(chan struct{}),
    }
}

func (w *Worker) Start() {
    for i := 0; i < w.cfg.Concurrency; i++ {
        go w.loop(i)
    }
}

func (w *Worker) Stop(ctx context.Context) error {
    close(w.stop)
    return nil
}

func (w *Worker) loop(id int) {
    log.Info().Int("worker", id).Msg("extraction worker started")
    port := getenv("PORT", "8080")
    consumer := fmt.Sprintf("worker-%d-%d", os.Getpid(), id)
    for {
        select {
        case <-w.stop:
            log.Info().Int("worker", id).Msg("extraction worker stopped")
            return
        default:
        }

        msgID, data, err := w.q.DequeuePage(context.Background(), consumer, 2*time.Second)
        if err != nil {
            log.Error().Err(err).Msg("queue dequeue error")
            time.Sleep(500 * time.Millisecond)
            continue
        }
        if data == nil {
            continue
        }
        _ = w.q.Ack(context.Background(), msgID)

        var job PageJob
        if err := json.Unmarshal(data, &job); err != nil {
            log.Error().Err(err).Msg("malformed page job payload")
            _ = w.q.AddDLQ(context.Background(), data, "malformed payload")
            continue
        }

        if job.JobID != "" {
            if cancelled, _ := w.q.IsCancelled(context.Background(), job.JobID); cancelled {
                log.Warn().Int("worker", id).Str("job_id", job.JobID).Msg("job cancelled before processing; skipping")
                continue
            }
        }

        // redelivered pages are skipped once a result was reported
        idemKey := fmt.Sprintf("page:%s:%d", job.JobID, job.PageID)
        if done, _ := w.q.IsIdemDone(context.Background(), idemKey); done {
            continue
        }

        overallCtx, cancelOverall := context.WithTimeout(context.Background(), w.conf.Worker.PageTotalTimeout)
        ok, provider, model, items := w.processPage(overallCtx, job)
        cancelOverall()

        if ok {
            mpkg.IncProcessed("success")
            if err := w.reportPageDone(port, job, provider, model, items); err != nil {
                // already ACKed, so a dropped report strands the job at
                // "processing"; requeue the page instead of marking it done
                log.Warn().Err(err).Str("job_id", job.JobID).Int("page_id", job.PageID).
                    Msg("page_done report failed; requeueing page")
                if job.Retries < 1 {
                    job.Retries++
                    mpkg.IncRetry()
                    if b, merr := json.Marshal(job); merr == nil {
                        if w.q.EnqueueDelayed(context.Background(), b, time.Now().Add(30*time.Second)) == nil {
                            continue
                        }
                    }
                }
                _ = w.q.AddDLQ(context.Background(), data, "page_done report failed")
                continue
            }
            _ = w.q.MarkIdemDone(context.Background(), idemKey, 24*time.Hour)
        } else {
            mpkg.IncProcessed("failed")
            if job.Retries < 1 {
                // one delayed retry before giving the page up
                job.Retries++
                mpkg.IncRetry()
                if b, err := json.Marshal(job); err == nil {
                    if err := w.q.EnqueueDelayed(context.Background(), b, time.Now().Add(30*time.Second)); err == nil {
                        log.Warn().Str("job_id", job.JobID).Int("page_id", job.PageID).Msg("page extraction failed; retrying in 30s")
                        continue
                    }
                }
            }
            _ = w.q.AddDLQ(context.Background(), data, "extraction failed")
            url := fmt.Sprintf("http://127.0.0.1:%s/internal/page_failed?job_id=%s&page_id=%d", port, job.JobID, job.PageID)
            _, _ = http.Post(url, "text/plain", nil)
        }
    }
}

// reportPageDone posts the page's extracted items to the orchestrator and
// treats any non-2xx answer as a failed delivery.
func (w *Worker) reportPageDone(port string, job PageJob, provider, model string, items []exam.QuestionItem) error {
    url := fmt.Sprintf("http://127.0.0.1:%s/internal/page_done?job_id=%s&page_id=%d", port, job.JobID, job.PageID)
    body := map[string]any{"items": items, "provider": provider, "model": model}
    b, _ := json.Marshal(body)
    resp, err := http.Post(url, "application/json", bytes.NewReader(b))
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        return fmt.Errorf("page_done returned %d", resp.StatusCode)
    }
    return nil
}

func getenv(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

// processPage rasterizes the source page and runs failover extraction.
func (w *Worker) processPage(ctx context.Context, job PageJob) (bool, string, string, []exam.QuestionItem) {
    opts := pagerender.DefaultOptions()

    var jpegBytes []byte
    var err error
    if job.SourceKind == string(filetype.KindImage) {
        jpegBytes, _, _, err = pagerender.RenderImageFile(job.ContentRef, opts)
    } else {
        jpegBytes, _, _, err = pagerender.RenderPDFPage(job.ContentRef, job.PageID, opts)
    }
    if err != nil {
        log.Error().Err(err).Str("job_id", job.JobID).Int("page_id", job.PageID).Msg("failed to rasterize page")
        return false, "", "", nil
    }

    imageB64 := pagerender.EncodeToBase64(jpegBytes)

    ok, provider, model, items, err := w.processPageWithFailover(ctx, job, imageB64, "image/jpeg")
    if err != nil {
        return false, "", "", nil
    }
    return ok, provider, model, items
}
