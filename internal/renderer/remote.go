package renderer

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "os"
    "path/filepath"
    "time"

    "github.com/rs/zerolog/log"
)

// Remote renders HTML through an external HTML-to-PDF HTTP service.
// The service accepts {"html": "...", "format": "A4"} and answers with the
// PDF bytes.
type Remote struct {
    url     string
    timeout time.Duration
    client  *http.Client
}

func NewRemote(url string, timeout time.Duration) *Remote {
    if timeout <= 0 {
        timeout = 90 * time.Second
    }
    return &Remote{
        url:     url,
        timeout: timeout,
        client:  &http.Client{Timeout: timeout},
    }
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Render(ctx context.Context, job Job) Result {
    startTime := time.Now()

    log.Info().Str("job_id", job.JobID).Str("url", r.url).Msg("starting remote render")

    timeout := job.Timeout
    if timeout <= 0 {
        timeout = r.timeout
    }
    cctx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()

    payload := map[string]any{"html": job.HTML, "format": "A4"}
    body, _ := json.Marshal(payload)

    req, err := http.NewRequestWithContext(cctx, http.MethodPost, r.url, bytes.NewReader(body))
    if err != nil {
        return Result{Success: false, Error: fmt.Sprintf("build request: %v", err), Duration: time.Since(startTime)}
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("Accept", "application/pdf")

    resp, err := r.client.Do(req)
    if err != nil {
        return Result{Success: false, Error: fmt.Sprintf("remote render request failed: %v", err), Duration: time.Since(startTime)}
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
        return Result{
            Success:  false,
            Error:    fmt.Sprintf("remote render HTTP %d: %s", resp.StatusCode, string(b)),
            Duration: time.Since(startTime),
        }
    }

    if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0755); err != nil {
        return Result{Success: false, Error: fmt.Sprintf("failed to create output directory: %v", err), Duration: time.Since(startTime)}
    }

    out, err := os.Create(job.OutputPath)
    if err != nil {
        return Result{Success: false, Error: fmt.Sprintf("create output: %v", err), Duration: time.Since(startTime)}
    }
    defer out.Close()

    n, err := io.Copy(out, resp.Body)
    if err != nil {
        return Result{Success: false, Error: fmt.Sprintf("write output: %v", err), Duration: time.Since(startTime)}
    }
    if n == 0 {
        return Result{Success: false, Error: "remote service returned empty PDF", Duration: time.Since(startTime)}
    }

    log.Info().Str("output", job.OutputPath).Int64("bytes", n).Dur("duration", time.Since(startTime)).Msg("remote render successful")

    return Result{
        Success:    true,
        OutputPath: job.OutputPath,
        Duration:   time.Since(startTime),
    }
}
