package renderer

import (
    "context"
    "fmt"
    "os"
    "os/exec"
    "path/filepath"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"
)

// Chromium renders HTML to PDF with a local headless Chromium binary.
type Chromium struct {
    bin     string
    timeout time.Duration
}

func NewChromium(bin string, timeout time.Duration) *Chromium {
    if bin == "" {
        bin = "chromium"
    }
    if timeout <= 0 {
        timeout = 90 * time.Second
    }
    return &Chromium{bin: bin, timeout: timeout}
}

func (c *Chromium) Name() string { return "chromium" }

// CheckInstallation verifies the browser binary is available.
func (c *Chromium) CheckInstallation() error {
    cmd := exec.Command(c.bin, "--version")
    output, err := cmd.Output()
    if err != nil {
        return fmt.Errorf("%s not found in PATH: %w", c.bin, err)
    }
    log.Info().Str("version", strings.TrimSpace(string(output))).Msg("chromium found")
    return nil
}

// Render writes the HTML to a temp file and runs a one-shot headless print.
func (c *Chromium) Render(ctx context.Context, job Job) Result {
    startTime := time.Now()

    log.Info().Str("job_id", job.JobID).Str("output", job.OutputPath).Msg("starting chromium render")

    workDir := filepath.Join(os.TempDir(), fmt.Sprintf("examforge_render_%s", uuid.New().String()))
    if err := os.MkdirAll(workDir, 0755); err != nil {
        return Result{
            Success:  false,
            Error:    fmt.Sprintf("failed to create work directory: %v", err),
            Duration: time.Since(startTime),
        }
    }
    defer os.RemoveAll(workDir)

    htmlPath := filepath.Join(workDir, "exam.html")
    if err := os.WriteFile(htmlPath, []byte(job.HTML), 0644); err != nil {
        return Result{
            Success:  false,
            Error:    fmt.Sprintf("failed to write HTML: %v", err),
            Duration: time.Since(startTime),
        }
    }

    if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0755); err != nil {
        return Result{
            Success:  false,
            Error:    fmt.Sprintf("failed to create output directory: %v", err),
            Duration: time.Since(startTime),
        }
    }

    timeout := job.Timeout
    if timeout <= 0 {
        timeout = c.timeout
    }
    cctx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()

    // --no-pdf-header-footer keeps browser chrome off the printed page;
    // --virtual-time-budget lets MathJax finish typesetting before print.
    cmd := exec.CommandContext(cctx, c.bin,
        "--headless",
        "--disable-gpu",
        "--no-sandbox",
        fmt.Sprintf("--user-data-dir=%s", filepath.Join(workDir, "profile")),
        "--no-pdf-header-footer",
        "--virtual-time-budget=10000",
        fmt.Sprintf("--print-to-pdf=%s", job.OutputPath),
        "file://"+htmlPath,
    )

    log.Debug().Str("cmd", strings.Join(cmd.Args, " ")).Msg("chromium command")

    if err := cmd.Run(); err != nil {
        if cctx.Err() == context.DeadlineExceeded {
            return Result{
                Success:  false,
                Error:    fmt.Sprintf("render timeout after %v", timeout),
                Duration: time.Since(startTime),
            }
        }
        return Result{
            Success:  false,
            Error:    fmt.Sprintf("render failed: %v", err),
            Duration: time.Since(startTime),
        }
    }

    if info, err := os.Stat(job.OutputPath); err != nil || info.Size() == 0 {
        return Result{
            Success:  false,
            Error:    "output PDF not created",
            Duration: time.Since(startTime),
        }
    }

    log.Info().Str("output", job.OutputPath).Dur("duration", time.Since(startTime)).Msg("render successful")

    return Result{
        Success:    true,
        OutputPath: job.OutputPath,
        Duration:   time.Since(startTime),
    }
}
