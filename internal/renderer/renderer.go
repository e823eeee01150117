// Package renderer turns assembled exam HTML into a PDF. Two backends are
// available: a local headless Chromium and a remote HTML-to-PDF service.
package renderer

import (
    "context"
    "fmt"
    "time"

    "github.com/local/examforge/internal/config"
)

// Job represents one HTML-to-PDF rendering job.
type Job struct {
    JobID      string
    HTML       string
    OutputPath string
    Timeout    time.Duration
}

// Result represents the outcome of a rendering operation.
type Result struct {
    Success    bool
    OutputPath string
    Error      string
    Duration   time.Duration
}

// Renderer is implemented by each PDF backend.
type Renderer interface {
    Name() string
    Render(ctx context.Context, job Job) Result
}

// FromConfig builds the renderer the configuration selects.
func FromConfig(cfg config.RendererConfig) (Renderer, error) {
    switch cfg.Engine {
    case "", "chromium":
        return NewChromium(cfg.ChromiumBin, cfg.Timeout), nil
    case "remote":
        if cfg.RemoteURL == "" {
            return nil, fmt.Errorf("remote renderer selected but RENDER_REMOTE_URL is empty")
        }
        return NewRemote(cfg.RemoteURL, cfg.Timeout), nil
    default:
        return nil, fmt.Errorf("unknown render engine: %s", cfg.Engine)
    }
}
