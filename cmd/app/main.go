package main

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/examforge/internal/config"
    "github.com/local/examforge/internal/dispatcher"
    "github.com/local/examforge/internal/filetype"
    "github.com/local/examforge/internal/limiter"
    logpkg "github.com/local/examforge/internal/logger"
    "github.com/local/examforge/internal/metrics"
    "github.com/local/examforge/internal/mupdf"
    "github.com/local/examforge/internal/orchestrator"
    "github.com/local/examforge/internal/queue"
    "github.com/local/examforge/internal/renderer"
    "github.com/local/examforge/internal/statuscheck"
    "github.com/local/examforge/internal/storage"
    "github.com/local/examforge/internal/store"
    web "github.com/local/examforge/internal/web"
)

func main() {
    _ = godotenv.Load()
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level:        cfg.Logging.Level,
        Pretty:       cfg.Logging.Pretty,
        File:         cfg.Logging.File,
        MaxSizeMB:    cfg.Logging.MaxSizeMB,
        MaxBackups:   cfg.Logging.MaxBackups,
        MaxAgeDays:   cfg.Logging.MaxAgeDays,
        Compress:     cfg.Logging.Compress,
        SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey:  cfg.Axiom.APIKey,
        AxiomOrgID:   cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush:   cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()

    // Queue
    rq, err := queue.NewRedisQueue(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.Group, cfg.Queue.PollInterval)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to connect to redis")
    }
    defer rq.Close()

    // Status store
    rs, err := store.NewRedisStatus(cfg.Queue.RedisURL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init redis status store")
    }
    defer rs.Close()

    // Per-page item store
    items, err := store.NewItemStore(cfg.Queue.RedisURL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init item store")
    }
    defer items.Close()

    // PDF renderer
    rend, err := renderer.FromConfig(cfg.Renderer)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init renderer")
    }
    if ch, ok := rend.(*renderer.Chromium); ok {
        if err := ch.CheckInstallation(); err != nil {
            log.Warn().Err(err).Msg("chromium not available; rendering will fail until installed")
        }
    }

    // Artifact storage (optional)
    var s3c *storage.S3Client
    if cfg.Storage.S3Bucket != "" {
        s3c, err = storage.NewS3Client(context.Background(), cfg.Storage.S3Bucket)
        if err != nil {
            log.Warn().Err(err).Msg("s3 unavailable; artifacts stay local")
            s3c = nil
        }
    }

    orch := orchestrator.New(cfg, orchestrator.Dependencies{
        Queue:    rq,
        Status:   orchestrator.NewStatusAdapter(rs),
        Items:    items,
        Renderer: rend,
        Detector: filetype.New(),
        Text:     mupdf.New(),
        Storage:  s3c,
    })
    mux := http.NewServeMux()
    orch.RegisterRoutes(mux)
    mux.Handle("/metrics", metrics.Handler())

    // Dependency status for the dashboard
    checker := statuscheck.New(statuscheck.Options{
        Redis:        redisPinger{rs},
        S3Bucket:     cfg.Storage.S3Bucket,
        ChromiumBin:  cfg.Renderer.ChromiumBin,
        OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
        AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
        GeminiKey:    os.Getenv("GEMINI_API_KEY"),
    })
    mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(checker.Summary(r.Context()))
    })

    // Dashboard
    dash := web.New()
    dash.RegisterRoutes(mux)

    // Extraction workers (optional)
    runDispatcher := os.Getenv("RUN_DISPATCHER")
    if runDispatcher == "" || runDispatcher == "1" || runDispatcher == "true" {
        slots, err := limiter.New(limiter.Options{
            RedisURL:    cfg.Queue.RedisURL,
            MaxInflight: cfg.Worker.MaxInflightPerModel,
            BaseBackoff: cfg.Worker.BreakerBaseBackoff,
            MaxBackoff:  cfg.Worker.BreakerMaxBackoff,
        })
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init inflight limiter")
        }
        defer slots.CloseClient()
        breaker := dispatcher.NewCircuitBreaker(rs.Client(), cfg.Worker.BreakerBaseBackoff, cfg.Worker.BreakerMaxBackoff)
        disp := dispatcher.New(dispatcher.Config{Concurrency: cfg.Worker.Concurrency}, rq, cfg, breaker, slots)
        disp.Start()
        defer disp.Stop(context.Background())
    }

    // Queue depth gauges for the /metrics endpoint
    go func() {
        t := time.NewTicker(15 * time.Second)
        defer t.Stop()
        for range t.C {
            if stream, delayed, dlq, err := rq.Depths(context.Background()); err == nil {
                metrics.SetQueueDepth("stream", stream)
                metrics.SetQueueDepth("delayed", delayed)
                metrics.SetQueueDepth("dlq", dlq)
            }
        }
    }()

    port := os.Getenv("PORT")
    if port == "" {
        port = "8080"
    }
    srv := &http.Server{Addr: ":" + port, Handler: mux}

    go func() {
        log.Info().Msgf("HTTP server listening on :%s", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(ctx)
    fmt.Println("shutdown complete")
}

// redisPinger adapts the status store client to the statuscheck interface.
type redisPinger struct{ rs *store.RedisStatus }

func (p redisPinger) Ping(ctx context.Context) error {
    return p.rs.Client().Ping(ctx).Err()
}
