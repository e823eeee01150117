package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// ProviderModels defines the model pair used per provider.
type ProviderModels struct {
    Primary   string
    Secondary string
}

// ProvidersConfig defines extraction engines and models per provider.
type ProvidersConfig struct {
    PrimaryEngine   string // "openai"|"anthropic"|"gemini"
    SecondaryEngine string
    OpenAI          ProviderModels
    Anthropic       ProviderModels
    Gemini          ProviderModels
}

// WorkerConfig defines extraction worker behavior and limits.
type WorkerConfig struct {
    Concurrency         int
    RequestTimeout      time.Duration
    PageTotalTimeout    time.Duration
    JobTimeout          time.Duration
    MaxInflightPerModel int
    BreakerBaseBackoff  time.Duration
    BreakerMaxBackoff   time.Duration
}

// QueueConfig defines queue connectivity and names.
type QueueConfig struct {
    RedisURL     string
    Stream       string
    Group        string
    PollInterval time.Duration
}

// LayoutConfig carries the tunable layout heuristics. Tier capacities are
// calibrated against the baseline page target; the verbosity cutoff is
// average characters per question.
type LayoutConfig struct {
    SparseMaxItems  int
    NormalMaxItems  int
    CompactMaxItems int
    BaselinePages   int
    VerbosityCutoff float64
    TargetPages     int
    Branding        string
}

// RendererConfig selects and configures the PDF rendering backend.
type RendererConfig struct {
    Engine      string // "chromium"|"remote"
    ChromiumBin string
    RemoteURL   string
    Timeout     time.Duration
}

// StorageConfig defines artifact and source-file storage.
type StorageConfig struct {
    S3Bucket  string
    ResultDir string
    UploadDir string
}

// Config is the top-level configuration.
type Config struct {
    Logging   LoggingConfig
    Axiom     AxiomConfig
    Providers ProvidersConfig
    Worker    WorkerConfig
    Queue     QueueConfig
    Layout    LayoutConfig
    Renderer  RendererConfig
    Storage   StorageConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/examforge.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_examforge",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Providers = ProvidersConfig{
        PrimaryEngine:   getEnv("PRIMARY_ENGINE", "openai"),
        SecondaryEngine: getEnv("SECONDARY_ENGINE", "anthropic"),
        OpenAI: ProviderModels{
            Primary:   getEnv("OPENAI_PRIMARY_MODEL", "gpt-4.1"),
            Secondary: getEnv("OPENAI_SECONDARY_MODEL", "gpt-4o"),
        },
        Anthropic: ProviderModels{
            Primary:   getEnv("ANTHROPIC_PRIMARY_MODEL", "claude-3-5-sonnet-20241022"),
            Secondary: getEnv("ANTHROPIC_SECONDARY_MODEL", "claude-3-haiku-20240307"),
        },
        Gemini: ProviderModels{
            Primary:   getEnv("GEMINI_PRIMARY_MODEL", "gemini-2.5-flash"),
            Secondary: getEnv("GEMINI_SECONDARY_MODEL", "gemini-2.0-flash"),
        },
    }

    cfg.Worker = WorkerConfig{
        Concurrency:         parseInt(getEnv("WORKER_CONCURRENCY", "4"), 4),
        RequestTimeout:      parseDuration(getEnv("REQUEST_TIMEOUT", "60s"), 60*time.Second),
        PageTotalTimeout:    parseDuration(getEnv("PAGE_TOTAL_TIMEOUT", "180s"), 180*time.Second),
        JobTimeout:          parseDuration(getEnv("JOB_TIMEOUT", "15m"), 15*time.Minute),
        MaxInflightPerModel: parseInt(getEnv("MAX_INFLIGHT_PER_MODEL", "2"), 2),
        BreakerBaseBackoff:  parseDuration(getEnv("BREAKER_BASE_BACKOFF", "30s"), 30*time.Second),
        BreakerMaxBackoff:   parseDuration(getEnv("BREAKER_MAX_BACKOFF", "5m"), 5*time.Minute),
    }

    cfg.Queue = QueueConfig{
        RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
        Stream:       getEnv("QUEUE_STREAM", "jobs:extract:pages"),
        Group:        getEnv("QUEUE_GROUP", "workers:extract"),
        PollInterval: parseDuration(getEnv("QUEUE_POLL_INTERVAL", "100ms"), 100*time.Millisecond),
    }

    cfg.Layout = LayoutConfig{
        SparseMaxItems:  parseInt(getEnv("LAYOUT_SPARSE_MAX_ITEMS", "15"), 15),
        NormalMaxItems:  parseInt(getEnv("LAYOUT_NORMAL_MAX_ITEMS", "30"), 30),
        CompactMaxItems: parseInt(getEnv("LAYOUT_COMPACT_MAX_ITEMS", "50"), 50),
        BaselinePages:   parseInt(getEnv("LAYOUT_BASELINE_PAGES", "2"), 2),
        VerbosityCutoff: parseFloat(getEnv("LAYOUT_VERBOSITY_CUTOFF", "50"), 50),
        TargetPages:     parseInt(getEnv("LAYOUT_TARGET_PAGES", "2"), 2),
        Branding:        getEnv("LAYOUT_BRANDING", "ExamForge Question Paper"),
    }

    cfg.Renderer = RendererConfig{
        Engine:      getEnv("RENDER_ENGINE", "chromium"),
        ChromiumBin: getEnv("RENDER_CHROMIUM_BIN", "chromium"),
        RemoteURL:   getEnv("RENDER_REMOTE_URL", ""),
        Timeout:     parseDuration(getEnv("RENDER_TIMEOUT", "90s"), 90*time.Second),
    }

    cfg.Storage = StorageConfig{
        S3Bucket:  getEnv("AWS_S3_BUCKET", ""),
        ResultDir: getEnv("RESULT_DIR", "uploads/results"),
        UploadDir: getEnv("UPLOAD_DIR", "uploads"),
    }

    return cfg
}

func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" {
        return def
    }
    if n, err := strconv.Atoi(s); err == nil {
        return n
    }
    return def
}

func parseFloat(s string, def float64) float64 {
    if s == "" {
        return def
    }
    if f, err := strconv.ParseFloat(s, 64); err == nil {
        return f
    }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" {
        return def
    }
    if d, err := time.ParseDuration(s); err == nil {
        return d
    }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" {
        return "true"
    }
    return "false"
}
