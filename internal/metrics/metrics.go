package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    providerReqs = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "examforge",
            Name:      "provider_requests_total",
            Help:      "Total extraction requests by provider, model and result",
        },
        []string{"provider", "model", "result"},
    )

    providerLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "examforge",
            Name:      "provider_request_duration_seconds",
            Help:      "Duration of extraction requests by provider and model",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"provider", "model"},
    )

    pagesProcessed = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "examforge",
            Name:      "pages_processed_total",
            Help:      "Total source pages processed by result (success, dlq)",
        },
        []string{"result"},
    )

    retriesTotal = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "examforge",
            Name:      "retries_total",
            Help:      "Total number of page retries",
        },
    )

    questionsExtracted = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "examforge",
            Name:      "questions_extracted_total",
            Help:      "Total questions extracted from source pages",
        },
    )

    documentsRendered = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "examforge",
            Name:      "documents_rendered_total",
            Help:      "Rendered exam documents by engine and result",
        },
        []string{"engine", "result"},
    )

    tierSelections = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "examforge",
            Name:      "layout_tier_selections_total",
            Help:      "Density tier chosen per assembled document",
        },
        []string{"tier"},
    )

    breakerEvents = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "examforge",
            Name:      "breaker_events_total",
            Help:      "Circuit breaker events by provider, model and action",
        },
        []string{"provider", "model", "action"},
    )

    queueDepth = prometheus.NewGaugeVec(
        prometheus.GaugeOpts{
            Namespace: "examforge",
            Name:      "queue_depth",
            Help:      "Queue depth gauges for stream, delayed and dlq",
        },
        []string{"type"},
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(providerReqs, providerLatency, pagesProcessed, retriesTotal, questionsExtracted, documentsRendered, tierSelections, breakerEvents, queueDepth)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveProvider(provider, model, result string, dur time.Duration) {
    providerReqs.WithLabelValues(provider, model, result).Inc()
    providerLatency.WithLabelValues(provider, model).Observe(dur.Seconds())
}

func IncProcessed(result string) { pagesProcessed.WithLabelValues(result).Inc() }
func IncRetry()                  { retriesTotal.Inc() }

func AddQuestions(n int) { questionsExtracted.Add(float64(n)) }

func IncRendered(engine, result string) { documentsRendered.WithLabelValues(engine, result).Inc() }

func IncTier(tier string) { tierSelections.WithLabelValues(tier).Inc() }

func BreakerOpened(provider, model string) {
    breakerEvents.WithLabelValues(provider, model, "opened").Inc()
}
func BreakerClosed(provider, model string) {
    breakerEvents.WithLabelValues(provider, model, "closed").Inc()
}

func SetQueueDepth(kind string, v int64) { queueDepth.WithLabelValues(kind).Set(float64(v)) }

// IncRefusal tracks content refusal events by provider and model
func IncRefusal(provider, model string) {
    providerReqs.WithLabelValues(provider, model, "content_refused").Inc()
}
