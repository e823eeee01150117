package dispatcher

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/examforge/internal/exam"
    "github.com/local/examforge/internal/extract"
    mpkg "github.com/local/examforge/internal/metrics"
)

// processPageWithFailover implements 4-step failover with circuit breaker:
// primary provider primary model, primary provider secondary model, then the
// same two steps on the secondary provider.
func (w *Worker) processPageWithFailover(ctx context.Context, job PageJob, imageB64, imageMIME string) (bool, string, string, []exam.QuestionItem, error) {
    // Determine providers
    primaryProv := w.conf.Providers.PrimaryEngine
    secondaryProv := w.conf.Providers.SecondaryEngine
    if job.PreferEngine != "" {
        primaryProv = job.PreferEngine
        if secondaryProv == primaryProv {
            secondaryProv = w.conf.Providers.PrimaryEngine
        }
    }

    getModel := func(provider, tier string) string {
        var models cfgModels
        switch provider {
        case "openai":
            models = cfgModels{w.conf.Providers.OpenAI.Primary, w.conf.Providers.OpenAI.Secondary}
        case "anthropic":
            models = cfgModels{w.conf.Providers.Anthropic.Primary, w.conf.Providers.Anthropic.Secondary}
        case "gemini":
            models = cfgModels{w.conf.Providers.Gemini.Primary, w.conf.Providers.Gemini.Secondary}
        default:
            return ""
        }
        if tier == "secondary" {
            return models.secondary
        }
        return models.primary
    }

    callProvider := func(provider, model string) (extract.Response, error) {
        client, ok := w.clients[provider]
        if !ok {
            return extract.Response{}, fmt.Errorf("unknown provider: %s", provider)
        }

        release, allowed := w.slots.Allow(provider, model)
        if !allowed {
            return extract.Response{}, &RateLimitError{Provider: provider, Model: model, Reason: "inflight limit"}
        }
        defer release()

        timeout := w.conf.Worker.RequestTimeout

        req := extract.Request{
            JobID:       job.JobID,
            PageID:      job.PageID,
            Model:       model,
            Timeout:     timeout,
            ImageBase64: imageB64,
            ImageMIME:   imageMIME,
            PageText:    job.PageText,
        }

        // Fresh context per attempt so a cancelled previous attempt cannot
        // poison this one.
        cctx, cancel := context.WithTimeout(context.Background(), timeout)
        defer cancel()

        start := time.Now()
        resp, err := client.Do(cctx, req)
        dur := time.Since(start)

        if err != nil && cctx.Err() == context.DeadlineExceeded {
            mpkg.ObserveProvider(provider, model, "timeout", dur)
            log.Warn().
                Str("job_id", job.JobID).
                Int("page_id", job.PageID).
                Str("provider", provider).
                Str("model", model).
                Dur("duration", dur).
                Msg("extraction request timeout - will trigger failover")
            return extract.Response{}, &RateLimitError{Provider: provider, Model: model, Reason: "timeout"}
        }

        result := "success"
        if err != nil {
            switch {
            case extract.IsRateLimited(err):
                result = "rate_limited"
            case extract.IsContentRefused(err):
                result = "content_refused"
            case isTransientError(err):
                result = "transient"
            case isFatalError(err):
                result = "fatal"
            default:
                result = "unknown"
            }
        }

        mpkg.ObserveProvider(provider, model, result, dur)

        if err != nil {
            log.Warn().
                Str("job_id", job.JobID).
                Int("page_id", job.PageID).
                Str("provider", provider).
                Str("model", model).
                Dur("duration", dur).
                Str("result", result).
                Err(err).
                Msg("extraction provider call failed")
        } else {
            log.Debug().
                Str("job_id", job.JobID).
                Int("page_id", job.PageID).
                Str("provider", provider).
                Str("model", model).
                Dur("duration", dur).
                Int("questions", len(resp.Items)).
                Int("tokens_in", resp.TokensIn).
                Int("tokens_out", resp.TokensOut).
                Msg("extraction provider call success")
        }

        return resp, err
    }

    attempts := []struct {
        provider string
        tier     string
    }{
        {primaryProv, "primary"},
        {primaryProv, "secondary"},
        {secondaryProv, "primary"},
        {secondaryProv, "secondary"},
    }

    var lastErr error
    tried := map[string]bool{}

    for i, att := range attempts {
        model := getModel(att.provider, att.tier)
        if model == "" {
            continue
        }
        key := att.provider + ":" + model
        if tried[key] {
            continue
        }
        tried[key] = true

        if w.breaker.IsCircuitOpen(ctx, att.provider, model) {
            log.Debug().
                Str("provider", att.provider).
                Str("model", model).
                Msg("circuit breaker OPEN - skipping attempt")
            continue
        }
        if w.slots.IsOpen(ctx, att.provider, model) {
            log.Debug().
                Str("provider", att.provider).
                Str("model", model).
                Msg("rate limit cooldown active - skipping attempt")
            continue
        }

        log.Info().
            Str("job_id", job.JobID).
            Int("page_id", job.PageID).
            Str("provider", att.provider).
            Str("model", model).
            Msgf("attempting page extraction [%d/%d]", i+1, len(attempts))

        resp, err := callProvider(att.provider, model)
        if err == nil {
            w.breaker.CloseCircuitBreaker(ctx, att.provider, model)
            w.slots.Close(ctx, att.provider, model)
            mpkg.BreakerClosed(att.provider, model)
            return true, att.provider, model, resp.Items, nil
        }

        if isFatalError(err) {
            log.Error().
                Err(err).
                Str("job_id", job.JobID).
                Int("page_id", job.PageID).
                Str("provider", att.provider).
                Str("model", model).
                Msg("fatal error - no retry")
            return false, "", "", nil, err
        }

        if extract.IsContentRefused(err) {
            mpkg.IncRefusal(att.provider, model)
        }
        var rle *RateLimitError
        if extract.IsRateLimited(err) || errors.As(err, &rle) {
            // providers that throttled us get a dedicated cooldown with
            // exponential backoff, separate from the failure breaker
            w.slots.Open(ctx, att.provider, model)
        }
        if isTransientError(err) {
            w.breaker.OpenCircuitBreaker(ctx, att.provider, model)
            mpkg.BreakerOpened(att.provider, model)
        }
        lastErr = err
    }

    log.Error().
        Str("job_id", job.JobID).
        Int("page_id", job.PageID).
        Err(lastErr).
        Msg("all extraction providers/models exhausted - marking page as failed")

    mpkg.ObserveProvider("all", "all", "exhausted", 0)

    if lastErr == nil {
        lastErr = fmt.Errorf("all providers exhausted for job %s page %d", job.JobID, job.PageID)
    }

    return false, "", "", nil, lastErr
}

type cfgModels struct {
    primary   string
    secondary string
}
