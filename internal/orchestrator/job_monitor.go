package orchestrator

import (
    "context"
    "time"

    "github.com/rs/zerolog/log"
)

// monitorJob watches a running job until every page is accounted for.
// Workers ACK a page before reporting it back over HTTP, so a lost
// callback would leave the job in "processing" forever; the monitor
// re-reads the page counters itself and, past the job deadline, cancels
// the remaining pages and finalizes with whatever did land.
func (o *Orchestrator) monitorJob(jobID string, totalPages int) {
    timeout := o.cfg.Worker.JobTimeout
    if timeout <= 0 {
        timeout = 15 * time.Minute
    }
    o.watchJob(jobID, totalPages, timeout, 2*time.Second)
}

func (o *Orchestrator) watchJob(jobID string, totalPages int, timeout, poll time.Duration) {
    deadline := time.NewTimer(timeout)
    defer deadline.Stop()
    ticker := time.NewTicker(poll)
    defer ticker.Stop()

    log.Info().
        Str("job_id", jobID).
        Int("total_pages", totalPages).
        Dur("timeout", timeout).
        Msg("job completion monitor started")

    for {
        select {
        case <-deadline.C:
            log.Warn().
                Str("job_id", jobID).
                Dur("timeout", timeout).
                Msg("job deadline reached; finalizing with partial results")
            ctx := context.Background()
            _ = o.deps.Queue.CancelJob(ctx, jobID)
            o.finalizeJob(ctx, jobID)
            return

        case <-ticker.C:
            ctx := context.Background()
            if cancelled, _ := o.deps.Queue.IsCancelled(ctx, jobID); cancelled {
                log.Info().Str("job_id", jobID).Msg("job cancelled; stopping monitor")
                return
            }

            st, ok, err := o.deps.Status.Get(ctx, jobID)
            if err != nil || !ok {
                log.Warn().Err(err).Str("job_id", jobID).Msg("monitor could not read job status")
                continue
            }
            if st.Status == "success" || st.Status == "failed" || st.Status == "cancelled" {
                return
            }

            done := intFromMeta(st.Metadata, "pages_done")
            failed := intFromMeta(st.Metadata, "pages_failed")
            if done+failed >= totalPages {
                // the page_done handler finalizes on the last callback;
                // reaching here means a callback was counted but its
                // finalize never ran, or the counters raced
                o.finalizeJob(ctx, jobID)
                return
            }
        }
    }
}
