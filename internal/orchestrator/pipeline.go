package orchestrator

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "os"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/examforge/internal/document"
    "github.com/local/examforge/internal/exam"
    "github.com/local/examforge/internal/layout"
    mpkg "github.com/local/examforge/internal/metrics"
    "github.com/local/examforge/internal/renderer"
)

// finalizeJob runs once all pages are accounted for: aggregate the extracted
// questions, run the layout pipeline, render the PDF and record artifacts.
func (o *Orchestrator) finalizeJob(ctx context.Context, jobID string) {
    st, ok, err := o.deps.Status.Get(ctx, jobID)
    if err != nil || !ok {
        return
    }
    if st.Status == "success" || st.Status == "failed" || st.Status == "cancelled" {
        return
    }

    total := intFromMeta(st.Metadata, "total_pages")
    items, err := o.deps.Items.AggregateItems(ctx, jobID, total)
    if err != nil {
        log.Error().Err(err).Str("job_id", jobID).Msg("failed to aggregate extracted questions")
    }

    now := time.Now()
    if len(items) == 0 {
        st.Status = "failed"
        st.Progress = 100
        st.Message = "no questions could be extracted from the source"
        st.End = &now
        _ = o.deps.Status.Set(ctx, jobID, st)
        return
    }

    mpkg.AddQuestions(len(items))

    meta := o.metaFromStatus(st)
    targetPages := intFromMeta(st.Metadata, "target_pages")
    if targetPages <= 0 {
        targetPages = o.cfg.Layout.TargetPages
    }

    st.Progress = 85
    st.Message = fmt.Sprintf("laying out %d questions", len(items))
    _ = o.deps.Status.Set(ctx, jobID, st)

    result, err := o.buildDocument(ctx, jobID, items, meta, targetPages)
    if err != nil {
        st.Status = "failed"
        st.Progress = 100
        st.Message = err.Error()
        st.End = &now
        _ = o.deps.Status.Set(ctx, jobID, st)
        return
    }

    st.Status = "success"
    st.Progress = 100
    st.Message = "exam ready"
    end := time.Now()
    st.End = &end
    st.Metadata["question_count"] = len(items)
    st.Metadata["layout_tier"] = result.Tier.Level.String()
    st.Metadata["artifact_pdf"] = result.PDFPath
    st.Metadata["artifact_json"] = result.SnapshotPath
    if result.S3Key != "" {
        st.Metadata["artifact_s3_key"] = result.S3Key
    }
    _ = o.deps.Status.Set(ctx, jobID, st)

    _ = o.deps.Items.DeleteJobPages(ctx, jobID, total)
    CleanupUploads(o.cfg.Storage.UploadDir, 24*time.Hour)

    log.Info().
        Str("job_id", jobID).
        Int("questions", len(items)).
        Str("tier", result.Tier.Level.String()).
        Str("pdf", result.PDFPath).
        Msg("exam generation finished")
}

// BuildResult carries the outputs of one layout+render run.
type BuildResult struct {
    Tier         layout.Tier
    Plan         layout.BreakPlan
    HTML         string
    PDFPath      string
    SnapshotPath string
    S3Key        string
}

// buildDocument runs the deterministic layout pipeline and renders the PDF.
func (o *Orchestrator) buildDocument(ctx context.Context, jobID string, items []exam.QuestionItem, meta exam.TestMetadata, targetPages int) (BuildResult, error) {
    th := layout.Thresholds{
        SparseMaxItems:  o.cfg.Layout.SparseMaxItems,
        NormalMaxItems:  o.cfg.Layout.NormalMaxItems,
        CompactMaxItems: o.cfg.Layout.CompactMaxItems,
        BaselinePages:   o.cfg.Layout.BaselinePages,
        VerbosityCutoff: o.cfg.Layout.VerbosityCutoff,
    }
    classifier := layout.NewClassifier(th)
    tier := classifier.Classify(len(items), layout.AverageWeight(items), targetPages)
    mpkg.IncTier(tier.Level.String())

    plan, err := layout.PlanBreaks(len(items), targetPages)
    if err != nil {
        return BuildResult{}, fmt.Errorf("page break planning failed: %v", err)
    }

    asm := &document.Assembler{Branding: o.cfg.Layout.Branding}
    html := asm.Assemble(items, meta, tier, plan)

    pdfPath, snapPath := ArtifactPaths(o.cfg.Storage.ResultDir, len(items), jobID)

    snapshot, err := exam.EncodeSnapshot(meta, items)
    if err != nil {
        return BuildResult{}, fmt.Errorf("snapshot encoding failed: %v", err)
    }
    if err := WriteArtifact(snapPath, snapshot); err != nil {
        return BuildResult{}, err
    }

    res := o.deps.Renderer.Render(ctx, renderer.Job{
        JobID:      jobID,
        HTML:       html,
        OutputPath: pdfPath,
        Timeout:    o.cfg.Renderer.Timeout,
    })
    if !res.Success {
        mpkg.IncRendered(o.deps.Renderer.Name(), "error")
        return BuildResult{}, fmt.Errorf("render failed: %s", res.Error)
    }
    mpkg.IncRendered(o.deps.Renderer.Name(), "success")

    out := BuildResult{Tier: tier, Plan: plan, HTML: html, PDFPath: pdfPath, SnapshotPath: snapPath}

    if o.deps.Storage != nil && o.cfg.Storage.S3Bucket != "" {
        if key, err := o.uploadArtifacts(ctx, jobID, pdfPath, snapshot); err != nil {
            log.Warn().Err(err).Str("job_id", jobID).Msg("artifact S3 upload failed; local copy kept")
        } else {
            out.S3Key = key
        }
    }

    return out, nil
}

func (o *Orchestrator) uploadArtifacts(ctx context.Context, jobID, pdfPath string, snapshot []byte) (string, error) {
    pdfBytes, err := os.ReadFile(pdfPath)
    if err != nil {
        return "", err
    }
    baseKey := fmt.Sprintf("exams/%s", jobID)
    version, err := o.deps.Storage.ListNextVersion(ctx, baseKey)
    if err != nil {
        version = 1
    }
    key := fmt.Sprintf("%s_v%d", baseKey, version)
    if err := o.deps.Storage.UploadArtifact(ctx, key+".pdf", pdfBytes, "application/pdf"); err != nil {
        return "", err
    }
    if err := o.deps.Storage.UploadArtifact(ctx, key+".json", snapshot, "application/json"); err != nil {
        return "", err
    }
    return key, nil
}

// metaFromStatus recovers the test metadata recorded at job creation.
func (o *Orchestrator) metaFromStatus(st Status) exam.TestMetadata {
    var meta exam.TestMetadata
    if st.Metadata != nil {
        if raw, ok := st.Metadata["test_meta"].(string); ok && raw != "" {
            _ = json.Unmarshal([]byte(raw), &meta)
        }
    }
    return meta
}

type regenerateReq struct {
    JobID       string            `json:"job_id"`
    TargetPages int               `json:"target_pages"`
    Metadata    exam.TestMetadata `json:"metadata"`
    Items       []exam.QuestionItem `json:"items"`
}

// handleRegenerate re-runs layout and rendering from a finished job's
// snapshot without re-extraction. Callers may override metadata, target
// pages, or the questions themselves (edited snapshots).
func (o *Orchestrator) handleRegenerate(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    defer r.Body.Close()
    var req regenerateReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid json", http.StatusBadRequest)
        return
    }
    if req.JobID == "" {
        http.Error(w, "missing job_id", http.StatusBadRequest)
        return
    }

    st, ok, err := o.deps.Status.Get(r.Context(), req.JobID)
    if err != nil || !ok {
        http.Error(w, "job not found", http.StatusNotFound)
        return
    }
    snapPath, _ := st.Metadata["artifact_json"].(string)
    if snapPath == "" {
        http.Error(w, "snapshot not available", http.StatusNotFound)
        return
    }
    data, err := os.ReadFile(snapPath)
    if err != nil {
        http.Error(w, "failed to read snapshot", http.StatusInternalServerError)
        return
    }
    snap, err := exam.DecodeSnapshot(data)
    if err != nil {
        http.Error(w, "corrupt snapshot", http.StatusInternalServerError)
        return
    }

    items := snap.Items
    if len(req.Items) > 0 {
        items = req.Items
    }
    meta := snap.Metadata
    if req.Metadata != (exam.TestMetadata{}) {
        meta = req.Metadata
    }
    targetPages := req.TargetPages
    if targetPages <= 0 {
        targetPages = intFromMeta(st.Metadata, "target_pages")
    }
    if targetPages <= 0 {
        targetPages = o.cfg.Layout.TargetPages
    }

    newJobID := uuid.NewString()
    start := time.Now()
    _ = o.deps.Status.Set(r.Context(), newJobID, Status{
        Status: "processing", Progress: 50, Message: "regenerating exam", Start: &start,
        Metadata: map[string]any{"regenerated_from": req.JobID, "target_pages": targetPages},
    })

    result, err := o.buildDocument(r.Context(), newJobID, items, meta, targetPages)
    now := time.Now()
    nst, _, _ := o.deps.Status.Get(r.Context(), newJobID)
    if nst.Metadata == nil {
        nst.Metadata = map[string]any{}
    }
    if err != nil {
        nst.Status = "failed"
        nst.Progress = 100
        nst.Message = err.Error()
        nst.End = &now
        _ = o.deps.Status.Set(r.Context(), newJobID, nst)
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }
    nst.Status = "success"
    nst.Progress = 100
    nst.Message = "exam ready"
    nst.End = &now
    nst.Metadata["question_count"] = len(items)
    nst.Metadata["layout_tier"] = result.Tier.Level.String()
    nst.Metadata["artifact_pdf"] = result.PDFPath
    nst.Metadata["artifact_json"] = result.SnapshotPath
    _ = o.deps.Status.Set(r.Context(), newJobID, nst)

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    _ = json.NewEncoder(w).Encode(map[string]any{
        "status":  "ok",
        "job_id":  newJobID,
        "message": "Exam regenerated",
        "metadata": map[string]any{
            "regenerated_from": req.JobID,
            "question_count":   len(items),
            "layout_tier":      result.Tier.Level.String(),
        },
    })
}
