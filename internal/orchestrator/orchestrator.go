package orchestrator

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/examforge/internal/config"
    "github.com/local/examforge/internal/dispatcher"
    "github.com/local/examforge/internal/exam"
    "github.com/local/examforge/internal/filetype"
    "github.com/local/examforge/internal/renderer"
    "github.com/local/examforge/internal/storage"
)

// Queue is the orchestrator-side queue surface.
type Queue interface {
    EnqueuePage(ctx context.Context, payload []byte) error
    CancelJob(ctx context.Context, jobID string) error
    IsCancelled(ctx context.Context, jobID string) (bool, error)
}

// Status mirrors the store representation without importing it directly.
type Status struct {
    Status   string
    Progress int
    Message  string
    Start    *time.Time
    End      *time.Time
    Metadata map[string]any
}

type StatusStore interface {
    Set(ctx context.Context, jobID string, st Status) error
    Get(ctx context.Context, jobID string) (Status, bool, error)
    MapFile(ctx context.Context, fileID, jobID string) error
    JobByFile(ctx context.Context, fileID string) (string, error)
}

// ItemStore holds per-page extraction results while a job runs.
type ItemStore interface {
    SavePageItems(ctx context.Context, jobID string, page int, items []exam.QuestionItem, provider, model string) error
    AggregateItems(ctx context.Context, jobID string, total int) ([]exam.QuestionItem, error)
    DeleteJobPages(ctx context.Context, jobID string, total int) error
}

// PageTexter supplies born-digital page text hints for PDFs.
type PageTexter interface {
    PageText(pdfPath string, pageNum int) (string, error)
}

type Dependencies struct {
    Queue    Queue
    Status   StatusStore
    Items    ItemStore
    Renderer renderer.Renderer
    Detector *filetype.Detector
    Text     PageTexter
    Storage  *storage.S3Client // optional; artifacts stay local when nil
}

type Orchestrator struct {
    deps Dependencies
    cfg  cfgpkg.Config
}

func New(cfg cfgpkg.Config, deps Dependencies) *Orchestrator {
    return &Orchestrator{cfg: cfg, deps: deps}
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.HandleFunc("/generate_exam", o.handleGenerate)
    mux.HandleFunc("/generate_exam_upload", o.handleGenerateUpload)
    mux.HandleFunc("/regenerate_exam", o.handleRegenerate)
    mux.HandleFunc("/progress/", o.handleProgress)
    mux.HandleFunc("/download_exam/", o.handleDownload)
    mux.HandleFunc("/webhook/cancel_job", o.handleCancelJob)
    mux.HandleFunc("/internal/page_done", o.handlePageDone)
    mux.HandleFunc("/internal/page_failed", o.handlePageFailed)
}

type generateReq struct {
    FilePath    string            `json:"file_path"`
    FileURL     string            `json:"file_url"`
    UserName    string            `json:"user_name"`
    UserID      string            `json:"user_id"`
    Password    string            `json:"password"`
    AIEngine    string            `json:"ai_engine"`
    TargetPages int               `json:"target_pages"`
    Metadata    exam.TestMetadata `json:"metadata"`
}

type generateResp struct {
    Status   string         `json:"status"`
    JobID    string         `json:"job_id"`
    Message  string         `json:"message"`
    Metadata map[string]any `json:"metadata,omitempty"`
}

// handleGenerate accepts an API request referencing an already stored source
// paper (s3://, http(s):// or a filesystem path) and starts extraction.
func (o *Orchestrator) handleGenerate(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    defer r.Body.Close()
    var req generateReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid json", http.StatusBadRequest)
        return
    }

    filePath := req.FilePath
    if filePath == "" {
        filePath = req.FileURL
    }
    user := req.UserName
    if user == "" {
        user = req.UserID
    }
    if filePath == "" || user == "" {
        http.Error(w, "missing file_path/file_url or user_name/user_id", http.StatusBadRequest)
        return
    }

    jobID := uuid.NewString()

    localPath, err := o.fetchSource(r.Context(), filePath, req.Password, jobID)
    if err != nil {
        log.Error().Err(err).Str("file", filePath).Msg("failed to fetch source paper")
        http.Error(w, "source unavailable", http.StatusBadGateway)
        return
    }

    if err := o.startJob(r.Context(), jobID, localPath, user, req.AIEngine, req.TargetPages, req.Metadata, "api"); err != nil {
        http.Error(w, err.Error(), http.StatusServiceUnavailable)
        return
    }
    // lets callers poll progress by the reference they submitted
    _ = o.deps.Status.MapFile(r.Context(), filePath, jobID)

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    _ = json.NewEncoder(w).Encode(generateResp{
        Status:   "ok",
        JobID:    jobID,
        Message:  "Exam generation job created",
        Metadata: map[string]any{"ai_engine": req.AIEngine, "timestamp": time.Now().Format(time.RFC3339)},
    })
}

// handleGenerateUpload accepts multipart uploads from the dashboard.
func (o *Orchestrator) handleGenerateUpload(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if err := r.ParseMultipartForm(64 << 20); err != nil { // 64MB max memory before temp files
        http.Error(w, "invalid multipart form", http.StatusBadRequest)
        return
    }
    file, hdr, err := r.FormFile("file")
    if err != nil {
        http.Error(w, "missing file", http.StatusBadRequest)
        return
    }
    defer file.Close()
    user := r.FormValue("user_name")
    if user == "" {
        http.Error(w, "missing user_name", http.StatusBadRequest)
        return
    }
    aiEngine := r.FormValue("ai_engine")
    targetPages, _ := strconv.Atoi(r.FormValue("target_pages"))
    meta := exam.TestMetadata{
        Subject:    r.FormValue("subject"),
        Instructor: r.FormValue("instructor"),
        Class:      r.FormValue("class"),
        Date:       r.FormValue("date"),
        Duration:   r.FormValue("duration"),
        MaxMarks:   r.FormValue("max_marks"),
        MinMarks:   r.FormValue("min_marks"),
    }

    uploadDir := o.cfg.Storage.UploadDir
    if uploadDir == "" {
        uploadDir = "uploads"
    }
    if err := os.MkdirAll(uploadDir, 0o755); err != nil {
        http.Error(w, "cannot create upload dir", http.StatusInternalServerError)
        return
    }
    jobID := uuid.NewString()
    name := hdr.Filename
    if name == "" {
        name = "upload.pdf"
    }
    localPath := fmt.Sprintf("%s/%s_%s", strings.TrimRight(uploadDir, "/"), jobID, name)
    out, err := os.Create(localPath)
    if err != nil {
        http.Error(w, "cannot save upload", http.StatusInternalServerError)
        return
    }
    if _, err := io.Copy(out, file); err != nil {
        out.Close()
        http.Error(w, "write failed", http.StatusInternalServerError)
        return
    }
    _ = out.Close()

    // archive the source encrypted when the uploader sets a password
    if pw := r.FormValue("password"); pw != "" && o.deps.Storage != nil {
        if data, err := os.ReadFile(localPath); err == nil {
            key := fmt.Sprintf("sources/%s_%s", jobID, name)
            if err := o.deps.Storage.UploadProtected(r.Context(), key, data, pw, &storage.FileMetadata{OriginalName: name}); err != nil {
                log.Warn().Err(err).Str("key", key).Msg("protected source archive failed")
            }
        }
    }

    if err := o.startJob(r.Context(), jobID, localPath, user, aiEngine, targetPages, meta, "upload"); err != nil {
        http.Error(w, err.Error(), http.StatusServiceUnavailable)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    _ = json.NewEncoder(w).Encode(generateResp{Status: "ok", JobID: jobID, Message: "Upload job created"})
}

// startJob validates the source, splits it into per-page extraction jobs and
// enqueues them.
func (o *Orchestrator) startJob(ctx context.Context, jobID, localPath, user, aiEngine string, targetPages int, meta exam.TestMetadata, source string) error {
    info, err := o.deps.Detector.Detect(localPath)
    if err != nil {
        return fmt.Errorf("file type detection failed")
    }
    if !info.Supported {
        return fmt.Errorf("unsupported source type: %s", info.MIMEType)
    }

    if targetPages <= 0 {
        targetPages = o.cfg.Layout.TargetPages
    }

    pages := 1
    if info.Kind == filetype.KindPDF {
        if n, err := CountPDFPages(ctx, localPath); err == nil {
            pages = n
        } else {
            log.Warn().Err(err).Str("file", localPath).Msg("page count failed; assuming 1 page")
        }
    }

    start := time.Now()
    metaJSON, _ := json.Marshal(meta)
    _ = o.deps.Status.Set(ctx, jobID, Status{
        Status: "queued", Progress: 0, Message: "queued", Start: &start,
        Metadata: map[string]any{
            "content_ref":  localPath,
            "source_kind":  string(info.Kind),
            "user":         user,
            "source":       source,
            "total_pages":  pages,
            "pages_done":   0,
            "pages_failed": 0,
            "target_pages": targetPages,
            "test_meta":    string(metaJSON),
        },
    })

    for p := 1; p <= pages; p++ {
        job := dispatcher.PageJob{
            JobID:        jobID,
            PageID:       p,
            ContentRef:   localPath,
            SourceKind:   string(info.Kind),
            PreferEngine: aiEngine,
        }
        if info.Kind == filetype.KindPDF && o.deps.Text != nil {
            if txt, err := o.deps.Text.PageText(localPath, p); err == nil {
                job.PageText = txt
            }
        }
        data, _ := json.Marshal(job)
        if err := o.deps.Queue.EnqueuePage(ctx, data); err != nil {
            log.Error().Err(err).Msg("enqueue failed")
            return fmt.Errorf("queue unavailable")
        }
    }

    st, _, _ := o.deps.Status.Get(ctx, jobID)
    st.Status = "processing"
    st.Progress = 10
    st.Message = "extracting questions"
    _ = o.deps.Status.Set(ctx, jobID, st)

    go o.monitorJob(jobID, pages)

    log.Info().Str("job_id", jobID).Str("file", localPath).Int("pages", pages).Str("user", user).Msg("exam job created")
    return nil
}

func (o *Orchestrator) handleProgress(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimPrefix(r.URL.Path, "/progress/")
    st, ok, err := o.deps.Status.Get(r.Context(), id)
    if err != nil {
        http.Error(w, "error", http.StatusInternalServerError)
        return
    }
    if !ok {
        // fall back to file-reference lookup
        if jobID, ferr := o.deps.Status.JobByFile(r.Context(), id); ferr == nil && jobID != "" {
            id = jobID
            st, ok, err = o.deps.Status.Get(r.Context(), id)
        }
    }
    if err != nil || !ok {
        http.Error(w, "not found", http.StatusNotFound)
        return
    }
    resp := map[string]any{
        "success":    st.Status == "success",
        "job_id":     id,
        "status":     st.Status,
        "progress":   st.Progress,
        "message":    st.Message,
        "start_time": st.Start,
        "end_time":   st.End,
    }
    if st.Metadata != nil {
        if n, ok := st.Metadata["question_count"]; ok {
            resp["question_count"] = n
        }
        if tier, ok := st.Metadata["layout_tier"]; ok {
            resp["layout_tier"] = tier
        }
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(resp)
}

// handleDownload serves the rendered PDF, or the question snapshot when
// ?format=json is given.
func (o *Orchestrator) handleDownload(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimPrefix(r.URL.Path, "/download_exam/")
    st, ok, err := o.deps.Status.Get(r.Context(), id)
    if err != nil || !ok {
        http.Error(w, "not found", http.StatusNotFound)
        return
    }
    if st.Status != "success" {
        http.Error(w, "not ready", http.StatusAccepted)
        return
    }

    key := "artifact_pdf"
    contentType := "application/pdf"
    if r.URL.Query().Get("format") == "json" {
        key = "artifact_json"
        contentType = "application/json"
    }
    p, _ := st.Metadata[key].(string)
    if p == "" {
        http.Error(w, "artifact not available", http.StatusNotFound)
        return
    }
    b, err := os.ReadFile(p)
    if err != nil {
        http.Error(w, "failed to read artifact", http.StatusInternalServerError)
        return
    }
    w.Header().Set("Content-Type", contentType)
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", baseName(p)))
    _, _ = w.Write(b)
}

func baseName(p string) string {
    if i := strings.LastIndexByte(p, '/'); i >= 0 {
        return p[i+1:]
    }
    return p
}

type cancelReq struct {
    JobID  string `json:"job_id"`
    Reason string `json:"reason,omitempty"`
}

func (o *Orchestrator) handleCancelJob(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req cancelReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        http.Error(w, "invalid json", http.StatusBadRequest)
        return
    }
    if req.JobID == "" {
        http.Error(w, "missing job_id", http.StatusBadRequest)
        return
    }
    if err := o.deps.Queue.CancelJob(r.Context(), req.JobID); err != nil {
        http.Error(w, "cancel failed", http.StatusInternalServerError)
        return
    }
    st, ok, _ := o.deps.Status.Get(r.Context(), req.JobID)
    if !ok {
        st = Status{}
    }
    st.Status = "cancelled"
    st.Progress = 0
    if req.Reason != "" {
        st.Message = fmt.Sprintf("Cancelled: %s", req.Reason)
    } else {
        st.Message = "Cancelled"
    }
    now := time.Now()
    st.End = &now
    _ = o.deps.Status.Set(r.Context(), req.JobID, st)
    _ = json.NewEncoder(w).Encode(map[string]any{"success": true, "job_id": req.JobID, "status": "cancelled"})
}

func (o *Orchestrator) handlePageDone(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    jobID := r.URL.Query().Get("job_id")
    pageIDStr := r.URL.Query().Get("page_id")
    if jobID == "" || pageIDStr == "" {
        http.Error(w, "missing job_id/page_id", http.StatusBadRequest)
        return
    }
    var body struct {
        Items    []exam.QuestionItem `json:"items"`
        Provider string              `json:"provider"`
        Model    string              `json:"model"`
    }
    _ = json.NewDecoder(r.Body).Decode(&body)

    p, _ := strconv.Atoi(pageIDStr)
    if len(body.Items) > 0 {
        _ = o.deps.Items.SavePageItems(r.Context(), jobID, p, body.Items, body.Provider, body.Model)
    }

    st, ok, err := o.deps.Status.Get(r.Context(), jobID)
    if err != nil || !ok {
        w.WriteHeader(http.StatusNoContent)
        return
    }
    if st.Metadata == nil {
        st.Metadata = map[string]any{}
    }
    done := intFromMeta(st.Metadata, "pages_done") + 1
    failed := intFromMeta(st.Metadata, "pages_failed")
    total := intFromMeta(st.Metadata, "total_pages")
    st.Metadata["pages_done"] = done
    if total > 0 {
        st.Progress = 10 + int(float64(done+failed)/float64(total)*70)
    }
    st.Message = fmt.Sprintf("page %s extracted (%d questions)", pageIDStr, len(body.Items))
    _ = o.deps.Status.Set(r.Context(), jobID, st)

    if total > 0 && done+failed >= total {
        o.finalizeJob(r.Context(), jobID)
    }
    w.WriteHeader(http.StatusNoContent)
}

func (o *Orchestrator) handlePageFailed(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    jobID := r.URL.Query().Get("job_id")
    pageIDStr := r.URL.Query().Get("page_id")
    if jobID == "" || pageIDStr == "" {
        http.Error(w, "missing job_id/page_id", http.StatusBadRequest)
        return
    }
    st, ok, err := o.deps.Status.Get(r.Context(), jobID)
    if err != nil || !ok {
        w.WriteHeader(http.StatusNoContent)
        return
    }
    if st.Metadata == nil {
        st.Metadata = map[string]any{}
    }
    done := intFromMeta(st.Metadata, "pages_done")
    failed := intFromMeta(st.Metadata, "pages_failed") + 1
    total := intFromMeta(st.Metadata, "total_pages")
    st.Metadata["pages_failed"] = failed
    if total > 0 {
        st.Progress = 10 + int(float64(done+failed)/float64(total)*70)
    }
    st.Message = fmt.Sprintf("page %s failed; continuing with remaining pages", pageIDStr)
    _ = o.deps.Status.Set(r.Context(), jobID, st)

    if total > 0 && done+failed >= total {
        o.finalizeJob(r.Context(), jobID)
    }
    w.WriteHeader(http.StatusNoContent)
}

func intFromMeta(m map[string]any, key string) int {
    if m == nil {
        return 0
    }
    if v, ok := m[key]; ok {
        switch t := v.(type) {
        case float64:
            return int(t)
        case int:
            return t
        }
    }
    return 0
}
