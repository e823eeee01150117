package orchestrator

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "os"
    "path/filepath"
    "strings"

    "github.com/pdfcpu/pdfcpu/pkg/api"
    "github.com/rs/zerolog/log"

    "github.com/local/examforge/internal/mupdf"
)

// CountPDFPages returns the number of pages in a local PDF. pdfcpu validates
// the document structure; scanned papers sometimes fail that validation, so
// mupdf serves as fallback counter.
func CountPDFPages(ctx context.Context, path string) (int, error) {
    n, err := api.PageCountFile(path)
    if err == nil {
        return n, nil
    }
    if n, ferr := mupdf.New().PageCount(path); ferr == nil {
        log.Debug().Err(err).Str("file", path).Msg("pdfcpu rejected document; using mupdf page count")
        return n, nil
    }
    return 0, fmt.Errorf("pdf page count failed: %w", err)
}

// fetchSource materializes a source reference as a local file the workers
// can open. Supports:
// - filesystem paths and file:// refs (used as-is)
// - http(s):// URLs (downloaded to the upload dir)
// - s3://bucket/key (downloaded via the storage client, decrypting when a
//   password is supplied)
func (o *Orchestrator) fetchSource(ctx context.Context, ref, password, jobID string) (string, error) {
    switch {
    case strings.HasPrefix(ref, "s3://"):
        return o.fetchS3Source(ctx, ref, password, jobID)
    case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
        return o.fetchHTTPSource(ctx, ref, jobID)
    case strings.HasPrefix(ref, "file://"):
        return strings.TrimPrefix(ref, "file://"), nil
    default:
        return ref, nil
    }
}

func (o *Orchestrator) fetchHTTPSource(ctx context.Context, url, jobID string) (string, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return "", err
    }
    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        return "", err
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        return "", fmt.Errorf("http %d fetching source", resp.StatusCode)
    }
    path, err := o.sourcePath(jobID, filepath.Base(url))
    if err != nil {
        return "", err
    }
    f, err := os.Create(path)
    if err != nil {
        return "", err
    }
    defer f.Close()
    if _, err := io.Copy(f, resp.Body); err != nil {
        return "", err
    }
    return path, nil
}

func (o *Orchestrator) fetchS3Source(ctx context.Context, s3url, password, jobID string) (string, error) {
    if o.deps.Storage == nil {
        return "", fmt.Errorf("s3 source given but storage is not configured")
    }
    // s3://bucket/key - the bucket is fixed by configuration, only the key
    // part is honored.
    path := strings.TrimPrefix(s3url, "s3://")
    slash := strings.Index(path, "/")
    if slash <= 0 {
        return "", fmt.Errorf("invalid s3 url: %s", s3url)
    }
    key := path[slash+1:]

    data, meta, err := o.deps.Storage.DownloadSource(ctx, key, password)
    if err != nil {
        return "", err
    }

    name := meta.OriginalName
    if name == "" {
        name = filepath.Base(key)
    }
    local, err := o.sourcePath(jobID, name)
    if err != nil {
        return "", err
    }
    if err := os.WriteFile(local, data, 0o644); err != nil {
        return "", err
    }
    log.Info().Str("key", key).Str("file", filepath.Base(local)).Msg("downloaded s3 source")
    return local, nil
}

func (o *Orchestrator) sourcePath(jobID, name string) (string, error) {
    dir := o.cfg.Storage.UploadDir
    if dir == "" {
        dir = "uploads"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return "", err
    }
    if name == "" || name == "." || name == "/" {
        name = "source.pdf"
    }
    return filepath.Join(dir, fmt.Sprintf("%s_%s", jobID, name)), nil
}
