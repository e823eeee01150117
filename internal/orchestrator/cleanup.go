package orchestrator

import (
    "os"
    "path/filepath"
    "time"
)

// CleanupUploads removes uploaded source files older than the provided age
// threshold. Sources must outlive their job (workers re-open them per page)
// so this runs as completion hygiene, not immediately.
func CleanupUploads(dir string, maxAge time.Duration) {
    if dir == "" {
        dir = "uploads"
    }
    now := time.Now()
    entries, err := os.ReadDir(dir)
    if err != nil {
        return
    }
    for _, e := range entries {
        if e.IsDir() {
            continue
        }
        info, err := e.Info()
        if err != nil {
            continue
        }
        if now.Sub(info.ModTime()) >= maxAge {
            _ = os.Remove(filepath.Join(dir, e.Name()))
        }
    }
}
