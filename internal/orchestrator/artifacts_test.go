package orchestrator

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"
)

func TestArtifactPaths(t *testing.T) {
    pdf, snap := ArtifactPaths("out", 25, "abc-123")
    if pdf != filepath.Join("out", "exam_25q_abc-123.pdf") {
        t.Errorf("unexpected pdf path: %s", pdf)
    }
    if snap != filepath.Join("out", "exam_25q_abc-123.json") {
        t.Errorf("unexpected snapshot path: %s", snap)
    }
}

func TestArtifactPaths_DefaultDir(t *testing.T) {
    pdf, _ := ArtifactPaths("", 3, "j")
    if !strings.HasPrefix(pdf, filepath.Join("uploads", "results")) {
        t.Errorf("empty result dir must fall back to uploads/results, got %s", pdf)
    }
}

func TestWriteArtifact_CreatesDir(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "nested", "deep", "exam_1q_x.json")
    if err := WriteArtifact(path, []byte(`{"items":[]}`)); err != nil {
        t.Fatalf("WriteArtifact: %v", err)
    }
    b, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("read back: %v", err)
    }
    if string(b) != `{"items":[]}` {
        t.Errorf("content mismatch: %s", b)
    }
}

func TestIntFromMeta(t *testing.T) {
    m := map[string]any{"a": float64(7), "b": 3, "c": "nope"}
    if got := intFromMeta(m, "a"); got != 7 {
        t.Errorf("float64 value: got %d", got)
    }
    if got := intFromMeta(m, "b"); got != 3 {
        t.Errorf("int value: got %d", got)
    }
    if got := intFromMeta(m, "c"); got != 0 {
        t.Errorf("non-numeric value must read as 0, got %d", got)
    }
    if got := intFromMeta(nil, "a"); got != 0 {
        t.Errorf("nil map must read as 0, got %d", got)
    }
}

func TestCleanupUploads_RemovesOnlyAged(t *testing.T) {
    dir := t.TempDir()
    old := filepath.Join(dir, "old.pdf")
    fresh := filepath.Join(dir, "fresh.pdf")
    for _, p := range []string{old, fresh} {
        if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
            t.Fatal(err)
        }
    }

    CleanupUploads(dir, 0) // everything qualifies as aged
    if _, err := os.Stat(old); !os.IsNotExist(err) {
        t.Error("aged file not removed")
    }

    if err := os.WriteFile(fresh, []byte("x"), 0o644); err != nil {
        t.Fatal(err)
    }
    CleanupUploads(dir, 24*time.Hour) // nothing qualifies
    if _, err := os.Stat(fresh); err != nil {
        t.Error("fresh file must survive cleanup")
    }
}
