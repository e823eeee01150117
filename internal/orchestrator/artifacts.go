package orchestrator

import (
    "fmt"
    "os"
    "path/filepath"
)

// ArtifactPaths returns the deterministic artifact locations for a job.
// The filename encodes the question count so operators can eyeball a result
// directory: exam_25q_<jobID>.pdf with a sibling .json snapshot.
func ArtifactPaths(resultDir string, questionCount int, jobID string) (pdfPath, snapshotPath string) {
    if resultDir == "" {
        resultDir = filepath.Join("uploads", "results")
    }
    base := fmt.Sprintf("exam_%dq_%s", questionCount, jobID)
    return filepath.Join(resultDir, base+".pdf"), filepath.Join(resultDir, base+".json")
}

// WriteArtifact writes artifact bytes, creating the result directory as
// needed.
func WriteArtifact(path string, data []byte) error {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("create result dir: %w", err)
    }
    if err := os.WriteFile(path, data, 0o644); err != nil {
        return fmt.Errorf("write artifact: %w", err)
    }
    return nil
}
