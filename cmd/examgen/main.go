package main

import (
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/spf13/cobra"

    "github.com/local/examforge/internal/config"
    "github.com/local/examforge/internal/document"
    "github.com/local/examforge/internal/exam"
    "github.com/local/examforge/internal/layout"
    "github.com/local/examforge/internal/renderer"
)

// examgen rebuilds an exam paper from a snapshot JSON without touching the
// service: no Redis, no AI providers. Useful for retuning layout locally and
// for regenerating a paper after hand-editing the snapshot.
func main() {
    var (
        snapshotPath string
        outPath      string
        targetPages  int
        htmlOnly     bool
        engine       string
        chromiumBin  string
        remoteURL    string
        branding     string
    )

    root := &cobra.Command{
        Use:   "examgen",
        Short: "Rebuild an exam paper PDF from a snapshot JSON",
        RunE: func(cmd *cobra.Command, args []string) error {
            data, err := os.ReadFile(snapshotPath)
            if err != nil {
                return fmt.Errorf("read snapshot: %w", err)
            }
            snap, err := exam.DecodeSnapshot(data)
            if err != nil {
                return fmt.Errorf("parse snapshot: %w", err)
            }
            if len(snap.Items) == 0 {
                return fmt.Errorf("snapshot contains no questions")
            }

            cfg := config.FromEnv()
            if targetPages <= 0 {
                targetPages = cfg.Layout.TargetPages
            }
            if branding == "" {
                branding = cfg.Layout.Branding
            }

            cls := layout.NewClassifier(layout.Thresholds{
                SparseMaxItems:  cfg.Layout.SparseMaxItems,
                NormalMaxItems:  cfg.Layout.NormalMaxItems,
                CompactMaxItems: cfg.Layout.CompactMaxItems,
                BaselinePages:   cfg.Layout.BaselinePages,
                VerbosityCutoff: cfg.Layout.VerbosityCutoff,
            })
            tier := cls.Classify(len(snap.Items), layout.AverageWeight(snap.Items), targetPages)
            plan, err := layout.PlanBreaks(len(snap.Items), targetPages)
            if err != nil {
                return fmt.Errorf("plan page breaks: %w", err)
            }

            asm := &document.Assembler{Branding: branding}
            html := asm.Assemble(snap.Items, snap.Metadata, tier, plan)

            if outPath == "" {
                base := strings.TrimSuffix(filepath.Base(snapshotPath), filepath.Ext(snapshotPath))
                if htmlOnly {
                    outPath = base + ".html"
                } else {
                    outPath = base + ".pdf"
                }
            }
            if htmlOnly {
                if err := os.WriteFile(outPath, []byte(html), 0o644); err != nil {
                    return err
                }
                fmt.Printf("wrote %s (%d questions, %s tier)\n", outPath, len(snap.Items), tier.Level)
                return nil
            }

            rcfg := cfg.Renderer
            if engine != "" {
                rcfg.Engine = engine
            }
            if chromiumBin != "" {
                rcfg.ChromiumBin = chromiumBin
            }
            if remoteURL != "" {
                rcfg.RemoteURL = remoteURL
            }
            rend, err := renderer.FromConfig(rcfg)
            if err != nil {
                return err
            }
            res := rend.Render(cmd.Context(), renderer.Job{
                JobID:      uuid.NewString(),
                HTML:       html,
                OutputPath: outPath,
                Timeout:    rcfg.Timeout,
            })
            if !res.Success {
                return fmt.Errorf("render failed: %s", res.Error)
            }
            fmt.Printf("wrote %s (%d questions, %s tier, %s)\n", outPath, len(snap.Items), tier.Level, res.Duration.Round(time.Millisecond))
            return nil
        },
    }

    root.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "path to the snapshot JSON (required)")
    root.Flags().StringVarP(&outPath, "out", "o", "", "output path (defaults next to the snapshot)")
    root.Flags().IntVarP(&targetPages, "target-pages", "p", 0, "target page count (default from env)")
    root.Flags().BoolVar(&htmlOnly, "html", false, "emit the assembled HTML instead of rendering a PDF")
    root.Flags().StringVar(&engine, "engine", "", "render engine: chromium or remote")
    root.Flags().StringVar(&chromiumBin, "chromium-bin", "", "chromium binary override")
    root.Flags().StringVar(&remoteURL, "remote-url", "", "remote renderer URL")
    root.Flags().StringVar(&branding, "branding", "", "brand line printed in the paper header")
    _ = root.MarkFlagRequired("snapshot")

    if err := root.Execute(); err != nil {
        os.Exit(1)
    }
}
