package layout

import (
    "testing"

    "github.com/local/examforge/internal/exam"
)

func TestClassify_TierByCount(t *testing.T) {
    c := NewClassifier(DefaultThresholds())
    tests := []struct {
        name      string
        items     int
        avgWeight float64
        pages     int
        wantLevel DensityLevel
        wantArr   OptionArrangement
    }{
        {"ten items sparse", 10, 30, 2, DensitySparse, ArrangeStackedTwoColumn},
        {"twenty items normal", 20, 30, 2, DensityNormal, ArrangeStackedTwoColumn},
        {"fortyfive short options compact inline", 45, 20, 2, DensityCompact, ArrangeInlineFlow},
        {"fortyfive verbose options compact stacked", 45, 80, 2, DensityCompact, ArrangeStackedTwoColumn},
        {"past compact capacity ultra", 80, 80, 2, DensityUltraCompact, ArrangeInlineFlow},
        {"empty input sparse", 0, 0, 2, DensitySparse, ArrangeStackedTwoColumn},
        {"capacity scales with pages", 45, 20, 4, DensityNormal, ArrangeStackedTwoColumn},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            tier := c.Classify(tt.items, tt.avgWeight, tt.pages)
            if tier.Level != tt.wantLevel {
                t.Errorf("level = %s, want %s", tier.Level, tt.wantLevel)
            }
            if tier.Arrangement != tt.wantArr {
                t.Errorf("arrangement = %s, want %s", tier.Arrangement, tt.wantArr)
            }
        })
    }
}

func TestClassify_Idempotent(t *testing.T) {
    c := NewClassifier(DefaultThresholds())
    a := c.Classify(45, 37.5, 2)
    b := c.Classify(45, 37.5, 2)
    if a != b {
        t.Errorf("identical inputs produced different tiers: %+v vs %+v", a, b)
    }
}

// As the item count grows the selected tier only gets denser, and the
// visual parameters never increase with density.
func TestClassify_Monotonic(t *testing.T) {
    c := NewClassifier(DefaultThresholds())
    prev := c.Classify(0, 0, 2)
    for n := 1; n <= 150; n++ {
        tier := c.Classify(n, 40, 2)
        if tier.Level < prev.Level {
            t.Fatalf("density decreased at n=%d: %s after %s", n, tier.Level, prev.Level)
        }
        if tier.FontSizePt > prev.FontSizePt {
            t.Fatalf("font size increased at n=%d: %.1f after %.1f", n, tier.FontSizePt, prev.FontSizePt)
        }
        if tier.LineHeightRatio > prev.LineHeightRatio {
            t.Fatalf("line height increased at n=%d", n)
        }
        if tier.InterItemSpacingPt > prev.InterItemSpacingPt {
            t.Fatalf("spacing increased at n=%d", n)
        }
        prev = tier
    }
}

func TestClassify_ZeroItemsNoDivide(t *testing.T) {
    c := NewClassifier(DefaultThresholds())
    tier := c.Classify(0, 0, 1)
    if tier.Level != DensitySparse {
        t.Errorf("zero items should classify sparse, got %s", tier.Level)
    }
}

func TestScore(t *testing.T) {
    item := exam.QuestionItem{
        Text: "What is 2+2?",
        Options: []exam.Option{
            {Label: "A", Text: "3"},
            {Label: "B", Text: "4"},
        },
    }
    if got := Score(item); got != 14 {
        t.Errorf("Score = %d, want 14", got)
    }
    if got := Score(exam.QuestionItem{}); got != 0 {
        t.Errorf("Score of empty item = %d, want 0", got)
    }
}

func TestAverageWeight_Empty(t *testing.T) {
    if got := AverageWeight(nil); got != 0 {
        t.Errorf("AverageWeight(nil) = %v, want 0", got)
    }
}
