package document

import (
    "errors"
    "fmt"
    "strings"
    "testing"

    "github.com/local/examforge/internal/exam"
    "github.com/local/examforge/internal/layout"
)

func sampleItems(n int) []exam.QuestionItem {
    items := make([]exam.QuestionItem, 0, n)
    for i := 0; i < n; i++ {
        items = append(items, exam.QuestionItem{
            Text: fmt.Sprintf("Question number %d text", i+1),
            Options: []exam.Option{
                {Label: "A", Text: "first"},
                {Label: "B", Text: "second"},
                {Label: "C", Text: "third"},
                {Label: "D", Text: "fourth"},
            },
        })
    }
    return items
}

func defaultTier() layout.Tier {
    return layout.NewClassifier(layout.DefaultThresholds()).Classify(10, 30, 2)
}

func TestAssemble_EmptyInput(t *testing.T) {
    var a Assembler
    plan, _ := layout.PlanBreaks(0, 2)
    doc := a.Assemble(nil, exam.TestMetadata{}, defaultTier(), plan)

    if !strings.Contains(doc, "class=\"header\"") || !strings.Contains(doc, "class=\"footer\"") {
        t.Error("empty input must still produce header and footer")
    }
    if strings.Contains(doc, "class=\"question\"") {
        t.Error("empty input must produce zero question blocks")
    }
}

func TestAssemble_NumbersAndOrder(t *testing.T) {
    var a Assembler
    items := sampleItems(4)
    plan, _ := layout.PlanBreaks(len(items), 1)
    doc := a.Assemble(items, exam.TestMetadata{}, defaultTier(), plan)

    last := -1
    for i := 1; i <= 4; i++ {
        pos := strings.Index(doc, fmt.Sprintf("<b>%d.</b>", i))
        if pos < 0 {
            t.Fatalf("question %d missing from document", i)
        }
        if pos < last {
            t.Fatalf("question %d out of order", i)
        }
        last = pos
    }
}

func TestAssemble_StripsLeadingNumeral(t *testing.T) {
    var a Assembler
    items := []exam.QuestionItem{{
        Text:    `5. What is \( x^2 \)?`,
        Options: []exam.Option{{Label: "A", Text: "2"}, {Label: "B", Text: "4"}},
    }}
    plan, _ := layout.PlanBreaks(1, 2)
    doc := a.Assemble(items, exam.TestMetadata{}, defaultTier(), plan)

    if !strings.Contains(doc, `<b>1.</b> What is \( x^2 \)?`) {
        t.Errorf("leading numeral not stripped or renumbered:\n%s", doc)
    }
    if strings.Contains(doc, "5. What is") {
        t.Error("source numbering leaked into output")
    }
}

func TestAssemble_LaterNumeralsUntouched(t *testing.T) {
    var a Assembler
    items := []exam.QuestionItem{{
        Text:    "12) A car travels 12 km in 3 hours",
        Options: []exam.Option{{Label: "A", Text: "4"}, {Label: "B", Text: "5"}},
    }}
    plan, _ := layout.PlanBreaks(1, 2)
    doc := a.Assemble(items, exam.TestMetadata{}, defaultTier(), plan)

    if !strings.Contains(doc, "A car travels 12 km in 3 hours") {
        t.Errorf("numerals inside the text were altered:\n%s", doc)
    }
}

func TestAssemble_PageBreakPlacement(t *testing.T) {
    var a Assembler
    items := sampleItems(10)
    plan, _ := layout.PlanBreaks(len(items), 2)
    doc := a.Assemble(items, exam.TestMetadata{}, defaultTier(), plan)

    q5 := strings.Index(doc, "<b>5.</b>")
    q6 := strings.Index(doc, "<b>6.</b>")
    brk := strings.Index(doc, "class=\"page-break\"")
    if brk < 0 {
        t.Fatal("no page break emitted")
    }
    if !(q5 < brk && brk < q6) {
        t.Errorf("page break not between questions 5 and 6 (q5=%d brk=%d q6=%d)", q5, brk, q6)
    }
    if strings.Count(doc, "class=\"page-break\"") != 1 {
        t.Errorf("expected exactly one page break for two pages")
    }
}

func TestAssemble_OptionArrangements(t *testing.T) {
    var a Assembler
    items := sampleItems(2)
    plan, _ := layout.PlanBreaks(len(items), 1)

    // the stylesheet always carries both arrangement rules, so assert on
    // the markup's class attributes
    stacked := defaultTier()
    stacked.Arrangement = layout.ArrangeStackedTwoColumn
    doc := a.Assemble(items, exam.TestMetadata{}, stacked, plan)
    if !strings.Contains(doc, `class="options-stacked"`) || strings.Contains(doc, `class="options-inline"`) {
        t.Error("stacked tier must use the two-column table")
    }

    inline := defaultTier()
    inline.Arrangement = layout.ArrangeInlineFlow
    doc = a.Assemble(items, exam.TestMetadata{}, inline, plan)
    if !strings.Contains(doc, `class="options-inline"`) || strings.Contains(doc, `class="options-stacked"`) {
        t.Error("inline tier must use inline flow")
    }
}

func TestAssemble_MetadataDefaults(t *testing.T) {
    var a Assembler
    plan, _ := layout.PlanBreaks(0, 2)
    doc := a.Assemble(nil, exam.TestMetadata{Subject: "Physics"}, defaultTier(), plan)

    if !strings.Contains(doc, "Subject: Physics") {
        t.Error("provided metadata field not passed through verbatim")
    }
    if !strings.Contains(doc, "Duration: 1 Hour") {
        t.Error("absent metadata field did not fall back to its default")
    }
}

func TestAssemble_MissingTextRendersEmpty(t *testing.T) {
    var a Assembler
    items := []exam.QuestionItem{
        {Text: "", Options: []exam.Option{{Label: "A", Text: "x"}, {Label: "B", Text: "y"}}},
        {Text: "healthy question", Options: []exam.Option{{Label: "A", Text: "x"}, {Label: "B", Text: "y"}}},
    }
    plan, _ := layout.PlanBreaks(len(items), 1)
    doc := a.Assemble(items, exam.TestMetadata{}, defaultTier(), plan)

    if !strings.Contains(doc, "healthy question") {
        t.Error("one degraded item aborted rendering of its siblings")
    }
    if strings.Count(doc, "class=\"question\"") != 2 {
        t.Error("degraded item must still produce its numbered block")
    }
}

type failingTypesetter struct{}

func (failingTypesetter) Typeset(expr string, display bool) (string, error) {
    if strings.Contains(expr, "{") && !strings.Contains(expr, "}") {
        return "", errors.New("unbalanced group")
    }
    return "<m>" + expr + "</m>", nil
}

func TestAssemble_MalformedSpanKeptVerbatim(t *testing.T) {
    a := Assembler{Typesetter: failingTypesetter{}}
    items := []exam.QuestionItem{
        {Text: `Compute $\frac{1$ quickly`, Options: []exam.Option{{Label: "A", Text: "$x$"}, {Label: "B", Text: "2"}}},
        {Text: `Evaluate $y$ now`, Options: []exam.Option{{Label: "A", Text: "1"}, {Label: "B", Text: "2"}}},
    }
    plan, _ := layout.PlanBreaks(len(items), 1)
    doc := a.Assemble(items, exam.TestMetadata{}, defaultTier(), plan)

    if !strings.Contains(doc, `$\frac{1$`) {
        t.Errorf("malformed span must stay verbatim:\n%s", doc)
    }
    if !strings.Contains(doc, "<m>x</m>") || !strings.Contains(doc, "<m>y</m>") {
        t.Error("healthy spans in the same document must still typeset")
    }
}

func TestAssemble_TypesetterGetsRawExpressions(t *testing.T) {
    a := Assembler{Typesetter: failingTypesetter{}}
    items := []exam.QuestionItem{{
        Text:    `Tom & Jerry: is $a<b$ true?`,
        Options: []exam.Option{{Label: "A", Text: `$x<y$`}, {Label: "B", Text: "no"}},
    }}
    plan, _ := layout.PlanBreaks(1, 2)
    doc := a.Assemble(items, exam.TestMetadata{}, defaultTier(), plan)

    if !strings.Contains(doc, "<m>a<b</m>") || !strings.Contains(doc, "<m>x<y</m>") {
        t.Errorf("typesetter must receive the raw expression, not entities:\n%s", doc)
    }
    if !strings.Contains(doc, "Tom &amp; Jerry: is <m>a<b</m> true?") {
        t.Errorf("text around spans must be escaped:\n%s", doc)
    }
}

// Rebuilding from the same item list must reproduce the document exactly,
// so an edited-and-regenerated paper matches a fresh render byte for byte.
func TestAssemble_DeterministicRebuild(t *testing.T) {
    items := sampleItems(12)
    build := func() string {
        c := layout.NewClassifier(layout.DefaultThresholds())
        tier := c.Classify(len(items), layout.AverageWeight(items), 2)
        plan, err := layout.PlanBreaks(len(items), 2)
        if err != nil {
            t.Fatal(err)
        }
        a := Assembler{Branding: "Springfield High"}
        return a.Assemble(items, exam.TestMetadata{Subject: "Mathematics"}, tier, plan)
    }
    if build() != build() {
        t.Error("same items must produce an identical document on rebuild")
    }
}
