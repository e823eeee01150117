// Package document assembles the final exam markup from extracted items,
// header metadata and a computed layout. The output is a self-contained
// HTML string handed to the Renderer; the assembler itself performs no
// I/O and never fails for any item-list input.
package document

import (
    "fmt"
    "html"
    "regexp"
    "strings"

    "github.com/local/examforge/internal/exam"
    "github.com/local/examforge/internal/layout"
    "github.com/local/examforge/internal/mathspan"
)

// leadingNumeral trims a pre-existing question number from source text so
// items are not double numbered: a leading run of digits, optional
// punctuation, then whitespace. Numerals later in the text are untouched.
var leadingNumeral = regexp.MustCompile(`^\s*\d+[.):\-]?\s*`)

// Assembler builds exam documents. The zero value is usable; Branding and
// Typesetter are optional.
type Assembler struct {
    // Branding is the institution line printed at the top of the header.
    Branding string
    // Typesetter renders math spans; nil leaves spans in canonical
    // delimited form for the downstream renderer to typeset.
    Typesetter mathspan.Typesetter
}

// Assemble walks items in their original order, applies the tier's visual
// parameters and the break plan, and emits the markup document: header,
// numbered question blocks with page-break markers, footer. A missing
// question text renders as an empty block rather than aborting the
// document.
func (a *Assembler) Assemble(items []exam.QuestionItem, meta exam.TestMetadata, tier layout.Tier, plan layout.BreakPlan) string {
    m := meta.WithDefaults()

    var b strings.Builder
    b.Grow(2048 + 256*len(items))

    b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
    a.writeStyles(&b, tier)
    b.WriteString("</style>\n")
    if a.Typesetter == nil {
        // spans stay in \( .. \) form, so let MathJax typeset them in
        // the browser before the PDF print
        b.WriteString("<script>MathJax = {tex: {inlineMath: [['\\\\(', '\\\\)']], displayMath: [['\\\\[', '\\\\]']]}};</script>\n")
        b.WriteString("<script src=\"https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-chtml.js\"></script>\n")
    }
    b.WriteString("</head>\n<body>\n")

    a.writeHeader(&b, m)

    for i, item := range items {
        a.writeQuestion(&b, i, item, tier)
        if plan.Breaks(i) {
            b.WriteString("<div class=\"page-break\"></div>\n")
        }
    }

    a.writeFooter(&b, m)
    b.WriteString("</body>\n</html>\n")
    return b.String()
}

func (a *Assembler) writeStyles(b *strings.Builder, tier layout.Tier) {
    fmt.Fprintf(b, "body { font-family: 'Times New Roman', serif; font-size: %.1fpt; line-height: %.2f; margin: 0; }\n",
        tier.FontSizePt, tier.LineHeightRatio)
    fmt.Fprintf(b, ".question { margin-bottom: %.1fpt; }\n", tier.InterItemSpacingPt)
    b.WriteString(".page-break { page-break-after: always; }\n")
    b.WriteString(".header { text-align: center; border-bottom: 2px solid #000; padding-bottom: 6pt; margin-bottom: 10pt; }\n")
    b.WriteString(".header h1 { margin: 0 0 4pt 0; font-size: 1.3em; }\n")
    b.WriteString(".meta { width: 100%; border-collapse: collapse; margin-bottom: 4pt; }\n")
    b.WriteString(".meta td { padding: 2pt 6pt; }\n")
    b.WriteString(".identity { margin: 6pt 0; }\n")
    b.WriteString(".options-stacked { width: 100%; border-collapse: collapse; }\n")
    b.WriteString(".options-stacked td { width: 50%; vertical-align: top; padding: 1pt 4pt; }\n")
    b.WriteString(".options-inline span { margin-right: 14pt; white-space: nowrap; }\n")
    b.WriteString(".footer { text-align: center; margin-top: 12pt; border-top: 1px solid #000; padding-top: 4pt; }\n")
}

func (a *Assembler) writeHeader(b *strings.Builder, m exam.TestMetadata) {
    branding := a.Branding
    if branding == "" {
        branding = "ExamForge Question Paper"
    }
    b.WriteString("<div class=\"header\">\n")
    fmt.Fprintf(b, "<h1>%s</h1>\n", html.EscapeString(branding))
    b.WriteString("<table class=\"meta\"><tr>")
    fmt.Fprintf(b, "<td>Subject: %s</td>", html.EscapeString(m.Subject))
    fmt.Fprintf(b, "<td>Class: %s</td>", html.EscapeString(m.Class))
    fmt.Fprintf(b, "<td>Date: %s</td>", html.EscapeString(m.Date))
    b.WriteString("</tr><tr>")
    fmt.Fprintf(b, "<td>Instructor: %s</td>", html.EscapeString(m.Instructor))
    fmt.Fprintf(b, "<td>Duration: %s</td>", html.EscapeString(m.Duration))
    fmt.Fprintf(b, "<td>Marks: %s / %s</td>", html.EscapeString(m.MinMarks), html.EscapeString(m.MaxMarks))
    b.WriteString("</tr></table>\n")
    b.WriteString("<div class=\"identity\">Name: ______________________ &nbsp;&nbsp; Roll No.: __________ &nbsp;&nbsp; Section: _____</div>\n")
    b.WriteString("</div>\n")
}

func (a *Assembler) writeQuestion(b *strings.Builder, idx int, item exam.QuestionItem, tier layout.Tier) {
    text := leadingNumeral.ReplaceAllString(item.Text, "")
    rendered := mathspan.TypesetHTML(text, a.Typesetter)

    b.WriteString("<div class=\"question\">\n")
    fmt.Fprintf(b, "<div class=\"question-text\"><b>%d.</b> %s</div>\n", idx+1, rendered)

    if len(item.Options) > 0 {
        if tier.Arrangement == layout.ArrangeInlineFlow {
            a.writeOptionsInline(b, item.Options)
        } else {
            a.writeOptionsStacked(b, item.Options)
        }
    }
    b.WriteString("</div>\n")
}

// writeOptionsStacked emits options in a two-column table, filling rows
// left to right.
func (a *Assembler) writeOptionsStacked(b *strings.Builder, opts []exam.Option) {
    b.WriteString("<table class=\"options-stacked\">")
    for i := 0; i < len(opts); i += 2 {
        b.WriteString("<tr>")
        a.writeOptionCell(b, opts[i])
        if i+1 < len(opts) {
            a.writeOptionCell(b, opts[i+1])
        } else {
            b.WriteString("<td></td>")
        }
        b.WriteString("</tr>")
    }
    b.WriteString("</table>\n")
}

func (a *Assembler) writeOptionCell(b *strings.Builder, o exam.Option) {
    fmt.Fprintf(b, "<td>(%s) %s</td>",
        html.EscapeString(o.Label),
        mathspan.TypesetHTML(o.Text, a.Typesetter))
}

func (a *Assembler) writeOptionsInline(b *strings.Builder, opts []exam.Option) {
    b.WriteString("<div class=\"options-inline\">")
    for _, o := range opts {
        fmt.Fprintf(b, "<span>(%s) %s</span>",
            html.EscapeString(o.Label),
            mathspan.TypesetHTML(o.Text, a.Typesetter))
    }
    b.WriteString("</div>\n")
}

func (a *Assembler) writeFooter(b *strings.Builder, m exam.TestMetadata) {
    b.WriteString("<div class=\"footer\">--- End of Question Paper ---</div>\n")
}
