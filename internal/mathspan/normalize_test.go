package mathspan

import (
    "errors"
    "strings"
    "testing"
)

func TestNormalize_Conventions(t *testing.T) {
    tests := []struct {
        name string
        in   string
        want string
    }{
        {"dollar inline", `What is $x^2$?`, `What is \(x^2\)?`},
        {"paren inline unchanged", `What is \(x^2\)?`, `What is \(x^2\)?`},
        {"double dollar display", `Solve: $$\frac{a}{b}$$`, `Solve: \[\frac{a}{b}\]`},
        {"bracket display unchanged", `Solve: \[a+b\]`, `Solve: \[a+b\]`},
        {"display not split by inline", `$$x + y$$`, `\[x + y\]`},
        {"mixed spans", `If $a=1$ then $$a^2=1$$ holds`, `If \(a=1\) then \[a^2=1\] holds`},
        {"adjacent spans", `$a$$b$`, `\(a\)\(b\)`},
        {"unbalanced left alone", `price is $5 forever`, `price is $5 forever`},
        {"empty string", ``, ``},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            if got := Normalize(tt.in); got != tt.want {
                t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
            }
        })
    }
}

// Text with no delimiters must round-trip byte-for-byte.
func TestNormalize_RoundTrip(t *testing.T) {
    inputs := []string{
        "plain question text with no math at all",
        "punctuation! and (parens) and [brackets] but no math",
        "newlines\nand\ttabs survive",
    }
    for _, in := range inputs {
        if got := Normalize(in); got != in {
            t.Errorf("Normalize changed delimiter-free text: %q -> %q", in, got)
        }
    }
}

type stubTypesetter struct {
    failOn string
}

func (s stubTypesetter) Typeset(expr string, display bool) (string, error) {
    if strings.Contains(expr, s.failOn) && s.failOn != "" {
        return "", errors.New("syntax error")
    }
    if display {
        return "<display>" + expr + "</display>", nil
    }
    return "<inline>" + expr + "</inline>", nil
}

func TestTypesetAll_PerSpanDegradation(t *testing.T) {
    ts := stubTypesetter{failOn: `\frac{`}
    in := `Good $x$ then bad $\frac{1$ then good $$y$$`
    got := TypesetAll(in, ts)
    if !strings.Contains(got, "<inline>x</inline>") {
        t.Errorf("healthy inline span not typeset: %q", got)
    }
    if !strings.Contains(got, "<display>y</display>") {
        t.Errorf("healthy display span not typeset: %q", got)
    }
    // The failing span keeps its original delimited text verbatim.
    if !strings.Contains(got, `$\frac{1$`) {
        t.Errorf("failing span not preserved verbatim: %q", got)
    }
}

func TestTypesetAll_NilTypesetterNormalizes(t *testing.T) {
    if got := TypesetAll(`$x$`, nil); got != `\(x\)` {
        t.Errorf("nil typesetter should normalize, got %q", got)
    }
}

func TestTypesetHTML_RawExpressionEscapedSegments(t *testing.T) {
    got := TypesetHTML(`Show a<b when $a<b$ & done`, stubTypesetter{})
    // The typesetter must see the raw expression, not entities.
    if !strings.Contains(got, "<inline>a<b</inline>") {
        t.Errorf("typesetter received escaped expression: %q", got)
    }
    // Plain text around the span is escaped.
    if !strings.Contains(got, "Show a&lt;b when ") || !strings.Contains(got, " &amp; done") {
        t.Errorf("surrounding text not escaped: %q", got)
    }
}

func TestTypesetHTML_RejectedSpanEscaped(t *testing.T) {
    ts := stubTypesetter{failOn: `\frac{`}
    got := TypesetHTML(`bad $\frac{1<2$ span`, ts)
    if !strings.Contains(got, `$\frac{1&lt;2$`) {
        t.Errorf("rejected span must stay delimited but escaped: %q", got)
    }
}

func TestTypesetHTML_NilTypesetterEscapes(t *testing.T) {
    if got := TypesetHTML(`$a<b$`, nil); got != `\(a&lt;b\)` {
        t.Errorf("nil typesetter must normalize then escape, got %q", got)
    }
    if got := TypesetHTML(`x < y`, nil); got != `x &lt; y` {
        t.Errorf("delimiter-free text must simply escape, got %q", got)
    }
}
