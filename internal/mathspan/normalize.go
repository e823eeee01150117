// Package mathspan normalizes the math-delimiter conventions found in
// extracted question text into one canonical pair: \( .. \) for inline
// spans and \[ .. \] for display spans. Actual glyph rendering belongs to
// the external typesetting collaborator; this package only recognizes,
// rewrites and hands over delimited spans.
package mathspan

import (
    "html"
    "regexp"
    "strings"
)

// One alternation, ordered display-before-inline, so a display pair is
// never mis-split by the inline pattern. Groups:
//   1: \[ .. \]   bracket display
//   2: $$ .. $$   dollar display
//   3: \( .. \)   paren inline
//   4: $ .. $     single-dollar inline, confined to one line
var spanRe = regexp.MustCompile(`(?s)\\\[(.+?)\\\]|\$\$(.+?)\$\$|\\\((.+?)\\\)|\$([^$\n]+?)\$`)

// Typesetter converts one math expression into rendered markup. An error
// means the span has a syntax problem; the caller keeps the original
// delimited text at that location instead of failing the document.
type Typesetter interface {
    Typeset(expr string, display bool) (string, error)
}

// Normalize rewrites every recognized math span to the canonical
// delimiter pair. Text outside recognized delimiters passes through
// byte-for-byte; text with no delimiters round-trips unchanged.
func Normalize(text string) string {
    return Rewrite(text, func(expr string, display bool) (string, bool) {
        return Canonical(expr, display), true
    })
}

// Canonical wraps an expression in the canonical delimiters.
func Canonical(expr string, display bool) string {
    if display {
        return `\[` + expr + `\]`
    }
    return `\(` + expr + `\)`
}

// Rewrite runs the ordered single pass over text, invoking fn for every
// recognized span. fn returns the replacement and whether to use it; on
// false the original delimited text is kept verbatim. Spans are handled
// independently, so one bad span never affects its siblings.
func Rewrite(text string, fn func(expr string, display bool) (string, bool)) string {
    locs := spanRe.FindAllStringSubmatchIndex(text, -1)
    if len(locs) == 0 {
        return text
    }
    var b strings.Builder
    b.Grow(len(text))
    last := 0
    for _, m := range locs {
        b.WriteString(text[last:m[0]])
        expr, display := submatch(text, m)
        if out, ok := fn(expr, display); ok {
            b.WriteString(out)
        } else {
            b.WriteString(text[m[0]:m[1]])
        }
        last = m[1]
    }
    b.WriteString(text[last:])
    return b.String()
}

// submatch extracts the matched expression and span kind from the
// alternation's group indices. Groups 1 and 2 are display, 3 and 4 inline.
func submatch(text string, m []int) (string, bool) {
    for g := 1; g <= 4; g++ {
        start, end := m[2*g], m[2*g+1]
        if start >= 0 {
            return text[start:end], g <= 2
        }
    }
    return "", false
}

// TypesetAll renders every recognized span through ts, keeping a span's
// original delimited text verbatim whenever the typesetter reports an
// error. A nil typesetter degrades to Normalize.
func TypesetAll(text string, ts Typesetter) string {
    if ts == nil {
        return Normalize(text)
    }
    return Rewrite(text, func(expr string, display bool) (string, bool) {
        out, err := ts.Typeset(expr, display)
        if err != nil {
            return "", false
        }
        return out, true
    })
}

// TypesetHTML renders spans through ts and HTML-escapes the plain text
// around them. The typesetter sees the raw source expression, so
// characters like < survive into math markup unmangled, while its output
// is trusted markup inserted as-is. A rejected span is kept in its
// original delimited form, escaped. A nil typesetter escapes the whole
// text after normalizing, leaving canonical delimiters for a browser-side
// typesetter to pick up.
func TypesetHTML(text string, ts Typesetter) string {
    if ts == nil {
        return html.EscapeString(Normalize(text))
    }
    locs := spanRe.FindAllStringSubmatchIndex(text, -1)
    if len(locs) == 0 {
        return html.EscapeString(text)
    }
    var b strings.Builder
    b.Grow(len(text) + 16)
    last := 0
    for _, m := range locs {
        b.WriteString(html.EscapeString(text[last:m[0]]))
        expr, display := submatch(text, m)
        if out, err := ts.Typeset(expr, display); err == nil {
            b.WriteString(out)
        } else {
            b.WriteString(html.EscapeString(text[m[0]:m[1]]))
        }
        last = m[1]
    }
    b.WriteString(html.EscapeString(text[last:]))
    return b.String()
}
