package mupdf

import (
    "strings"
    "testing"
)

func TestCleanText(t *testing.T) {
    e := New()
    raw := strings.Join([]string{
        "1. What is the capital of France?",
        "(A) Paris  (B) Lyon",
        "",
        "3",
        "Page 3",
        "- 3 -",
        "DO NOT WRITE IN THIS MARGIN",
        "Turn over",
        "****",
        "2. Next question text",
    }, "\n")

    cleaned := e.cleanText(raw, 3)

    for _, want := range []string{"capital of France", "(A) Paris", "Next question text"} {
        if !strings.Contains(cleaned, want) {
            t.Errorf("cleaned text lost %q:\n%s", want, cleaned)
        }
    }
    for _, dropped := range []string{"Page 3", "- 3 -", "DO NOT WRITE", "Turn over", "****"} {
        if strings.Contains(cleaned, dropped) {
            t.Errorf("cleaned text kept %q:\n%s", dropped, cleaned)
        }
    }
}

func TestIsPageNumber(t *testing.T) {
    e := New()
    cases := []struct {
        line string
        page int
        want bool
    }{
        {"7", 7, true},
        {"Page 7", 7, true},
        {"- 7 -", 7, true},
        {"[7]", 7, true},
        {"7 apples", 7, false},
        {"8", 7, false},
    }
    for _, tc := range cases {
        if got := e.isPageNumber(tc.line, tc.page); got != tc.want {
            t.Errorf("isPageNumber(%q, %d) = %v, want %v", tc.line, tc.page, got, tc.want)
        }
    }
}

func TestIsNoise(t *testing.T) {
    e := New()
    if !e.isNoise("---***---") {
        t.Error("separator line must count as noise")
    }
    if e.isNoise("x = 2") {
        t.Error("lines with alphanumerics are content")
    }
}
