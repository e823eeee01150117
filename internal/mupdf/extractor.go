package mupdf

import (
    "fmt"
    "strings"

    "github.com/gen2brain/go-fitz"
    "github.com/rs/zerolog/log"
)

// Extractor pulls raw page text out of a PDF with go-fitz. The text is not
// reliable enough to extract questions from directly (math and multi-column
// papers come out scrambled) but makes a useful hint alongside the page image.
type Extractor struct{}

func New() *Extractor {
    return &Extractor{}
}

// PageCount returns the number of pages in a PDF.
func (e *Extractor) PageCount(pdfPath string) (int, error) {
    doc, err := fitz.New(pdfPath)
    if err != nil {
        return 0, fmt.Errorf("failed to open PDF: %w", err)
    }
    defer doc.Close()

    return doc.NumPage(), nil
}

// PageText extracts cleaned text from a specific page. pageNum is 1-based.
func (e *Extractor) PageText(pdfPath string, pageNum int) (string, error) {
    doc, err := fitz.New(pdfPath)
    if err != nil {
        return "", fmt.Errorf("failed to open PDF: %w", err)
    }
    defer doc.Close()

    pageIndex := pageNum - 1
    if pageIndex < 0 || pageIndex >= doc.NumPage() {
        return "", fmt.Errorf("page %d out of range (document has %d pages)", pageNum, doc.NumPage())
    }

    rawText, err := doc.Text(pageIndex)
    if err != nil {
        return "", fmt.Errorf("failed to extract text from page %d: %w", pageNum, err)
    }

    cleaned := e.cleanText(rawText, pageNum)

    log.Debug().
        Int("page", pageNum).
        Int("raw_chars", len(rawText)).
        Int("cleaned_chars", len(cleaned)).
        Msg("extracted page text")

    return cleaned, nil
}

// cleanText drops page numbers, running headers and scan noise so the hint
// text stays close to the question content.
func (e *Extractor) cleanText(text string, pageNum int) string {
    lines := strings.Split(text, "\n")
    var cleanedLines []string

    for _, line := range lines {
        trimmed := strings.TrimSpace(line)

        if trimmed == "" {
            continue
        }
        if e.isPageNumber(trimmed, pageNum) {
            continue
        }
        if e.isHeaderFooter(trimmed) {
            continue
        }
        if e.isNoise(trimmed) {
            continue
        }

        cleanedLines = append(cleanedLines, line)
    }

    return strings.TrimSpace(strings.Join(cleanedLines, "\n"))
}

func (e *Extractor) isPageNumber(line string, pageNum int) bool {
    if line == fmt.Sprintf("%d", pageNum) {
        return true
    }

    patterns := []string{
        fmt.Sprintf("Page %d", pageNum),
        fmt.Sprintf("- %d -", pageNum),
        fmt.Sprintf("[%d]", pageNum),
    }

    for _, pattern := range patterns {
        if strings.EqualFold(line, pattern) {
            return true
        }
    }

    return false
}

func (e *Extractor) isHeaderFooter(line string) bool {
    if len(line) < 3 {
        return true
    }

    footerPatterns := []string{
        "DO NOT WRITE",
        "TURN OVER",
        "CONTINUED ON NEXT PAGE",
        "ALL RIGHTS RESERVED",
        "CONFIDENTIAL",
    }

    upperLine := strings.ToUpper(line)
    for _, pattern := range footerPatterns {
        if strings.Contains(upperLine, pattern) && len(line) < 100 {
            return true
        }
    }

    return false
}

func (e *Extractor) isNoise(line string) bool {
    // Just special characters
    for _, r := range line {
        if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
            return false
        }
    }
    return true
}
