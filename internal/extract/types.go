package extract

import (
    "context"
    "errors"
    "time"

    "github.com/local/examforge/internal/exam"
)

// Request carries everything a vision provider needs to extract the
// questions from one page image.
type Request struct {
    JobID        string
    PageID       int
    Model        string
    Timeout      time.Duration
    ImageBase64  string // base64 encoded page image
    ImageMIME    string // image MIME type (image/jpeg)
    SystemPrompt string // extraction instructions; DefaultSystemPrompt when empty
    PageText     string // born-digital text for the page, when available
}

// Response is one provider answer, already parsed into question items.
// A page whose output parses to zero valid items is a soft failure the
// caller handles by contributing nothing from that page.
type Response struct {
    Items     []exam.QuestionItem
    RawText   string
    TokensIn  int
    TokensOut int
}

// Client is the extraction boundary implemented per provider.
type Client interface {
    Name() string
    Do(ctx context.Context, req Request) (Response, error)
}

var (
    ErrRateLimited    = errors.New("rate_limited")
    ErrContentRefused = errors.New("content_refused")
)

func IsRateLimited(err error) bool    { return errors.Is(err, ErrRateLimited) }
func IsContentRefused(err error) bool { return errors.Is(err, ErrContentRefused) }

// DefaultSystemPrompt instructs the model to emit the strict JSON shape
// ParseItems understands.
const DefaultSystemPrompt = `You read scanned or photographed multiple-choice test papers, handwritten or printed.
Extract EVERY question visible on the page. Return ONLY a JSON array - no markdown code fences, no commentary:
[
  {"text": "question text", "options": {"A": "first option", "B": "second option"}, "correct_answer": "A"}
]
RULES:
- Preserve the order questions appear on the page.
- Keep any leading question number in "text" exactly as written.
- Option labels are single uppercase letters A-E.
- Write mathematical notation as LaTeX inside \( .. \) for inline and \[ .. \] for display math.
- Omit "correct_answer" when no answer is marked.
- Skip anything that is not a multiple-choice question.`
