package dispatcher

import (
    "context"
    "errors"
    "fmt"
    "testing"

    "github.com/local/examforge/internal/extract"
)

func TestIsTransientError(t *testing.T) {
    cases := []struct {
        name string
        err  error
        want bool
    }{
        {"nil", nil, false},
        {"rate limited sentinel", extract.ErrRateLimited, true},
        {"content refused", extract.ErrContentRefused, true},
        {"deadline", context.DeadlineExceeded, true},
        {"rate limit struct", &RateLimitError{Provider: "openai", Model: "m", Reason: "inflight limit"}, true},
        {"http 500", &HTTPError{StatusCode: 500, Provider: "openai"}, true},
        {"http 429", &HTTPError{StatusCode: 429, Provider: "anthropic"}, true},
        {"http 400", &HTTPError{StatusCode: 400, Provider: "openai"}, false},
        {"connection refused", errors.New("dial tcp: connection refused"), true},
        {"plain failure", errors.New("something else entirely"), false},
        {"wrapped deadline", fmt.Errorf("call failed: %w", context.DeadlineExceeded), true},
    }
    for _, tc := range cases {
        if got := isTransientError(tc.err); got != tc.want {
            t.Errorf("%s: isTransientError = %v, want %v", tc.name, got, tc.want)
        }
    }
}

func TestIsFatalError(t *testing.T) {
    cases := []struct {
        name string
        err  error
        want bool
    }{
        {"nil", nil, false},
        {"validation", &ValidationError{Message: "missing image"}, true},
        {"http 400", &HTTPError{StatusCode: 400, Provider: "openai"}, true},
        {"http 401", &HTTPError{StatusCode: 401, Provider: "openai"}, true},
        {"http 429 not fatal", &HTTPError{StatusCode: 429, Provider: "openai"}, false},
        {"http 503 not fatal", &HTTPError{StatusCode: 503, Provider: "openai"}, false},
        {"bad request keyword", errors.New("provider said: bad request"), true},
        {"generic", errors.New("flaky network thing"), false},
    }
    for _, tc := range cases {
        if got := isFatalError(tc.err); got != tc.want {
            t.Errorf("%s: isFatalError = %v, want %v", tc.name, got, tc.want)
        }
    }
}
