package layout

import (
    "unicode/utf8"

    "github.com/local/examforge/internal/exam"
)

// Score returns the content weight of one item: the character count of the
// question text plus the character counts of all present option values.
// It is a proxy for rendered height, used only as an aggregate signal and
// never to reorder items.
func Score(item exam.QuestionItem) int {
    w := utf8.RuneCountInString(item.Text)
    for _, o := range item.Options {
        w += utf8.RuneCountInString(o.Text)
    }
    return w
}

// TotalWeight sums Score over all items.
func TotalWeight(items []exam.QuestionItem) int {
    total := 0
    for _, it := range items {
        total += Score(it)
    }
    return total
}

// AverageWeight returns TotalWeight divided by the item count, or 0 for an
// empty list.
func AverageWeight(items []exam.QuestionItem) float64 {
    if len(items) == 0 {
        return 0
    }
    return float64(TotalWeight(items)) / float64(len(items))
}
