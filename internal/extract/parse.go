package extract

import (
    "encoding/json"
    "sort"
    "strings"

    "github.com/local/examforge/internal/exam"
)

// rawItem tolerates the shapes models actually produce: options as a
// label map or as a bare array, stray fields ignored.
type rawItem struct {
    Text          string          `json:"text"`
    Question      string          `json:"question"`
    Options       json.RawMessage `json:"options"`
    CorrectAnswer string          `json:"correct_answer"`
}

// ParseItems converts a model reply into validated question items.
// It strips code fences, accepts either a bare array or an object with a
// "questions" field, and drops items violating the extraction contract
// (empty text or fewer than two options). It never fails: unparseable
// output yields an empty list, which the caller treats as a failed page.
func ParseItems(raw string) []exam.QuestionItem {
    s := stripFences(raw)
    if s == "" {
        return nil
    }

    var rows []rawItem
    if err := json.Unmarshal([]byte(s), &rows); err != nil {
        var wrapper struct {
            Questions []rawItem `json:"questions"`
        }
        if err := json.Unmarshal([]byte(s), &wrapper); err != nil {
            return nil
        }
        rows = wrapper.Questions
    }

    items := make([]exam.QuestionItem, 0, len(rows))
    for _, r := range rows {
        text := r.Text
        if text == "" {
            text = r.Question
        }
        item := exam.QuestionItem{
            Text:          text,
            Options:       parseOptions(r.Options),
            CorrectAnswer: strings.ToUpper(strings.TrimSpace(r.CorrectAnswer)),
        }
        if item.Valid() {
            items = append(items, item)
        }
    }
    return items
}

// parseOptions accepts {"A": "..."} maps or ["...", "..."] arrays; array
// entries are labeled A, B, C... in order. Labels are normalized to a
// single uppercase letter and deduplicated; map input is ordered by label
// so output is deterministic.
func parseOptions(raw json.RawMessage) []exam.Option {
    if len(raw) == 0 {
        return nil
    }

    var byLabel map[string]string
    if err := json.Unmarshal(raw, &byLabel); err == nil {
        labels := make([]string, 0, len(byLabel))
        for l := range byLabel {
            labels = append(labels, l)
        }
        sort.Strings(labels)
        opts := make([]exam.Option, 0, len(labels))
        seen := map[string]bool{}
        for _, l := range labels {
            norm := normalizeLabel(l)
            if norm == "" || seen[norm] {
                continue
            }
            seen[norm] = true
            opts = append(opts, exam.Option{Label: norm, Text: strings.TrimSpace(byLabel[l])})
        }
        return opts
    }

    var list []string
    if err := json.Unmarshal(raw, &list); err == nil {
        opts := make([]exam.Option, 0, len(list))
        for i, text := range list {
            if i >= 5 { // labels stop at E
                break
            }
            opts = append(opts, exam.Option{Label: string(rune('A' + i)), Text: strings.TrimSpace(text)})
        }
        return opts
    }

    return nil
}

func normalizeLabel(l string) string {
    l = strings.ToUpper(strings.TrimSpace(l))
    l = strings.Trim(l, ".)(")
    if len(l) != 1 || l[0] < 'A' || l[0] > 'E' {
        return ""
    }
    return l
}

// stripFences removes a surrounding markdown code fence, with or without
// a language tag, and trims whitespace.
func stripFences(s string) string {
    s = strings.TrimSpace(s)
    if !strings.HasPrefix(s, "```") {
        return s
    }
    s = strings.TrimPrefix(s, "```")
    if i := strings.Index(s, "\n"); i >= 0 {
        s = s[i+1:]
    }
    s = strings.TrimSuffix(strings.TrimSpace(s), "```")
    return strings.TrimSpace(s)
}
