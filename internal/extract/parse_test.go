package extract

import "testing"

func TestParseItems_MapOptions(t *testing.T) {
    raw := `[
        {"text": "1. What is \\( 2+2 \\)?", "options": {"A": "3", "B": "4", "C": "5"}, "correct_answer": "b"},
        {"text": "Second question", "options": {"B": "no", "A": "yes"}}
    ]`
    items := ParseItems(raw)
    if len(items) != 2 {
        t.Fatalf("got %d items, want 2", len(items))
    }
    if items[0].CorrectAnswer != "B" {
        t.Errorf("correct answer not normalized: %q", items[0].CorrectAnswer)
    }
    if items[1].Options[0].Label != "A" || items[1].Options[1].Label != "B" {
        t.Errorf("map options not ordered by label: %+v", items[1].Options)
    }
}

func TestParseItems_ArrayOptions(t *testing.T) {
    raw := `[{"question": "Pick one", "options": ["alpha", "beta", "gamma"]}]`
    items := ParseItems(raw)
    if len(items) != 1 {
        t.Fatalf("got %d items, want 1", len(items))
    }
    opts := items[0].Options
    if len(opts) != 3 || opts[0].Label != "A" || opts[2].Label != "C" {
        t.Errorf("array options not labeled in order: %+v", opts)
    }
}

func TestParseItems_DropsInvalid(t *testing.T) {
    raw := `[
        {"text": "", "options": {"A": "x", "B": "y"}},
        {"text": "only one option", "options": {"A": "x"}},
        {"text": "valid", "options": {"A": "x", "B": "y"}}
    ]`
    items := ParseItems(raw)
    if len(items) != 1 || items[0].Text != "valid" {
        t.Errorf("invalid items not dropped: %+v", items)
    }
}

func TestParseItems_CodeFences(t *testing.T) {
    raw := "```json\n[{\"text\": \"fenced\", \"options\": {\"A\": \"1\", \"B\": \"2\"}}]\n```"
    items := ParseItems(raw)
    if len(items) != 1 || items[0].Text != "fenced" {
        t.Errorf("fenced JSON not parsed: %+v", items)
    }
}

func TestParseItems_QuestionsWrapper(t *testing.T) {
    raw := `{"questions": [{"text": "wrapped", "options": {"A": "1", "B": "2"}}]}`
    items := ParseItems(raw)
    if len(items) != 1 || items[0].Text != "wrapped" {
        t.Errorf("wrapper object not parsed: %+v", items)
    }
}

func TestParseItems_Garbage(t *testing.T) {
    for _, raw := range []string{"", "not json at all", "{\"weird\": true}", "[]"} {
        if items := ParseItems(raw); len(items) != 0 {
            t.Errorf("ParseItems(%q) = %+v, want empty", raw, items)
        }
    }
}
