package exam

import (
    "encoding/json"
    "strings"
)

// Option is a single answer choice. Labels are single uppercase letters,
// typically A-D, at most E.
type Option struct {
    Label string `json:"label"`
    Text  string `json:"text"`
}

// QuestionItem is one extracted multiple-choice question. Items are created
// by the extraction boundary and consumed read-only by the layout pipeline;
// input order is preserved end-to-end.
type QuestionItem struct {
    Text          string   `json:"text"`
    Options       []Option `json:"options"`
    CorrectAnswer string   `json:"correct_answer,omitempty"`
}

// Valid reports whether the item satisfies the extraction contract:
// non-empty text and at least two options. Invalid items are dropped at the
// extraction boundary, not inside the layout pipeline.
func (q QuestionItem) Valid() bool {
    return strings.TrimSpace(q.Text) != "" && len(q.Options) >= 2
}

// OptionText returns the text for a label, or "" when absent. Missing
// labels C/D/E are normal and must not fail.
func (q QuestionItem) OptionText(label string) string {
    for _, o := range q.Options {
        if o.Label == label {
            return o.Text
        }
    }
    return ""
}

// TestMetadata carries the descriptive header fields. Every field is
// optional; Defaults() documents the literal fallbacks used in the header.
type TestMetadata struct {
    Subject    string `json:"subject,omitempty"`
    Instructor string `json:"instructor,omitempty"`
    Class      string `json:"class,omitempty"`
    Date       string `json:"date,omitempty"`
    Duration   string `json:"duration,omitempty"`
    MaxMarks   string `json:"max_marks,omitempty"`
    MinMarks   string `json:"min_marks,omitempty"`
}

// WithDefaults returns a copy with documented literal defaults filled in
// for absent fields. Values pass through verbatim, no normalization.
func (m TestMetadata) WithDefaults() TestMetadata {
    def := func(v, d string) string {
        if strings.TrimSpace(v) == "" { return d }
        return v
    }
    return TestMetadata{
        Subject:    def(m.Subject, "General Knowledge"),
        Instructor: def(m.Instructor, "____________"),
        Class:      def(m.Class, "____________"),
        Date:       def(m.Date, "____________"),
        Duration:   def(m.Duration, "1 Hour"),
        MaxMarks:   def(m.MaxMarks, "100"),
        MinMarks:   def(m.MinMarks, "35"),
    }
}

// Snapshot is the JSON artifact saved next to every rendered PDF so a
// regenerate-with-edits flow can re-run layout without re-extraction.
type Snapshot struct {
    Metadata TestMetadata   `json:"metadata"`
    Items    []QuestionItem `json:"items"`
}

// EncodeSnapshot serializes a snapshot with stable indentation.
func EncodeSnapshot(meta TestMetadata, items []QuestionItem) ([]byte, error) {
    return json.MarshalIndent(Snapshot{Metadata: meta, Items: items}, "", "  ")
}

// DecodeSnapshot parses a snapshot written by EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
    var s Snapshot
    if err := json.Unmarshal(data, &s); err != nil {
        return Snapshot{}, err
    }
    return s, nil
}
