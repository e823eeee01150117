package dispatcher

import (
    "encoding/json"
    "io"
    "net/http"
    "net/http/httptest"
    "net/url"
    "testing"

    "github.com/local/examforge/internal/exam"
)

// serverPort extracts the port an httptest server is listening on so
// reportPageDone's loopback URL hits it.
func serverPort(t *testing.T, ts *httptest.Server) string {
    t.Helper()
    u, err := url.Parse(ts.URL)
    if err != nil {
        t.Fatal(err)
    }
    return u.Port()
}

func TestReportPageDone_DeliversItems(t *testing.T) {
    var gotJob, gotPage string
    var gotBody struct {
        Items    []exam.QuestionItem `json:"items"`
        Provider string              `json:"provider"`
    }
    ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotJob = r.URL.Query().Get("job_id")
        gotPage = r.URL.Query().Get("page_id")
        b, _ := io.ReadAll(r.Body)
        _ = json.Unmarshal(b, &gotBody)
        w.WriteHeader(http.StatusNoContent)
    }))
    defer ts.Close()

    w := &Worker{}
    job := PageJob{JobID: "j1", PageID: 3}
    items := []exam.QuestionItem{{Text: "q1"}}
    if err := w.reportPageDone(serverPort(t, ts), job, "openai", "gpt-4o", items); err != nil {
        t.Fatalf("reportPageDone: %v", err)
    }
    if gotJob != "j1" || gotPage != "3" {
        t.Errorf("query = job_id=%q page_id=%q", gotJob, gotPage)
    }
    if len(gotBody.Items) != 1 || gotBody.Provider != "openai" {
        t.Errorf("body = %+v", gotBody)
    }
}

func TestReportPageDone_ErrorStatusIsFailure(t *testing.T) {
    ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "down", http.StatusInternalServerError)
    }))
    defer ts.Close()

    w := &Worker{}
    if err := w.reportPageDone(serverPort(t, ts), PageJob{JobID: "j1", PageID: 1}, "openai", "gpt-4o", nil); err == nil {
        t.Fatal("non-2xx answer must count as a failed delivery")
    }
}

func TestReportPageDone_ConnectionErrorIsFailure(t *testing.T) {
    ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
    port := serverPort(t, ts)
    ts.Close()

    w := &Worker{}
    if err := w.reportPageDone(port, PageJob{JobID: "j1", PageID: 1}, "openai", "gpt-4o", nil); err == nil {
        t.Fatal("unreachable orchestrator must count as a failed delivery")
    }
}
