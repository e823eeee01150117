package web

import (
    "bytes"
    "fmt"
    "html/template"
    "io"
    "mime/multipart"
    "net/http"
    "os"
    "path/filepath"
    "strings"
)

// Web serves the operator dashboard: login, upload form, job progress and
// download links. It proxies to the local API rather than reaching into the
// orchestrator directly.
type Web struct {
    tpl      *template.Template
    username string
    password string
    port     string
}

func New() *Web {
    tpl := template.Must(template.ParseGlob(filepath.Join("web", "templates", "*.html")))
    return &Web{
        tpl:      tpl,
        username: os.Getenv("WEB_USERNAME"),
        password: os.Getenv("WEB_PASSWORD"),
        port:     getenv("PORT", "8080"),
    }
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/web/login", w.handleLogin)
    mux.HandleFunc("/web/logout", w.handleLogout)
    mux.HandleFunc("/web/", w.requireAuth(w.handleDashboard))
    mux.HandleFunc("/web/dashboard", w.requireAuth(w.handleDashboard))
    mux.HandleFunc("/web/upload", w.requireAuth(w.handleUpload))
    mux.HandleFunc("/web/progress/", w.requireAuth(w.handleProgress))
    mux.HandleFunc("/web/download/", w.requireAuth(w.handleDownload))
}

func (w *Web) render(wr http.ResponseWriter, name string, data any) {
    _ = w.tpl.ExecuteTemplate(wr, name, data)
}

func (w *Web) requireAuth(next http.HandlerFunc) http.HandlerFunc {
    return func(wr http.ResponseWriter, r *http.Request) {
        if w.username == "" || w.password == "" {
            http.Error(wr, "WEB_USERNAME/WEB_PASSWORD not set", http.StatusForbidden)
            return
        }
        c, err := r.Cookie("auth")
        if err != nil || c.Value != "1" {
            http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
            return
        }
        next(wr, r)
    }
}

func (w *Web) handleLogin(wr http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        w.render(wr, "login.html", map[string]any{"Error": r.URL.Query().Get("error")})
    case http.MethodPost:
        if err := r.ParseForm(); err != nil {
            http.Redirect(wr, r, "/web/login?error=invalid+form", http.StatusSeeOther)
            return
        }
        if r.Form.Get("username") == w.username && r.Form.Get("password") == w.password {
            http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "1", Path: "/", HttpOnly: true})
            http.Redirect(wr, r, "/web/dashboard", http.StatusSeeOther)
            return
        }
        http.Redirect(wr, r, "/web/login?error=invalid+credentials", http.StatusSeeOther)
    default:
        wr.WriteHeader(http.StatusMethodNotAllowed)
    }
}

func (w *Web) handleLogout(wr http.ResponseWriter, r *http.Request) {
    http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "", Path: "/", MaxAge: -1})
    http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
}

func (w *Web) handleDashboard(wr http.ResponseWriter, r *http.Request) {
    w.render(wr, "dashboard.html", map[string]any{
        "Username": w.username,
    })
}

// handleUpload proxies the multipart upload from the dashboard to the API
// endpoint /generate_exam_upload.
func (w *Web) handleUpload(wr http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        wr.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if err := r.ParseMultipartForm(64 << 20); err != nil {
        http.Error(wr, "invalid multipart form", http.StatusBadRequest)
        return
    }

    var b bytes.Buffer
    mw := multipart.NewWriter(&b)

    file, hdr, err := r.FormFile("file")
    if err != nil {
        http.Error(wr, "missing file", http.StatusBadRequest)
        return
    }
    defer file.Close()
    fw, err := mw.CreateFormFile("file", hdr.Filename)
    if err != nil {
        http.Error(wr, "upload error", http.StatusInternalServerError)
        return
    }
    if _, err := io.Copy(fw, file); err != nil {
        http.Error(wr, "upload error", http.StatusInternalServerError)
        return
    }

    for _, k := range []string{"user_name", "ai_engine", "target_pages", "subject", "instructor", "class", "date", "duration", "max_marks", "min_marks"} {
        if v := r.FormValue(k); v != "" {
            _ = mw.WriteField(k, v)
        }
    }
    _ = mw.Close()

    url := fmt.Sprintf("http://127.0.0.1:%s/generate_exam_upload", w.port)
    req, _ := http.NewRequest(http.MethodPost, url, &b)
    req.Header.Set("Content-Type", mw.FormDataContentType())
    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        http.Error(wr, "request failed", http.StatusInternalServerError)
        return
    }
    defer resp.Body.Close()
    wr.Header().Set("Content-Type", "application/json")
    wr.WriteHeader(resp.StatusCode)
    io.Copy(wr, resp.Body)
}

func (w *Web) handleProgress(wr http.ResponseWriter, r *http.Request) {
    jobID := strings.TrimPrefix(r.URL.Path, "/web/progress/")
    url := fmt.Sprintf("http://127.0.0.1:%s/progress/%s", w.port, jobID)
    resp, err := http.Get(url)
    if err != nil {
        http.Error(wr, "progress failed", http.StatusInternalServerError)
        return
    }
    defer resp.Body.Close()
    wr.Header().Set("Content-Type", "application/json")
    io.Copy(wr, resp.Body)
}

func (w *Web) handleDownload(wr http.ResponseWriter, r *http.Request) {
    jobID := strings.TrimPrefix(r.URL.Path, "/web/download/")
    url := fmt.Sprintf("http://127.0.0.1:%s/download_exam/%s", w.port, jobID)
    if f := r.URL.Query().Get("format"); f != "" {
        url += "?format=" + f
    }
    resp, err := http.Get(url)
    if err != nil {
        http.Error(wr, "download failed", http.StatusInternalServerError)
        return
    }
    defer resp.Body.Close()
    for _, h := range []string{"Content-Type", "Content-Disposition"} {
        if v := resp.Header.Get(h); v != "" {
            wr.Header().Set(h, v)
        }
    }
    wr.WriteHeader(resp.StatusCode)
    io.Copy(wr, resp.Body)
}

func getenv(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}
