package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"mindcare-web/internal/middleware"
	"mindcare-web/internal/survey"
	"mindcare-web/web"
)

// page is the data handed to a template.
type page map[string]any

type views struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Local().Format("Mon, Jan 2 2006 at 3:04 PM")
	},
	"date":    func(t time.Time) string { return t.Local().Format("Jan 2, 2006") },
	"clock":   func(t time.Time) string { return t.Local().Format("3:04 PM") },
	"rfc3339": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"nl2br": func(s string) template.HTML {
		return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
	},
	"title":  titleCase,
	"join":   strings.Join,
	"itoa":   strconv.Itoa,
	"fixed1": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	"pct":    func(f float64) string { return strconv.FormatFloat(f, 'f', 0, 64) + "%" },
	"deref": func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	},
	// mood averages are 1..5
	"bar": func(p *float64) int {
		if p == nil {
			return 0
		}
		return int(*p / 5 * 100)
	},
	"excerpt": excerpt,
	"answer":  survey.Display,
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

func loadViews() (*views, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(web.FS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	files, err := fs.Glob(web.FS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob pages: %w", err)
	}
	v := &views{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(web.FS, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		v.pages[path.Base(f)] = t
	}
	return v, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if p == nil {
		p = page{}
	}
	p["Path"] = r.URL.Path
	p["Role"] = ""
	if s := middleware.SessionFrom(r.Context()); s != nil {
		p["Role"] = string(s.Claims.Role)
		p["UserName"] = s.Claims.Name
	}
	if _, ok := p["Flash"]; !ok {
		p["Flash"] = h.popFlash(w, r)
	}

	t, ok := h.views.pages[name]
	if !ok {
		h.log.Error("unknown template", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", p); err != nil {
		h.log.Error("render failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// setFlash leaves a one-shot message for the page after a redirect.
func (h *Handler) setFlash(w http.ResponseWriter, r *http.Request, msg string) {
	if err := h.sessions.Flashes().Add(w, r, msg); err != nil {
		h.log.Warn("set flash", "error", err)
	}
}

func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) string {
	return h.sessions.Flashes().Pop(w, r)
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, msg string) {
	h.setFlash(w, r, msg)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
