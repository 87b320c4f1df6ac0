package dashboard

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xen0bit/dashchart/pkg/endpoint"
	"github.com/xen0bit/dashchart/pkg/render"
)

type HandlerDeps struct {
	Config *Config
	// Fetcher loads dynamic filter options. Nil leaves options as configured.
	Fetcher endpoint.Fetcher
	// BaseURL is the data endpoint instance. Empty means the serving host.
	BaseURL string
	Logger  *slog.Logger
}

type Handler struct {
	config  *Config
	fetcher endpoint.Fetcher
	baseURL string
	logger  *slog.Logger
}

func NewHandler(router *http.ServeMux, deps HandlerDeps) *Handler {
	h := &Handler{
		config:  deps.Config,
		fetcher: deps.Fetcher,
		baseURL: deps.BaseURL,
		logger:  deps.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	router.Handle("GET /-/dashboards", h.List())
	router.Handle("GET /-/dashboards/{slug}", h.View(false))
	router.Handle("GET /-/dashboards/{slug}/embed", h.View(true))
	router.Handle("GET /-/dashboards/{slug}/{chart}", h.Chart(false))
	router.Handle("GET /-/dashboards/{slug}/{chart}/embed", h.Chart(true))
	return h
}

type summary struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Charts      int    `json:"charts"`
}

func (h *Handler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]summary, 0, len(h.config.Dashboards))
		for _, slug := range h.config.Slugs() {
			d := h.config.Dashboards[slug]
			out = append(out, summary{Slug: slug, Title: d.Title, Description: d.Description, Charts: len(d.Charts)})
		}
		writeJSON(w, map[string]any{"dashboards": out}, http.StatusOK)
	}
}

type dashboardView struct {
	*Resolved
	Embed bool `json:"embed"`
}

// View serves a dashboard with its filters applied. Embedded views carry the
// same data and are flagged so the page drops its chrome.
func (h *Handler) View(embed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		d, ok := h.config.Dashboard(slug)
		if !ok {
			writeJSON(w, map[string]any{"error": fmt.Sprintf("Dashboard not found: %s", slug)}, http.StatusNotFound)
			return
		}

		args := r.URL.Query()
		if qs, ok := RedirectQuery(d, args); ok {
			for _, c := range r.Cookies() {
				http.SetCookie(w, c)
			}
			http.Redirect(w, r, r.URL.Path+"?"+qs, http.StatusFound)
			return
		}

		resolved, err := Resolve(r.Context(), h.fetcher, h.base(r), d, args)
		if err != nil {
			h.logger.Error("failed to resolve dashboard", "slug", slug, "error", err)
			writeJSON(w, map[string]any{"error": err.Error()}, http.StatusBadGateway)
			return
		}
		writeJSON(w, dashboardView{Resolved: resolved, Embed: embed}, http.StatusOK)
	}
}

type chartView struct {
	Dashboard   string `json:"dashboard"`
	Chart       Chart  `json:"chart"`
	BaseURL     string `json:"absolute_url"`
	QueryString string `json:"query_string"`
	DataURL     string `json:"data_url,omitempty"`
	HTML        string `json:"html,omitempty"`
	Embed       bool   `json:"embed"`
}

func (h *Handler) Chart(embed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		d, ok := h.config.Dashboard(slug)
		if !ok {
			writeJSON(w, map[string]any{"error": fmt.Sprintf("Dashboard not found: %s", slug)}, http.StatusNotFound)
			return
		}
		chartSlug := r.PathValue("chart")
		if _, ok := d.Chart(chartSlug); !ok {
			writeJSON(w, map[string]any{"error": fmt.Sprintf("Chart does not exist: %s", chartSlug)}, http.StatusNotFound)
			return
		}

		resolved, err := Resolve(r.Context(), nil, h.base(r), d, r.URL.Query())
		if err != nil {
			writeJSON(w, map[string]any{"error": err.Error()}, http.StatusBadRequest)
			return
		}
		c, _ := resolved.Dashboard.Chart(chartSlug)

		out := chartView{
			Dashboard:   slug,
			Chart:       c,
			BaseURL:     resolved.BaseURL,
			QueryString: resolved.QueryString,
			Embed:       embed,
		}
		if c.IsMarkdown() {
			html, err := c.RenderMarkdown()
			if err != nil {
				writeJSON(w, map[string]any{"error": err.Error()}, http.StatusUnprocessableEntity)
				return
			}
			out.HTML = html
		}
		if rr, ok := render.DefaultRegistry().Lookup(c.Library); ok && c.Database != "" {
			out.DataURL = endpoint.ChartURL(c.Descriptor(), resolved.RenderContext(chartSlug, false), rr.Shape())
		}
		writeJSON(w, out, http.StatusOK)
	}
}

func (h *Handler) base(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}

func writeJSON(w http.ResponseWriter, body any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
