package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/luokaci05/btctrack/service/aggregate"
	"github.com/luokaci05/btctrack/service/config"
	"github.com/luokaci05/btctrack/service/txfilter"
)

//go:embed templates/*.html
var templatesFS embed.FS

// TemplateRenderer holds the parsed dashboard templates.
type TemplateRenderer struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewTemplateRenderer parses every embedded template up front so a broken
// template fails at startup, not on first render.
func NewTemplateRenderer(logger *slog.Logger) (*TemplateRenderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &TemplateRenderer{templates: tmpl, logger: logger}, nil
}

// Render executes the named template into the response.
func (tr *TemplateRenderer) Render(w http.ResponseWriter, name string, data any) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tr.templates.ExecuteTemplate(w, name, data)
}

// handleDashboardPage serves the tracker dashboard. The period and
// granularity selects are populated from the same label lists the rest of
// the application uses, so the dashboard can never drift from the API.
func handleDashboardPage(renderer *TemplateRenderer, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"DefaultAddress": cfg.DefaultAddress,
			"Periods":        txfilter.Periods(),
			"Granularities":  aggregate.Granularities(),
		}
		if err := renderer.Render(w, "dashboard.html", data); err != nil {
			renderer.logger.Error("failed to render template", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}
