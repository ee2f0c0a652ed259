// internal/api/handler/web/handler.go
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/newthinker/pulse/internal/dashboard"
	"github.com/newthinker/pulse/internal/format"
	"github.com/newthinker/pulse/internal/logger"
)

//go:embed templates/*
var templateFS embed.FS

var pages = []string{"dashboard.html", "backtest.html"}

// DefaultAssets are the asset picker buttons on the backtest page.
var DefaultAssets = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT"}

// Options wires a Handler to the rest of the server.
type Options struct {
	// TemplatesDir overrides the embedded templates when set.
	TemplatesDir string
	Board        *dashboard.Board
	Runner       BacktestRunner
	Intervals    dashboard.Intervals
	Assets       []string
	CSRFCookie   string
	Logger       *zap.Logger
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds one template set per page: layout.html plus the page.
	pageTemplates map[string]*template.Template
	result        *template.Template

	board      *dashboard.Board
	runner     BacktestRunner
	intervals  dashboard.Intervals
	assets     []string
	csrfCookie string
	logger     *zap.Logger
}

var funcs = template.FuncMap{
	"horizonLabel": format.HorizonLabel,
	"riskLabel":    format.RiskLabel,
	"usageWidth":   format.UsageWidth,
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// NewHandler creates a web handler. Templates come from opts.TemplatesDir
// when set, otherwise from the embedded set.
func NewHandler(opts Options) (*Handler, error) {
	fsys := TemplateFS()
	if opts.TemplatesDir != "" {
		fsys = os.DirFS(opts.TemplatesDir)
	}
	return NewHandlerWithFS(fsys, opts)
}

// NewHandlerWithFS creates a web handler using a custom filesystem.
func NewHandlerWithFS(fsys fs.FS, opts Options) (*Handler, error) {
	pageTemplates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	result, err := template.New("result.html").Funcs(funcs).ParseFS(fsys, "result.html")
	if err != nil {
		return nil, fmt.Errorf("parsing template result.html: %w", err)
	}

	if opts.Board == nil {
		opts.Board = dashboard.NewBoard()
	}
	if len(opts.Assets) == 0 {
		opts.Assets = DefaultAssets
	}
	if opts.CSRFCookie == "" {
		opts.CSRFCookie = "csrftoken"
	}

	return &Handler{
		pageTemplates: pageTemplates,
		result:        result,
		board:         opts.Board,
		runner:        opts.Runner,
		intervals:     opts.Intervals,
		assets:        opts.Assets,
		csrfCookie:    opts.CSRFCookie,
		logger:        logger.OrNop(opts.Logger),
	}, nil
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error("rendering page", zap.String("page", page), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return templateFS
	}
	return subFS
}
