// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/campaignboard/internal/adapters/render"
	"github.com/okian/campaignboard/internal/domain/model"
	"github.com/okian/campaignboard/internal/domain/types"
	"github.com/okian/campaignboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Pages(ctx context.Context) []types.PageSummary
	Page(ctx context.Context, id string) (types.PageDetail, error)
	Preview(ctx context.Context, id string, offset, limit int) (types.Preview, error)
	Chart(ctx context.Context, id string, q types.SelectionQuery) (model.ChartSpec, error)
	Render(ctx context.Context, id string, q types.SelectionQuery, format render.Format, w io.Writer) error
	Export(ctx context.Context, id string, q types.SelectionQuery, w io.Writer) error
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	pagesHandler     *PagesHandler
	dashboardHandler *dashboardHandler
	log              logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Get()
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		pagesHandler:     NewPagesHandler(deps, log),
		dashboardHandler: newdashboardHandler(),
		log:              log,
	}
}

// Routes returns a router with every route registered.
func (s *Server) Routes(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(RequestID)
	r.Use(AccessLog(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/dashboard", http.StatusFound)
	})
	r.Get("/dashboard", s.dashboardHandler.HandleDashboard)
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	h := s.pagesHandler
	r.Route("/api/pages", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(h.HandleList, "pages"))
		r.Route("/{page}", func(r chi.Router) {
			r.Get("/", MetricsMiddleware(h.HandleDetail, "page"))
			r.Get("/preview", MetricsMiddleware(h.HandlePreview, "preview"))
			r.Get("/chart", MetricsMiddleware(h.HandleChart, "chart"))
			r.Get("/chart.png", MetricsMiddleware(h.HandleImage(render.FormatPNG), "chart_png"))
			r.Get("/chart.svg", MetricsMiddleware(h.HandleImage(render.FormatSVG), "chart_svg"))
			r.Get("/export.xlsx", MetricsMiddleware(h.HandleExport, "export"))
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
