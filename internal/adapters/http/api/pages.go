// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/campaignboard/internal/adapters/render"
	"github.com/okian/campaignboard/internal/domain/types"
	"github.com/okian/campaignboard/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PagesHandler serves the page, preview, chart and export routes.
type PagesHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewPagesHandler creates a new pages handler.
func NewPagesHandler(deps Dependencies, log logger.Logger) *PagesHandler {
	return &PagesHandler{deps: deps, log: log}
}

// HandleList handles GET /api/pages.
func (h *PagesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Pages(r.Context()))
}

// HandleDetail handles GET /api/pages/{page}.
func (h *PagesHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_page"
	detail, err := h.deps.Page(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandlePreview handles GET /api/pages/{page}/preview?offset=N&limit=N.
func (h *PagesHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_preview"
	q := r.URL.Query()
	offset, err := intParam(q, "offset")
	if err != nil {
		h.fail(w, r, Invalid(op, err))
		return
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		h.fail(w, r, Invalid(op, err))
		return
	}

	preview, err := h.deps.Preview(r.Context(), chi.URLParam(r, "page"), offset, limit)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// HandleChart handles GET /api/pages/{page}/chart.
func (h *PagesHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_chart"
	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		h.fail(w, r, Invalid(op, err))
		return
	}
	spec, err := h.deps.Chart(r.Context(), chi.URLParam(r, "page"), sel)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewChartView(spec))
}

// HandleImage returns the handler of GET /api/pages/{page}/chart.<format>.
func (h *PagesHandler) HandleImage(format render.Format) http.HandlerFunc {
	op := "api.render_" + string(format)
	return func(w http.ResponseWriter, r *http.Request) {
		sel, err := parseSelection(r.URL.Query())
		if err != nil {
			h.fail(w, r, Invalid(op, err))
			return
		}
		var buf bytes.Buffer
		if err := h.deps.Render(r.Context(), chi.URLParam(r, "page"), sel, format, &buf); err != nil {
			h.fail(w, r, Wrap(op, err))
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// HandleExport handles GET /api/pages/{page}/export.xlsx.
func (h *PagesHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		h.fail(w, r, Invalid(op, err))
		return
	}
	id := chi.URLParam(r, "page")
	var buf bytes.Buffer
	if err := h.deps.Export(r.Context(), id, sel, &buf); err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// fail writes err as a JSON error. Server-side failures are logged; requests
// that ended with their context only at debug level.
func (h *PagesHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	switch {
	case abandoned(err):
		h.log.Debug(r.Context(), "request abandoned",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	case status >= statusInternalError:
		h.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}

// parseSelection reads metric, region, year and mode. A parameter that is
// absent keeps the page default; one given only with empty values selects
// nothing. Lists are given by repeating the parameter.
func parseSelection(q url.Values) (types.SelectionQuery, error) {
	sel := types.SelectionQuery{
		Metric:  strings.TrimSpace(q.Get("metric")),
		Regions: listParam(q, "region"),
		Modes:   listParam(q, "mode"),
	}
	years := listParam(q, "year")
	if years != nil {
		sel.Years = make([]int, 0, len(years))
		for _, v := range years {
			y, err := strconv.Atoi(v)
			if err != nil {
				return types.SelectionQuery{}, fmt.Errorf("invalid year %q", v)
			}
			sel.Years = append(sel.Years, y)
		}
	}
	return sel, nil
}

// listParam returns the repeated values of key. Values are taken whole so
// names may contain commas. An absent key is nil, a key with only blank
// values is an empty list.
func listParam(q url.Values, key string) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func intParam(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}
