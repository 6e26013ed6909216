package dashboard

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "wlacli/internal/errors"
	"wlacli/pkg/contracts"
)

// Handler exposes the dashboard HTTP API.
type Handler struct {
	service        *Service
	defaultHorizon int
	validate       *validator.Validate
	logger         *slog.Logger
}

// forecastParams are the validated query parameters for forecast routes.
type forecastParams struct {
	Group  string `validate:"required"`
	Months int    `validate:"min=3,max=36"`
}

// NewHandler creates the dashboard HTTP handler.
func NewHandler(service *Service, defaultHorizon int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:        service,
		defaultHorizon: defaultHorizon,
		validate:       validator.New(),
		logger:         logger.With(slog.String("component", "dashboard_handler")),
	}
}

// Routes returns the dashboard routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.GetHealth)
		r.Get("/states", h.GetStates)
		r.Get("/trends", h.GetTrends)
		r.Get("/trends.csv", h.GetTrendsCSV)
		r.Get("/trends/chart.png", h.GetTrendChart)
		r.Get("/forecast", h.GetForecast)
		r.Get("/forecast/all", h.GetForecastAll)
		r.Post("/refresh", h.PostRefresh)
	})

	return r
}

// GetHealth handles GET /api/health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "ok",
		"version": contracts.Version,
		"states":  len(h.service.States()),
	})
}

// GetStates handles GET /api/states
func (h *Handler) GetStates(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"states": h.service.States(),
	})
}

// GetTrends handles GET /api/trends
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	points := h.service.Trends(parseStates(r))
	render.JSON(w, r, map[string]interface{}{
		"points": points,
		"count":  len(points),
	})
}

// GetTrendsCSV handles GET /api/trends.csv with the aggregated data used
// by the charts, for download.
func (h *Handler) GetTrendsCSV(w http.ResponseWriter, r *http.Request) {
	points := h.service.Trends(parseStates(r))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="wla_trends_data.csv"`)

	writer := csv.NewWriter(w)
	writer.Write([]string{"month", "pop_group", "avg"})
	for _, p := range points {
		writer.Write([]string{
			p.Month.Format("2006-01-02"),
			p.PopGroup,
			fmt.Sprintf("%.2f", p.Avg),
		})
	}
	writer.Flush()

	// The status line is already gone, so a failed flush can only be logged.
	if err := writer.Error(); err != nil {
		h.logger.Error("trends csv write failed", slog.String("error", err.Error()))
	}
}

// GetTrendChart handles GET /api/trends/chart.png
func (h *Handler) GetTrendChart(w http.ResponseWriter, r *http.Request) {
	png, err := RenderTrendChart(h.service.Trends(parseStates(r)))
	if err != nil {
		h.logger.Error("trend chart rendering failed", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// GetForecast handles GET /api/forecast for a single pop group.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	months, ok := h.parseMonths(w, r)
	if !ok {
		return
	}

	params := forecastParams{
		Group:  strings.TrimSpace(r.URL.Query().Get("group")),
		Months: months,
	}
	if err := h.validate.Struct(params); err != nil {
		render.Render(w, r, apierrors.APIValidation("months", "group is required and months must be between 3 and 36"))
		return
	}

	result, err := h.service.ForecastGroup(parseStates(r), params.Group, params.Months)
	if err != nil {
		if apierrors.IsType(err, apierrors.ErrTypeValidation) {
			render.Render(w, r, apierrors.APIInsufficientData(params.Group))
			return
		}
		h.logger.Error("forecast failed",
			slog.String("group", params.Group),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, result)
}

// GetForecastAll handles GET /api/forecast/all: one forecast per group
// on the same horizon, for comparison.
func (h *Handler) GetForecastAll(w http.ResponseWriter, r *http.Request) {
	months, ok := h.parseMonths(w, r)
	if !ok {
		return
	}
	if months < 3 || months > 36 {
		render.Render(w, r, apierrors.APIValidation("months", "months must be between 3 and 36"))
		return
	}

	forecasts, err := h.service.ForecastAll(r.Context(), parseStates(r), months)
	if err != nil {
		h.logger.Error("comparative forecast failed", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"forecasts": forecasts,
		"months":    months,
	})
}

// PostRefresh handles POST /api/refresh: reloads the table from the store
// and swaps the dashboard snapshot.
func (h *Handler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.logger.Error("dashboard refresh failed", slog.String("error", err.Error()))
		if appErr, ok := err.(*apierrors.AppError); ok {
			render.Render(w, r, apierrors.APIFromAppError(appErr))
			return
		}
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "refreshed",
		"states": len(h.service.States()),
	})
}

// parseMonths reads the months query parameter, defaulting to the
// configured horizon. It writes a validation error and reports false on
// a malformed value.
func (h *Handler) parseMonths(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("months")
	if raw == "" {
		return h.defaultHorizon, true
	}
	months, err := strconv.Atoi(raw)
	if err != nil {
		render.Render(w, r, apierrors.APIValidation("months", "must be an integer"))
		return 0, false
	}
	return months, true
}

// parseStates reads the comma-separated states selection. Empty means
// all states.
func parseStates(r *http.Request) []string {
	raw := r.URL.Query().Get("states")
	if raw == "" {
		return nil
	}
	var states []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			states = append(states, s)
		}
	}
	return states
}
