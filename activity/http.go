package activity

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/strudel-science/runmonitor/core/export"
	"github.com/strudel-science/runmonitor/core/filter"
)

// Handler serves a Monitor over HTTP.
type Handler struct {
	monitor *Monitor
	logger  *zap.Logger
}

// NewHandler creates a handler for m.
func NewHandler(m *Monitor, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{monitor: m, logger: logger}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/runs", h.ListRuns)
	r.GET("/runs/export", h.ExportRuns)
	r.GET("/filters", h.ListFilters)
	r.PUT("/filters/:field", h.SetFilter)
	r.DELETE("/filters/:field", h.RemoveFilter)
	r.DELETE("/filters", h.ClearFilters)
	r.PUT("/search", h.SetSearch)
}

type activeFilterDTO struct {
	Field    string          `json:"field"`
	Operator filter.Operator `json:"operator"`
	Value    any             `json:"value"`
}

type setFilterRequest struct {
	Value any `json:"value"`
}

func toDTO(filters []filter.ActiveFilter) []activeFilterDTO {
	out := make([]activeFilterDTO, len(filters))
	for i, f := range filters {
		out[i] = activeFilterDTO{Field: f.Field, Operator: f.Operator, Value: filter.Raw(f.Value)}
	}
	return out
}

func (h *Handler) error(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ListRuns handles GET /runs
func (h *Handler) ListRuns(c *gin.Context) {
	result := h.monitor.Visible()
	warnings := result.Warnings
	if warnings == nil {
		warnings = []filter.Warning{}
	}
	rows := result.Rows
	if rows == nil {
		rows = []filter.Row{}
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":     rows,
		"visible":  len(rows),
		"total":    h.monitor.Len(),
		"warnings": warnings,
		"search":   h.monitor.Search(),
		"filters":  toDTO(h.monitor.Filters().Active()),
	})
}

// ExportRuns handles GET /runs/export
func (h *Handler) ExportRuns(c *gin.Context) {
	_, err := h.monitor.Export(c.Request.Context(), export.NewHTTPSaver(c))
	if errors.Is(err, ErrNothingToExport) {
		h.error(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.error(c, http.StatusInternalServerError, err)
	}
}

// ListFilters handles GET /filters
func (h *Handler) ListFilters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"configs": h.monitor.Configs(),
		"active":  toDTO(h.monitor.Filters().Active()),
	})
}

// SetFilter handles PUT /filters/:field
func (h *Handler) SetFilter(c *gin.Context) {
	var req setFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, err)
		return
	}

	err := h.monitor.SetFilter(c.Param("field"), req.Value)
	switch {
	case errors.Is(err, ErrUnknownField):
		h.error(c, http.StatusNotFound, err)
	case errors.Is(err, filter.ErrInvalidValue):
		h.error(c, http.StatusBadRequest, err)
	case err != nil:
		h.error(c, http.StatusInternalServerError, err)
	default:
		c.JSON(http.StatusOK, gin.H{"filters": toDTO(h.monitor.Filters().Active())})
	}
}

// RemoveFilter handles DELETE /filters/:field
func (h *Handler) RemoveFilter(c *gin.Context) {
	h.monitor.Filters().Remove(c.Param("field"))
	c.Status(http.StatusNoContent)
}

// ClearFilters handles DELETE /filters
func (h *Handler) ClearFilters(c *gin.Context) {
	h.monitor.ClearFilters()
	c.Status(http.StatusNoContent)
}

// SetSearch handles PUT /search
func (h *Handler) SetSearch(c *gin.Context) {
	var req filter.SearchQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, err)
		return
	}
	if req.Mode != "" && req.Mode != filter.SearchModeText && req.Mode != filter.SearchModeRegex {
		h.error(c, http.StatusBadRequest, errors.New("mode must be text or regex"))
		return
	}
	h.monitor.SetSearch(req.Text, req.Mode)
	c.JSON(http.StatusOK, h.monitor.Search())
}
