package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"apollo/internal/export"
	"apollo/internal/pipeline"
	"apollo/internal/repository"
)

// LabelHandler serves the query surface: stored labels from the repository,
// plus retained-set views (multi-category, stats, CSV export) straight from
// the pipeline.
type LabelHandler struct {
	Repo     repository.Repository
	Pipeline *pipeline.Pipeline
}

func (h *LabelHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/labels")
	group.GET("", h.listLabels)
	group.GET("/multi-category", h.multiCategory)
	group.GET("/stats", h.stats)
	group.GET("/export", h.exportCSV)
}

func (h *LabelHandler) listLabels(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	label := strings.TrimSpace(c.Query("category"))
	address := strings.TrimSpace(c.Query("address"))
	limit := intQuery(c, "limit", 200)
	offset := intQuery(c, "offset", 0)

	params := repository.ListLabelsParams{
		Limit:         limit,
		Offset:        offset,
		MinConfidence: floatQueryPtr(c, "min_confidence"),
	}
	if label != "" {
		params.Label = &label
	}
	if address != "" {
		params.Address = &address
	}

	items, err := h.Repo.ListAddressLabels(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountAddressLabels(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *LabelHandler) multiCategory(c *gin.Context) {
	if h.Pipeline == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	multi := h.Pipeline.MultiCategoryAddresses()
	Ok(c, multi, map[string]any{"count": len(multi)})
}

func (h *LabelHandler) stats(c *gin.Context) {
	if h.Pipeline == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	Ok(c, h.Pipeline.Statistics(), nil)
}

func (h *LabelHandler) exportCSV(c *gin.Context) {
	if h.Pipeline == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="apollo_labels.csv"`)
	if err := export.WriteCSV(c.Writer, h.Pipeline.Labels()); err != nil {
		// Headers are already out; nothing to do but log via gin's recovery.
		_ = c.Error(err)
	}
}
