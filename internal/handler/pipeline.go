package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"apollo/internal/pipeline"
	"apollo/internal/repository"
	"apollo/internal/service"
)

// PipelineHandler exposes run orchestration: full runs, single-rule runs,
// clearing the retained set, and run history.
type PipelineHandler struct {
	Service *service.PipelineService
	Repo    repository.Repository
}

func (h *PipelineHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/pipeline")
	group.POST("/run", h.run)
	group.POST("/run/:category", h.runOne)
	group.DELETE("/labels", h.clear)
	r.GET("/api/v1/runs", h.listRuns)
}

type runRequest struct {
	Categories []string `json:"categories"`
}

func (h *PipelineHandler) run(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
	}
	result, err := h.Service.RunAndStore(c.Request.Context(), req.Categories...)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *PipelineHandler) runOne(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	category := strings.TrimSpace(c.Param("category"))
	labels, err := h.Service.RunOneAndStore(c.Request.Context(), category)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnknownRule) {
			Error(c, http.StatusNotFound, "unknown rule: "+category, nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, labels, map[string]any{"count": len(labels)})
}

func (h *PipelineHandler) clear(c *gin.Context) {
	if h.Service == nil || h.Service.Pipeline == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	h.Service.Pipeline.Clear()
	if h.Repo != nil {
		if err := h.Repo.DeleteAllLabels(c.Request.Context()); err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
	}
	Ok(c, nil, nil)
}

func (h *PipelineHandler) listRuns(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	runs, err := h.Repo.ListLabelRuns(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, runs, map[string]any{"count": len(runs)})
}
