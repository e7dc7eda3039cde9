package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
	"github.com/yanqian/faq-clustering/internal/domain/search"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	faqSvc    faq.Service
	searchSvc search.Service
	repo      faq.QuestionRepository
	defaults  search.Config
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(faqSvc faq.Service, searchSvc search.Service, repo faq.QuestionRepository, defaults search.Config, logger *slog.Logger) *Handler {
	return &Handler{
		faqSvc:    faqSvc,
		searchSvc: searchSvc,
		repo:      repo,
		defaults:  defaults,
		logger:    logger.With("component", "http.handler"),
	}
}

type indexRequest struct {
	Items []faq.QAItem `json:"items" binding:"required"`
}

type searchRequest struct {
	Query      string        `json:"query"`
	TenantID   string        `json:"tenantId"`
	Threshold  *float64      `json:"threshold"`
	TopK       int           `json:"topK"`
	MinResults *int          `json:"minResults"`
	Filter     search.Filter `json:"filter"`
}

type adaptiveRequest struct {
	Query        string        `json:"query"`
	TenantID     string        `json:"tenantId"`
	TargetCount  int           `json:"targetCount"`
	MaxThreshold float64       `json:"maxThreshold"`
	MinThreshold float64       `json:"minThreshold"`
	Step         float64       `json:"step"`
	TopK         int           `json:"topK"`
	Filter       search.Filter `json:"filter"`
}

type confidenceRequest struct {
	Query      string        `json:"query"`
	TenantID   string        `json:"tenantId"`
	SampleSize int           `json:"sampleSize"`
	Filter     search.Filter `json:"filter"`
}

// Recommendations returns clustered FAQ recommendations for a tenant.
func (h *Handler) Recommendations(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	res, err := h.faqSvc.GetRecommendations(c.Request.Context(), c.Param("tenant"), refresh)
	if err != nil {
		abortWithError(c, fromAppError(err, "recommendations_failed"))
		return
	}
	c.JSON(http.StatusOK, res)
}

// IndexTenant stores the posted Q&A pairs and rebuilds the tenant's vector entries.
func (h *Handler) IndexTenant(c *gin.Context) {
	tenantID := strings.TrimSpace(c.Param("tenant"))
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if tenantID == "" || len(req.Items) == 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "tenant and items are required", nil))
		return
	}

	ctx := c.Request.Context()
	if h.repo != nil {
		if err := h.repo.SaveQA(ctx, tenantID, req.Items); err != nil {
			abortWithError(c, fromAppError(err, "index_failed"))
			return
		}
	}
	indexed, err := h.searchSvc.IndexItems(ctx, tenantID, req.Items)
	if err != nil {
		abortWithError(c, fromAppError(err, "index_failed"))
		return
	}
	if err := h.faqSvc.Invalidate(ctx, tenantID); err != nil {
		h.logger.Warn("recommendation cache invalidation failed", "tenant_id", tenantID, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"tenantId": tenantID, "stored": len(req.Items), "indexed": indexed})
}

// Search runs a threshold similarity search.
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if !bindQuery(c, &req, func() string { return req.Query }) {
		return
	}
	threshold := h.defaults.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	minResults := h.defaults.MinResults
	if req.MinResults != nil {
		minResults = *req.MinResults
	}
	results := h.searchSvc.Search(c.Request.Context(), req.Query, search.SearchParams{
		TenantID:   req.TenantID,
		Threshold:  threshold,
		TopK:       req.TopK,
		MinResults: minResults,
		Filter:     req.Filter,
	})
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SearchAdaptive relaxes the threshold until enough hits are found.
func (h *Handler) SearchAdaptive(c *gin.Context) {
	var req adaptiveRequest
	if !bindQuery(c, &req, func() string { return req.Query }) {
		return
	}
	results := h.searchSvc.SearchAdaptive(c.Request.Context(), req.Query, search.AdaptiveParams{
		TenantID:     req.TenantID,
		TargetCount:  req.TargetCount,
		MaxThreshold: req.MaxThreshold,
		MinThreshold: req.MinThreshold,
		Step:         req.Step,
		TopK:         req.TopK,
		Filter:       req.Filter,
	})
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SearchConfidence buckets hits by distribution-derived confidence.
func (h *Handler) SearchConfidence(c *gin.Context) {
	var req confidenceRequest
	if !bindQuery(c, &req, func() string { return req.Query }) {
		return
	}
	res := h.searchSvc.SearchWithConfidenceLevels(c.Request.Context(), req.Query, search.StatisticsParams{
		TenantID:   req.TenantID,
		SampleSize: req.SampleSize,
		Filter:     req.Filter,
	})
	c.JSON(http.StatusOK, res)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bindQuery(c *gin.Context, req any, query func() string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return false
	}
	if strings.TrimSpace(query()) == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "query cannot be empty", nil))
		return false
	}
	return true
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
