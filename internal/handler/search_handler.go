package handler

import (
	"errors"
	"net/http"
	"time"

	"tubevault/internal/search"
	"tubevault/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SearchHandler handles catalog search requests
type SearchHandler struct {
	client *search.Client
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(client *search.Client) *SearchHandler {
	return &SearchHandler{client: client}
}

// Search handles GET /api/search
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondError(c, http.StatusBadRequest, "invalid_query", "Search query is required")
		return
	}

	params := search.Params{
		Query:     query,
		Duration:  c.DefaultQuery("duration", "any"),
		VideoType: c.DefaultQuery("videoType", "both"),
		PageToken: c.Query("pageToken"),
	}
	if after := c.Query("publishedAfter"); after != "" {
		ts, err := time.Parse(time.RFC3339, after)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_date", "publishedAfter must be an RFC 3339 timestamp")
			return
		}
		params.PublishedAfter = ts
	}

	page, err := h.client.Search(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, search.ErrSearchFailed) {
			logger.LogError("Search failed", err, zap.String("query", query))
			respondError(c, http.StatusBadGateway, "search_failed", "Failed to search the video catalog")
			return
		}
		respondError(c, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, page)
}

// HealthCheck handles GET /api/health
func (h *SearchHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "tubevault",
	})
}
