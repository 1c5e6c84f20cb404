package handler

import (
	"errors"
	"net/http"
	"net/url"

	"tubevault/internal/model"
	"tubevault/internal/progress"
	"tubevault/internal/service"
	"tubevault/internal/storage"
	"tubevault/pkg/logger"
	"tubevault/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DownloadHandler handles download and history requests
type DownloadHandler struct {
	downloadService *service.DownloadService
	registry        *progress.Registry
	store           *storage.Store
	budget          *service.BudgetService
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(ds *service.DownloadService, reg *progress.Registry, store *storage.Store, budget *service.BudgetService) *DownloadHandler {
	return &DownloadHandler{
		downloadService: ds,
		registry:        reg,
		store:           store,
		budget:          budget,
	}
}

// StartDownload handles POST /api/download
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var req model.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.LogWarn("Invalid download request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid_request", "videoId, format and title are required")
		return
	}

	if !validator.ValidateVideoID(req.VideoID) {
		respondError(c, http.StatusBadRequest, "invalid_video_id", "Video ID contains invalid characters")
		return
	}
	if req.Format != "video" && req.Format != "audio" {
		respondError(c, http.StatusBadRequest, "invalid_format", "Format must be \"video\" or \"audio\"")
		return
	}

	if !h.budget.HasCapacity() {
		logger.LogWarn("Library disk budget exhausted", zap.Int64("used_bytes", h.budget.UsedBytes()))
		respondError(c, http.StatusInsufficientStorage, "disk_budget_exhausted",
			"Library disk budget exhausted. Clear history or raise the budget.")
		return
	}

	artifact, err := h.downloadService.StartDownload(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, progress.ErrJobInFlight):
			respondError(c, http.StatusConflict, "download_in_progress", err.Error())
		case errors.Is(err, service.ErrToolMissing):
			respondError(c, http.StatusServiceUnavailable, "downloader_missing",
				"yt-dlp is not installed. Install it and restart the server.")
		default:
			respondError(c, http.StatusInternalServerError, "download_failed", err.Error())
		}
		return
	}

	h.budget.AddUsage(artifact.Size)

	c.JSON(http.StatusOK, model.DownloadResponse{
		Success: true,
		FileURL: "/downloads/" + url.PathEscape(artifact.Filename),
	})
}

// GetProgress handles GET /api/download/progress/:videoId.
// Unknown identifiers report waiting at zero percent, never an error.
func (h *DownloadHandler) GetProgress(c *gin.Context) {
	videoID := c.Param("videoId")
	if !validator.ValidateVideoID(videoID) {
		respondError(c, http.StatusBadRequest, "invalid_video_id", "Video ID contains invalid characters")
		return
	}

	c.JSON(http.StatusOK, h.registry.Get(videoID))
}

// ListDownloads handles GET /api/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	artifacts, err := h.store.ListDownloads(c.Request.Context())
	if err != nil {
		logger.LogError("Failed to list downloads", err)
		respondError(c, http.StatusInternalServerError, "history_failed", "Failed to read download history")
		return
	}
	if artifacts == nil {
		artifacts = []model.Artifact{}
	}
	c.JSON(http.StatusOK, artifacts)
}

// ClearHistory handles DELETE /api/downloads
func (h *DownloadHandler) ClearHistory(c *gin.Context) {
	if err := h.store.ClearHistory(c.Request.Context()); err != nil {
		logger.LogError("Failed to clear history", err)
		respondError(c, http.StatusInternalServerError, "clear_failed", "Failed to clear download history")
		return
	}
	h.budget.Reset()

	c.JSON(http.StatusOK, gin.H{"message": "Download history cleared"})
}
