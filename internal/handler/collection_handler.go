package handler

import (
	"errors"
	"net/http"

	"tubevault/internal/model"
	"tubevault/internal/storage"
	"tubevault/pkg/logger"
	"tubevault/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CollectionHandler handles collection requests
type CollectionHandler struct {
	store *storage.Store
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(store *storage.Store) *CollectionHandler {
	return &CollectionHandler{store: store}
}

// CreateCollection handles POST /api/collections
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req model.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Collection name is required")
		return
	}
	if !validator.ValidateCollectionName(req.Name) {
		respondError(c, http.StatusBadRequest, "invalid_name", "Collection name contains invalid characters")
		return
	}

	if err := h.store.CreateCollection(c.Request.Context(), req.Name); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respondError(c, http.StatusConflict, "collection_exists", "A collection with this name already exists")
			return
		}
		logger.LogError("Failed to create collection", err, zap.String("name", req.Name))
		respondError(c, http.StatusInternalServerError, "collection_failed", "Failed to create collection")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Collection created"})
}

// DeleteCollection handles DELETE /api/collections/:name
func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	name := c.Param("name")
	if !validator.ValidateCollectionName(name) {
		respondError(c, http.StatusBadRequest, "invalid_name", "Collection name contains invalid characters")
		return
	}

	if err := h.store.DeleteCollection(c.Request.Context(), name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Collection not found")
			return
		}
		logger.LogError("Failed to delete collection", err, zap.String("name", name))
		respondError(c, http.StatusInternalServerError, "collection_failed", "Failed to delete collection")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Collection deleted"})
}

// ListCollections handles GET /api/collections
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	names, err := h.store.ListCollections(c.Request.Context())
	if err != nil {
		logger.LogError("Failed to list collections", err)
		respondError(c, http.StatusInternalServerError, "collection_failed", "Failed to list collections")
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

// GetCollection handles GET /api/collections/:name
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	name := c.Param("name")
	if !validator.ValidateCollectionName(name) {
		respondError(c, http.StatusBadRequest, "invalid_name", "Collection name contains invalid characters")
		return
	}

	artifacts, err := h.store.ListCollection(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Collection not found")
			return
		}
		logger.LogError("Failed to list collection", err, zap.String("name", name))
		respondError(c, http.StatusInternalServerError, "collection_failed", "Failed to list collection")
		return
	}
	if artifacts == nil {
		artifacts = []model.Artifact{}
	}
	c.JSON(http.StatusOK, artifacts)
}

// AddVideo handles POST /api/collections/:name/videos
func (h *CollectionHandler) AddVideo(c *gin.Context) {
	name := c.Param("name")
	if !validator.ValidateCollectionName(name) {
		respondError(c, http.StatusBadRequest, "invalid_name", "Collection name contains invalid characters")
		return
	}

	var req model.MoveVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Filename is required")
		return
	}
	if !validator.ValidateFilename(req.Filename) {
		respondError(c, http.StatusBadRequest, "invalid_filename", "Filename contains invalid characters")
		return
	}

	if err := h.store.MoveToCollection(c.Request.Context(), name, &req); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Collection or video not found")
			return
		}
		logger.LogError("Failed to move video into collection", err,
			zap.String("collection", name), zap.String("filename", req.Filename))
		respondError(c, http.StatusInternalServerError, "collection_failed", "Failed to move video")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video added to collection"})
}

// RemoveVideo handles DELETE /api/collections/:name/videos/:filename
func (h *CollectionHandler) RemoveVideo(c *gin.Context) {
	name := c.Param("name")
	filename := c.Param("filename")
	if !validator.ValidateCollectionName(name) {
		respondError(c, http.StatusBadRequest, "invalid_name", "Collection name contains invalid characters")
		return
	}
	if !validator.ValidateFilename(filename) {
		respondError(c, http.StatusBadRequest, "invalid_filename", "Filename contains invalid characters")
		return
	}

	if err := h.store.RemoveFromCollection(c.Request.Context(), name, filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "not_found", "Collection or video not found")
			return
		}
		logger.LogError("Failed to remove video from collection", err,
			zap.String("collection", name), zap.String("filename", filename))
		respondError(c, http.StatusInternalServerError, "collection_failed", "Failed to remove video")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video removed from collection"})
}
