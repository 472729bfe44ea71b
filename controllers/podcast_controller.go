package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/ai-podcast-backend/models"
	"github.com/vnkhanh/ai-podcast-backend/services"
	"github.com/vnkhanh/ai-podcast-backend/store"
	"github.com/vnkhanh/ai-podcast-backend/utils"
)

const maxUploadBytes = 10 << 20

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// ImageStore holds uploaded cover images.
type ImageStore interface {
	UploadImage(ctx context.Context, podcastID, filename, contentType string, r io.Reader) (string, error)
	DeleteImage(ctx context.Context, publicURL string) error
}

// RoomCloser ends live sessions of a deleted podcast.
type RoomCloser interface {
	CloseRoom(room string)
}

type PodcastController struct {
	Store  *store.Store
	Images ImageStore // nil when storage is not configured
	Rooms  RoomCloser
}

// GET /api/podcasts?query=
func (pc *PodcastController) List(c *gin.Context) {
	podcasts := pc.Store.Search(c.Query("query"))
	c.JSON(http.StatusOK, gin.H{
		"podcasts": podcasts,
		"total":    len(podcasts),
	})
}

// GET /api/podcasts/:id
func (pc *PodcastController) Get(c *gin.Context) {
	p, ok := pc.Store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/podcasts
func (pc *PodcastController) Create(c *gin.Context) {
	var in store.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := pc.Store.Create(c.Request.Context(), in)
	if err != nil {
		respondStoreError(c, err, "Failed to create podcast")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PATCH /api/podcasts/:id
func (pc *PodcastController) Update(c *gin.Context) {
	var u models.PodcastUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if u.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	p, err := pc.Store.Update(c.Request.Context(), c.Param("id"), u)
	if err != nil {
		respondStoreError(c, err, "Failed to update podcast")
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/podcasts/:id
func (pc *PodcastController) Delete(c *gin.Context) {
	id := c.Param("id")
	existing, known := pc.Store.Get(id)

	if err := pc.Store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "Failed to delete podcast")
		return
	}

	if known {
		if pc.Rooms != nil {
			pc.Rooms.CloseRoom(utils.RoomName(existing))
		}
		pc.deleteImage(c.Request.Context(), existing.Image)
	}
	c.Status(http.StatusNoContent)
}

// POST /api/podcasts/:id/like
func (pc *PodcastController) Like(c *gin.Context) {
	if err := pc.Store.Like(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err, "Failed to like podcast")
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/podcasts/:id/like
func (pc *PodcastController) Unlike(c *gin.Context) {
	if err := pc.Store.Unlike(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err, "Failed to unlike podcast")
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/podcasts/:id/comments
func (pc *PodcastController) AddComment(c *gin.Context) {
	if err := pc.Store.AddComment(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err, "Failed to add comment")
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/podcasts/:id/image (multipart field "image")
func (pc *PodcastController) UploadImage(c *gin.Context) {
	if pc.Images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is not configured"})
		return
	}

	id := c.Param("id")
	existing, ok := pc.Store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast not found"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type " + ext})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image file"})
		return
	}
	defer file.Close()

	url, err := pc.Images.UploadImage(c.Request.Context(), id, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		slog.Error("Image upload failed", "podcast_id", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to upload image", "details": err.Error()})
		return
	}

	p, err := pc.Store.Update(c.Request.Context(), id, models.PodcastUpdate{Image: &url})
	if err != nil {
		respondStoreError(c, err, "Failed to update podcast")
		return
	}
	if existing.Image != url {
		pc.deleteImage(c.Request.Context(), existing.Image)
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/podcasts/:id/knowledge (multipart field "file", .pdf or .txt)
func (pc *PodcastController) UploadKnowledge(c *gin.Context) {
	id := c.Param("id")
	if _, ok := pc.Store.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast not found"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing document file"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read document file"})
		return
	}
	defer file.Close()

	text, err := services.ExtractKnowledge(fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedDocument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cannot extract text", "details": err.Error()})
		return
	}
	if text == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "document contains no text"})
		return
	}

	p, err := pc.Store.Update(c.Request.Context(), id, models.PodcastUpdate{KnowledgeBase: &text})
	if err != nil {
		respondStoreError(c, err, "Failed to update podcast")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                   p.ID,
		"knowledge_base_bytes": len(p.KnowledgeBase),
	})
}

func (pc *PodcastController) deleteImage(ctx context.Context, url string) {
	if pc.Images == nil || url == "" || url == models.PlaceholderImage {
		return
	}
	if err := pc.Images.DeleteImage(ctx, url); err != nil {
		slog.Warn("Old image cleanup failed", "url", url, "error", err)
	}
}

func respondStoreError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, store.ErrPodcastNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Podcast not found"})
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateID):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
	}
}
