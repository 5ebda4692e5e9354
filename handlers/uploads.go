package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/thedividend/dividend/internal/storage"
	"github.com/thedividend/dividend/pkg/logger"
	"go.uber.org/zap"
)

// MaxUploadBytes caps a single uploaded image.
const MaxUploadBytes = 10 << 20

// imageTypes are the formats accepted for upload and served inline.
var imageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// detectImage sniffs the leading bytes of r and returns the matched raster
// type, or nil when the content is anything else.
func detectImage(r io.Reader) (*mimetype.MIME, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, err
	}
	for _, t := range imageTypes {
		if m.Is(t) {
			return m, nil
		}
	}
	return nil, nil
}

func inlineImage(contentType string) bool {
	ct, _, _ := strings.Cut(contentType, ";")
	for _, t := range imageTypes {
		if strings.EqualFold(strings.TrimSpace(ct), t) {
			return true
		}
	}
	return false
}

// UploadHandler stores images in object storage.
type UploadHandler struct {
	store      storage.ObjectStore
	presignTTL time.Duration
	now        func() time.Time
}

func NewUploadHandler(store storage.ObjectStore, presignTTL time.Duration) *UploadHandler {
	return &UploadHandler{store: store, presignTTL: presignTTL, now: time.Now}
}

// Register mounts the upload route on authed and the media route on public.
func (h *UploadHandler) Register(public, authed gin.IRoutes) {
	authed.POST("/uploads/:bucket", h.Upload)
	public.GET("/media/*key", h.Media)
}

// Upload accepts a multipart "file" field and returns where it can be read.
func (h *UploadHandler) Upload(c *gin.Context) {
	bucket := c.Param("bucket")
	if !storage.ValidBucket(bucket) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown bucket"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size > MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	// the client's Content-Type and file name are ignored; the bytes decide
	m, err := detectImage(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	if m == nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only PNG, JPEG, GIF or WebP images can be uploaded"})
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	contentType := m.String()
	key, err := storage.ObjectKey(bucket, "upload"+m.Extension(), h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.Put(ctx, key, f, fh.Size, contentType); err != nil {
		logger.L().Error("upload failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage unavailable"})
		return
	}
	url, err := h.store.PresignedURL(ctx, key, h.presignTTL)
	if err != nil {
		logger.L().Warn("presign failed", zap.String("key", key), zap.Error(err))
	}
	logger.L().Info("file uploaded", zap.String("key", key), zap.Int64("size", fh.Size))
	c.JSON(http.StatusCreated, gin.H{"key": key, "url": url, "path": "/api/media/" + key})
}

// Media streams a stored upload. It is the stable public URL stored on
// articles, books and profiles.
func (h *UploadHandler) Media(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if storage.BucketOf(key) == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	rc, info, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		logger.L().Error("media read failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage unavailable"})
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	c.Header("X-Content-Type-Options", "nosniff")
	ct := info.ContentType
	if !inlineImage(ct) {
		// objects stored outside the raster allowlist are never rendered inline
		ct = "application/octet-stream"
		c.Header("Content-Disposition", "attachment")
	}
	c.Header("Content-Type", ct)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.L().Warn("media stream interrupted", zap.String("key", key), zap.Error(err))
	}
}
