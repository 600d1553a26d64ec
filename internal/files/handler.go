package files

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"briefly-backend/internal/shared/server/middleware"
	"briefly-backend/internal/shared/server/respond"
	"briefly-backend/internal/shared/storage/object"
	"briefly-backend/internal/shared/telemetry"
	"briefly-backend/internal/shared/util"
)

const chunkSize = 1 << 20

// Authorizer decides whether a user may read a blob.
type Authorizer interface {
	AuthorizeBlob(ctx context.Context, requesterID, blobID string) error
}

// Handler streams uploaded originals back to their readers.
type Handler struct {
	Blobs  object.BlobStore
	Access Authorizer
}

func NewHandler(blobs object.BlobStore, access Authorizer) *Handler {
	return &Handler{Blobs: blobs, Access: access}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/download/:fileId", h.download)
}

func (h *Handler) download(c *gin.Context) {
	ctx := c.Request.Context()
	fileID := c.Param("fileId")
	if h.Access != nil {
		if err := h.Access.AuthorizeBlob(ctx, middleware.UserIDFromContext(c), fileID); err != nil {
			respond.FromError(c, err)
			return
		}
	}

	rc, blob, err := h.Blobs.Get(ctx, fileID)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	defer rc.Close()

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name, err := util.SanitizeFileName(blob.FileName)
	if err != nil {
		name = blob.ID
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if blob.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(blob.Size, 10))
	}
	c.Status(http.StatusOK)

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(c.Writer, rc, buf); err != nil {
		telemetry.Warn("download.aborted", map[string]any{"file_id": fileID, "err": err})
	}
}
