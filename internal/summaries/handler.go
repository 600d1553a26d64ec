package summaries

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"briefly-backend/internal/shared/server/middleware"
	"briefly-backend/internal/shared/server/respond"
)

const sharedAtLayout = "January 02, 2006"

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches summary routes to an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/summaries/:userId", middleware.RequireSelf("userId"), h.list)
	rg.POST("/summary/create", h.create)
	rg.POST("/summary/upload", h.upload)
	rg.POST("/summary/share", h.share)
	rg.POST("/summary/regenerate/:id", h.regenerate)
	rg.GET("/summary/:id", h.get)
	rg.DELETE("/summary/:id", h.delete)
	rg.GET("/user/:userId/shared-summaries", middleware.RequireSelf("userId"), h.listShared)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	out := make([]gin.H, 0, len(items))
	for _, s := range items {
		out = append(out, ToResponse(s))
	}
	respond.OK(c, out)
}

type createRequest struct {
	UserID      string `json:"userId"`
	Type        string `json:"type"`
	UploadType  string `json:"uploadType"`
	InitialData string `json:"initialData"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	userID, ok := actingUser(c, req.UserID)
	if !ok {
		return
	}

	summary, err := h.Svc.CreateFromText(c.Request.Context(), userID, strings.TrimSpace(req.Type), req.InitialData)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("summaryId", summary.ID)
	respond.Created(c, gin.H{"message": "Summary created successfully", "summary_id": summary.ID})
}

func (h *Handler) upload(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.FromError(c, ErrFileTooLarge)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	userID, ok := actingUser(c, c.PostForm("userId"))
	if !ok {
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	summary, err := h.Svc.CreateFromFile(c.Request.Context(), userID, strings.TrimSpace(c.PostForm("type")), strings.TrimSpace(c.PostForm("uploadType")), FileUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("summaryId", summary.ID)
	respond.Created(c, gin.H{
		"message":    "Summary created successfully",
		"summary_id": summary.ID,
		"file_id":    summary.BlobID(),
	})
}

func (h *Handler) get(c *gin.Context) {
	summary, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, ToResponse(summary))
}

func (h *Handler) delete(c *gin.Context) {
	c.Set("summaryId", c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"message": "Summary deleted successfully"})
}

func (h *Handler) regenerate(c *gin.Context) {
	c.Set("summaryId", c.Param("id"))
	feedback, err := readFeedback(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if _, err := h.Svc.Regenerate(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), feedback); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"message": "Summary regenerated successfully"})
}

type shareRequest struct {
	SummaryID string `json:"summary_id"`
	Recipient string `json:"recipient"`
}

func (h *Handler) share(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Recipient = strings.TrimSpace(req.Recipient)
	if req.SummaryID == "" || req.Recipient == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "summary_id and recipient are required", nil)
		return
	}
	c.Set("summaryId", req.SummaryID)

	outcome, err := h.Svc.Share(c.Request.Context(), middleware.UserIDFromContext(c), req.SummaryID, req.Recipient)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	msg := "Summary shared successfully with " + req.Recipient
	if outcome == ShareAlreadyShared {
		msg = "Summary already shared with " + req.Recipient
	}
	respond.OK(c, gin.H{"message": msg})
}

func (h *Handler) listShared(c *gin.Context) {
	items, err := h.Svc.ListSharedWith(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, SharedToResponse(item))
	}
	respond.OK(c, out)
}

// actingUser resolves the user a request acts for. A userId that names
// someone other than the caller is rejected with 403.
func actingUser(c *gin.Context, claimed string) (string, bool) {
	caller := middleware.UserIDFromContext(c)
	claimed = strings.TrimSpace(claimed)
	if claimed != "" && claimed != caller {
		respond.Error(c, http.StatusForbidden, "forbidden", "cannot act on behalf of another user", nil)
		return "", false
	}
	return caller, true
}

// readFeedback accepts either {"feedback": "..."} or a bare JSON string.
func readFeedback(c *gin.Context) (string, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var body struct {
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", err
	}
	return body.Feedback, nil
}

// ToResponse renders a summary.
func ToResponse(s Summary) gin.H {
	out := gin.H{
		"id":          s.ID,
		"userId":      s.UserID,
		"title":       s.Title,
		"type":        s.Type,
		"uploadType":  s.UploadType,
		"initialData": s.InitialData,
		"outputData":  s.OutputData,
		"createdAt":   s.CreatedAt.Format(time.RFC3339),
		"updatedAt":   s.UpdatedAt.Format(time.RFC3339),
	}
	if s.File != nil {
		out["fileName"] = s.File.FileName
		out["fileId"] = s.File.BlobID
	}
	return out
}

// SharedToResponse renders a summary as seen by a share recipient.
func SharedToResponse(item SharedSummary) gin.H {
	s := item.Summary
	out := gin.H{
		"id":          s.ID,
		"title":       s.Title,
		"type":        s.Type,
		"outputData":  s.OutputData,
		"initialData": s.InitialData,
		"sharedBy":    item.SenderEmail,
		"uploadType":  s.UploadType,
		"sharedAt":    item.SharedAt.Format(sharedAtLayout),
		"createdAt":   s.CreatedAt.Format(time.RFC3339),
	}
	if s.File != nil {
		out["fileName"] = s.File.FileName
		out["fileId"] = s.File.BlobID
	}
	return out
}
