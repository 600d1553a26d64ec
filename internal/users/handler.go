package users

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"briefly-backend/internal/shared/apperr"
	"briefly-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the public account routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/user/create", h.create)
	rg.POST("/user/verify", h.verify)
}

type createRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Password == "" {
		respond.FromError(c, ErrNoPassword)
		return
	}
	if req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		respond.FromError(c, apperr.Validation("Passwords do not match"))
		return
	}
	user, err := h.Svc.Create(c.Request.Context(), NewUser{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, gin.H{"message": "User created successfully", "userId": user.ID})
}

type verifyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	session, err := h.Svc.Verify(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"auth_token": session.Token, "user": ToResponse(session.User)})
}

// ToResponse renders the public view of a user.
func ToResponse(user User) gin.H {
	out := gin.H{
		"id":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"phone":     user.Phone,
		"email":     user.Email,
		"createdAt": user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLoggedInAt != nil {
		out["lastLoggedInAt"] = user.LastLoggedInAt.Format(time.RFC3339)
	} else {
		out["lastLoggedInAt"] = nil
	}
	return out
}
