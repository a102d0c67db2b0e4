package todos

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/todoapi/auth/authctx"
	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/server"
	"github.com/kbukum/todoapi/validation"
)

// CreateRequest is the body of POST /todos.
type CreateRequest struct {
	Task string `json:"task" validate:"required,max=1000"`
}

// UpdateRequest is the body of PUT /todos/:id.
type UpdateRequest struct {
	Complete *bool `json:"complete" validate:"required"`
}

// Handler serves the todo routes. It must be mounted behind the auth gate.
type Handler struct {
	repo *Repository
}

// NewHandler creates a Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes mounts the todo routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// List handles GET /todos.
func (h *Handler) List(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	todos, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, todos)
}

// Create handles POST /todos.
func (h *Handler) Create(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	var req CreateRequest
	if err := bind(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	todo, err := h.repo.Create(c.Request.Context(), userID, req.Task)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, todo)
}

// Update handles PUT /todos/:id.
func (h *Handler) Update(c *gin.Context) {
	userID, id, err := currentUserAndID(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	var req UpdateRequest
	if err := bind(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	todo, err := h.repo.SetComplete(c.Request.Context(), userID, id, *req.Complete)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, todo)
}

// Delete handles DELETE /todos/:id.
func (h *Handler) Delete(c *gin.Context) {
	userID, id, err := currentUserAndID(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	todo, err := h.repo.Delete(c.Request.Context(), userID, id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, todo)
}

func bind(c *gin.Context, dst any) error {
	if err := server.BindJSON(c, dst); err != nil {
		return err
	}
	return validation.Validate(dst)
}

// currentUser reads the id the auth gate attached to the request.
func currentUser(c *gin.Context) (uuid.UUID, error) {
	id, ok := authctx.UserID(c.Request.Context())
	if !ok {
		return uuid.Nil, apperrors.Unauthorized("")
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperrors.Unauthorized("Invalid authentication token.")
	}
	return userID, nil
}

func currentUserAndID(c *gin.Context) (uuid.UUID, uuid.UUID, error) {
	userID, err := currentUser(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := validation.ValidateUUID("id", c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, id, nil
}
