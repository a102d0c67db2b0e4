package account

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/server"
)

// Handler serves the public auth routes.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts POST /register and POST /login on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var creds Credentials
	if err := server.BindJSON(c, &creds); err != nil {
		server.RespondWithError(c, err)
		return
	}
	session, err := h.svc.Register(c.Request.Context(), creds)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, session)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var creds Credentials
	if err := server.BindJSON(c, &creds); err != nil {
		server.RespondWithError(c, err)
		return
	}
	session, err := h.svc.Login(c.Request.Context(), creds)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, session)
}
