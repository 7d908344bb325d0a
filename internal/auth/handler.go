package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"zentok/internal/httputil"
	"zentok/internal/session"
)

// Sessions описывает операции сессии, нужные обработчику.
type Sessions interface {
	Login(ctx context.Context, u session.User) error
	Logout()
	User() (session.User, bool)
}

type Handler struct {
	Sessions Sessions
}

func NewHandler(s Sessions) *Handler {
	return &Handler{Sessions: s}
}

// Login начинает сессию пользователя и запускает симуляцию ленты.
func (h *Handler) Login(c *gin.Context) {
	var u session.User
	if err := c.ShouldBindJSON(&u); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid data")
		return
	}
	if err := h.Sessions.Login(c.Request.Context(), u); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}
	current, _ := h.Sessions.User()
	c.JSON(http.StatusOK, gin.H{"status": "logged_in", "user": current})
}

// Logout завершает сессию и останавливает симуляцию.
func (h *Handler) Logout(c *gin.Context) {
	h.Sessions.Logout()
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// Me возвращает владельца текущей сессии.
func (h *Handler) Me(c *gin.Context) {
	u, ok := h.Sessions.User()
	if !ok {
		httputil.RespondServiceError(c, session.ErrNoSession)
		return
	}
	c.JSON(http.StatusOK, u)
}
