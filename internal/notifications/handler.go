package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zentok/models"
)

// Feed читает уведомления эмиттера.
type Feed interface {
	Current() (models.Notification, bool)
	History() []models.Notification
	Dismiss()
}

type Handler struct {
	Notifications Feed
}

func NewHandler(n Feed) *Handler {
	return &Handler{Notifications: n}
}

// Current возвращает видимое уведомление или 204, если показывать нечего.
func (h *Handler) Current(c *gin.Context) {
	n, ok := h.Notifications.Current()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, n)
}

// Dismiss скрывает текущее уведомление.
func (h *Handler) Dismiss(c *gin.Context) {
	h.Notifications.Dismiss()
	c.Status(http.StatusNoContent)
}

// History возвращает историю уведомлений, новые первыми.
func (h *Handler) History(c *gin.Context) {
	hist := h.Notifications.History()
	out := make([]models.Notification, len(hist))
	for i, n := range hist {
		out[len(hist)-1-i] = n
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out, "count": len(out)})
}
