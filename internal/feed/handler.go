package feed

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"zentok/internal/httputil"
	"zentok/models"
)

// Feed отдаёт ленту и перезагружает её.
type Feed interface {
	Feed() []models.PostSnapshot
	Post(id string) (models.PostSnapshot, error)
	Reload(ctx context.Context) error
}

type Handler struct {
	Feed Feed
}

func NewHandler(f Feed) *Handler {
	return &Handler{Feed: f}
}

// List возвращает последний снимок ленты.
func (h *Handler) List(c *gin.Context) {
	posts := h.Feed.Feed()
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// Get возвращает один пост ленты.
func (h *Handler) Get(c *gin.Context) {
	snap, err := h.Feed.Post(c.Param("id"))
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Reload перечитывает посты из хранилища.
func (h *Handler) Reload(c *gin.Context) {
	if err := h.Feed.Reload(c.Request.Context()); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}
	posts := h.Feed.Feed()
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}
