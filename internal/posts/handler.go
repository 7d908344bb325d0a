package posts

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"zentok/internal/httputil"
	"zentok/internal/session"
	"zentok/models"
)

// DefaultMaxUpload используется, если предельный размер видео не задан.
const DefaultMaxUpload = 64 << 20

// Posts описывает действия пользователя над постами.
type Posts interface {
	Upload(ctx context.Context, up session.Upload) (models.Post, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, id string) error
}

type Handler struct {
	Posts     Posts
	MaxUpload int64
}

func NewHandler(p Posts, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Handler{Posts: p, MaxUpload: maxUpload}
}

// Create публикует видео. Файл video необязателен: без него пост создаётся без оценки потенциала.
func (h *Handler) Create(c *gin.Context) {
	// Тело ограничено до разбора формы: запас 1 МиБ на поля и заголовки частей
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUpload+1<<20)
	if err := c.Request.ParseMultipartForm(h.MaxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(c, http.StatusRequestEntityTooLarge, "request body is too large")
			return
		}
		httputil.RespondError(c, http.StatusBadRequest, "Invalid form")
		return
	}

	up := session.Upload{
		Caption:  c.PostForm("caption"),
		VideoURL: c.PostForm("video_url"),
	}

	if fh, err := c.FormFile("video"); err == nil {
		if fh.Size > h.MaxUpload {
			httputil.RespondError(c, http.StatusRequestEntityTooLarge, "video is too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			httputil.RespondError(c, http.StatusBadRequest, "Invalid video")
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, h.MaxUpload+1))
		if err != nil {
			httputil.RespondError(c, http.StatusBadRequest, "Invalid video")
			return
		}
		if int64(len(data)) > h.MaxUpload {
			httputil.RespondError(c, http.StatusRequestEntityTooLarge, "video is too large")
			return
		}
		up.Video = data
		up.MimeType = fh.Header.Get("Content-Type")
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid form")
		return
	}

	post, err := h.Posts.Upload(c.Request.Context(), up)
	if err != nil {
		httputil.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Delete удаляет пост.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.Posts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Like отмечает реакцию на пост.
func (h *Handler) Like(c *gin.Context) {
	if err := h.Posts.Like(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "liked"})
}
