package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"zentok/internal/session"
)

// RespondError отправляет сообщение об ошибке в едином формате и прекращает обработку запроса.
// Используем AbortWithStatusJSON, чтобы последующие обработчики не выполнялись, даже если забыли вернуть управление.
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// RespondServiceError переводит ошибку сервиса сессии в HTTP-статус.
// Ошибки хранилища не раскрываются клиенту и уходят в журнал gin.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		RespondError(c, http.StatusConflict, "no active session")
	case errors.Is(err, session.ErrInvalidUser):
		RespondError(c, http.StatusBadRequest, "user_id and username are required")
	case errors.Is(err, session.ErrInvalidUpload):
		RespondError(c, http.StatusBadRequest, "video_url is required")
	case errors.Is(err, session.ErrPostNotFound):
		RespondError(c, http.StatusNotFound, "post not found")
	default:
		_ = c.Error(err)
		RespondError(c, http.StatusBadGateway, "store unavailable")
	}
}
