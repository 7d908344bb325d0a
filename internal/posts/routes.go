package posts

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует маршруты публикации, удаления и реакций.
func SetupRoutes(r *gin.RouterGroup, p Posts, maxUpload int64) {
	h := NewHandler(p, maxUpload)
	r.POST("", h.Create)
	r.DELETE("/:id", h.Delete)
	r.POST("/:id/like", h.Like)
}
