package feed

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует маршруты ленты.
func SetupRoutes(r *gin.RouterGroup, f Feed) {
	h := NewHandler(f)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.POST("/reload", h.Reload)
}
