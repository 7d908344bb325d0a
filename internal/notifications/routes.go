package notifications

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует маршруты уведомлений.
func SetupRoutes(r *gin.RouterGroup, n Feed) {
	h := NewHandler(n)
	r.GET("", h.History)
	r.GET("/current", h.Current)
	r.DELETE("/current", h.Dismiss)
}
