package auth

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует маршруты входа и выхода.
func SetupRoutes(r *gin.RouterGroup, s Sessions) {
	h := NewHandler(s)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/me", h.Me)
}
