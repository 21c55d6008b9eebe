package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	if ownerID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"ownerId": ownerID,
		"isGuest": middleware.IsGuest(c),
	})
}
