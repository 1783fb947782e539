package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/meetingspace/api/internal/auth"
	"github.com/meetingspace/api/internal/middleware"
)

// RegisterRoutes wires every handler in this package onto router, matching
// the routes SPEC_FULL.md §6 and §6.1 name.
func RegisterRoutes(router *gin.Engine, bridge *auth.Bridge, meetings *MeetingHandler, authH *AuthHandler, summary *SummaryHandler, exportH *ExportHandler, ws *SessionWSHandler) {
	authLimiter := middleware.NewEndpointRateLimiter(30, 5)

	api := router.Group("/api")
	{
		api.POST("/auth/register", authLimiter.Middleware("register"), authH.Register)
		api.POST("/auth/login", authLimiter.Middleware("login"), authH.Login)

		protected := api.Group("/")
		protected.Use(auth.RequireAuth(bridge))
		{
			protected.POST("/meetings", meetings.Create)
			protected.GET("/meetings/:id", meetings.Get)
		}

		api.POST("/:meeting_id/summarize/", summary.Summarize)
		api.POST("/:meeting_id/export/", exportH.Export)
	}

	router.GET("/download/:filename", exportH.Download)

	// Both routes share the same wildcard name: gin's routing tree panics on
	// registration if two routes at the same path depth use different
	// wildcard names (":meeting_id" vs ":access_code"), even though the
	// trailing static segment differs.
	router.GET("/ws/meeting/:id/host", ws.HandleHost)
	router.GET("/ws/meeting/:id/participant", ws.HandleParticipant)
}
