package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/api"
	adminapi "github.com/Nixie-Tech-LLC/masjid-console/internal/http/api/admin/endpoints"
	tvapi "github.com/Nixie-Tech-LLC/masjid-console/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/middleware"
)

// Dependencies are the services the routes are built on. History,
// Displays and Hub are optional.
type Dependencies struct {
	Ranges      adminapi.RangeService
	Broadcaster adminapi.Notifier
	History     adminapi.CommandHistory
	Displays    adminapi.DisplayLister
	Hub         http.Handler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			middleware.RequestIDHeader,
		},
		ExposeHeaders: []string{
			"Content-Length",
			middleware.RequestIDHeader,
		},
		AllowCredentials: false,
	}))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
	},
		adminapi.IqamaahModule(deps.Ranges, deps.Broadcaster),
		adminapi.DisplaysModule(deps.Broadcaster, deps.History, deps.Displays),
	)

	if deps.Hub != nil {
		api.MountGroup(r, api.GroupConfig{
			Prefix: "/api/tv",
		},
			tvapi.SocketModule(deps.Hub),
		)
	}
}
