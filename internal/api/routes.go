package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteOptions controls the non-API routes.
type RouteOptions struct {
	// AssetDir is served under /assets when set.
	AssetDir string
	// Editor enables the embedded editor page and its static files.
	Editor bool
}

func RegisterRoutes(r *gin.Engine, h *Handlers, opts RouteOptions) {
	if opts.Editor {
		registerEditor(r, h)
	}
	if opts.AssetDir != "" {
		r.StaticFS("/assets", http.Dir(opts.AssetDir))
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.POST("/preview", h.preview)
		api.GET("/presets", h.presets)

		api.POST("/share", h.createShare)
		api.GET("/share/qr", h.shareQR)
		api.GET("/share/:token", h.getShare)

		api.POST("/sessions", h.createSession)
		s := api.Group("/sessions/:id")
		{
			s.GET("/background", h.background)
			s.POST("/background/nudge", h.nudge)
			s.POST("/background/zoom", h.zoom)
			s.POST("/background/flip", h.flip)
			s.POST("/background/reset", h.reset)

			s.PUT("/silhouette/url", h.silhouetteURL)
			s.POST("/silhouette/upload", h.silhouetteUpload)
			s.POST("/silhouette/remove-background", h.removeBackground)
			s.GET("/silhouette/remove-background/status", h.removalStatus)

			s.POST("/export", h.exportCard)
		}
	}
}
