package api

import (
	"dataroom/backend/go/pkg/httpmiddleware"
	"dataroom/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RouterOptions configure NewRouter.
type RouterOptions struct {
	ServiceName string
	// Limiter is applied to every route when non-nil.
	Limiter ratelimiter.RateLimiter
}

// NewRouter wires the handlers and middleware into a gin engine.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmiddleware.RequestLogger(opts.ServiceName))
	if opts.Limiter != nil {
		router.Use(httpmiddleware.RateLimit(opts.Limiter))
	}
	router.MaxMultipartMemory = maxUploadBytes

	router.POST("/index", h.index)
	router.POST("/search", h.search)
	router.POST("/documents", h.upload)
	router.DELETE("/documents", h.removeDocument)
	router.GET("/projects", h.projects)
	router.GET("/health", h.health)
	return router
}
