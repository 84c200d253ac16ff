package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
)

// NewRouter builds the gin engine: recovery, request ids, access log, CORS,
// the health check and the order routes.
func NewRouter(cfg HandlerConfig) *gin.Engine {
	r := gin.New()
	if cfg.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadBytes
	}
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(cfg.logger()))
	r.Use(cors.New(corsConfig()))
	if cfg.MaxUploadBytes > 0 {
		r.Use(BodyLimit(cfg.MaxUploadBytes))
	}

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterOrdersRoutes(r, cfg)

	return r
}

// corsConfig opens the API to any origin, as the browser front-end is served
// from elsewhere.
func corsConfig() cors.Config {
	return cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", HeaderIdempotencyKey, HeaderRequestID},
		ExposeHeaders:   []string{HeaderRequestID},
		MaxAge:          12 * time.Hour,
	}
}

func (cfg HandlerConfig) logger() log.Logger {
	if cfg.Logger == nil {
		return log.DefaultLogger
	}
	return cfg.Logger
}
