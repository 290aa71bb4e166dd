package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const timeLayout = time.RFC3339

type Handlers struct {
	Trips        *TripHandler
	Reservations *ReservationHandler
	Documents    *DocumentHandler
	Passes       *PassHandler
	Imports      *ImportHandler
	Deletions    *DeletionHandler
	Settings     *SettingsHandler
	Forms        *FormHandler
}

// NewRouter mounts every handler under /api/v1.
func NewRouter(h Handlers, logger logrus.FieldLogger, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(corsConfig(origins)))

	v1 := router.Group("/api/v1")
	h.Trips.Register(v1.Group("/trips"))
	h.Reservations.Register(v1.Group("/reservations"))
	h.Documents.Register(v1.Group("/documents"))
	h.Passes.Register(v1.Group("/passes"))
	h.Imports.Register(v1.Group("/imports"))
	h.Deletions.Register(v1.Group("/deletions"))
	h.Settings.Register(v1.Group("/settings"))
	h.Forms.Register(v1.Group("/forms"))
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
