package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reward-bot/internal/bot"
	"reward-bot/internal/common/errors"
	"reward-bot/internal/common/middleware"
)

const serviceName = "reward-bot"

type StatsProvider interface {
	Stats(ctx context.Context) (bot.Stats, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter builds the read-only ops surface: health probes and stats.
func NewRouter(stats StatsProvider, store Pinger, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "storage unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/stats", func(c *gin.Context) {
			s, err := stats.Stats(c.Request.Context())
			if err != nil {
				middleware.AbortWithError(c, errors.Wrap(err, errors.ErrCodeStorageError, "Failed to compute stats"))
				return
			}
			c.JSON(http.StatusOK, s)
		})
	}

	return router
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
