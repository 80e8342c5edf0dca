package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/equinor/fmu-settings-cli/internal/model"

	"github.com/gin-gonic/gin"
)

// NewAPIRouter builds the API routes: an open health probe plus the
// token-guarded, CORS-restricted /api/v1 group.
func NewAPIRouter(cfg model.APIConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Reload {
		router.Use(gin.Logger())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1", allowOrigin(cfg.FrontendOrigin()), tokenAuth(cfg.Token))
	api.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pid":      os.Getpid(),
			"frontend": cfg.FrontendOrigin(),
			"started":  time.Now().UTC().Format(time.RFC3339),
		})
	})

	return router
}

// RunAPI binds host:port and serves the API until it fails or ctx is
// cancelled. The call blocks for the lifetime of the server.
func RunAPI(ctx context.Context, cfg model.APIConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.Reload {
		gin.SetMode(gin.ReleaseMode)
	}

	ln, err := listen("API", cfg.Host, cfg.Port)
	if err != nil {
		return err
	}

	fmt.Printf("Starting FMU Settings API server on %s:%d...\n", cfg.Host, cfg.Port)
	return serve(ctx, &http.Server{Handler: NewAPIRouter(cfg)}, ln)
}
