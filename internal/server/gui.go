package server

import (
	"context"
	"embed"
	"fmt"
	"net/http"

	"github.com/equinor/fmu-settings-cli/internal/model"

	"github.com/gin-gonic/gin"
)

//go:embed templates/index.html
var guiTemplate embed.FS

// NewGUIRouter serves the front-end shell. The session token reaches the
// page through the URL fragment; nothing here needs to see it.
func NewGUIRouter(cfg model.GUIConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/", func(c *gin.Context) {
		data, err := guiTemplate.ReadFile("templates/index.html")
		if err != nil {
			c.String(http.StatusInternalServerError, "Error reading index page")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})

	return router
}

// RunGUI binds host:port and serves the GUI until it fails or ctx is
// cancelled. Ports outside the app registration allow-list are rejected
// before the bind is attempted.
func RunGUI(ctx context.Context, cfg model.GUIConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)

	ln, err := listen("GUI", cfg.Host, cfg.Port)
	if err != nil {
		return err
	}

	fmt.Printf("Starting FMU Settings GUI server on %s:%d...\n", cfg.Host, cfg.Port)
	return serve(ctx, &http.Server{Handler: NewGUIRouter(cfg)}, ln)
}
