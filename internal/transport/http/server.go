package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Radii are the proximity radii served by /api/nearby?purpose=.
type Radii struct {
	Chat   float64
	Video  float64
	Object float64
}

// Options configures the inspection server.
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	Radii             Radii
}

// NewServer builds the local inspection and control API over engine.
func NewServer(engine Engine, opts Options, logger *zerolog.Logger) *stdhttp.Server {
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}
	return &stdhttp.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(engine, opts.Radii, logger),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(engine Engine, radii Radii, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/health", healthHandler)

	h := NewInspectHandlers(engine, radii, logger)
	api := r.Group("/api")
	api.GET("/roster", h.Roster)
	api.GET("/nearby", h.Nearby)
	api.GET("/self", h.Self)
	api.GET("/signals", h.Signals)

	api.POST("/input", h.Input)
	api.POST("/chat", h.Chat)
	api.POST("/reaction", h.Reaction)
	api.POST("/typing", h.Typing)
	api.POST("/room", h.SwitchRoom)

	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
