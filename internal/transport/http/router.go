package httptransport

import (
	"log/slog"

	"github.com/circlapp/circl-link-agent/internal/transport/http/handler"
	"github.com/circlapp/circl-link-agent/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type Handlers struct {
	Links    *handler.LinkHandler
	Push     *handler.PushHandler
	Sessions *handler.SessionHandler
	CheckIns *handler.CheckInHandler
}

// NewRouter builds the local API. With a non-empty jwtKey every route
// requires a Bearer token; without one the API is open to local callers.
func NewRouter(logger *slog.Logger, h Handlers, jwtKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	api := r.Group("")
	if len(jwtKey) > 0 {
		api.Use(middleware.Auth(jwtKey))
	}

	links := api.Group("/links")
	links.POST("/open", h.Links.Open)
	links.POST("/continue", h.Links.Continue)
	links.POST("/params", h.Links.Params)

	api.POST("/push/token", h.Push.RegisterToken)

	api.GET("/session", h.Sessions.State)
	api.POST("/session/login", h.Sessions.Login)
	api.POST("/session/logout", h.Sessions.Logout)

	api.POST("/checkins", h.CheckIns.Create)

	return r
}
