// Package router wires handlers and middleware onto Echo.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/portfolio-api/internal/config"
	"github.com/iliyamo/portfolio-api/internal/handler"
	"github.com/iliyamo/portfolio-api/internal/logging"
	"github.com/iliyamo/portfolio-api/internal/middleware"
	"github.com/iliyamo/portfolio-api/internal/model"
	"github.com/iliyamo/portfolio-api/internal/queue"
	"github.com/iliyamo/portfolio-api/internal/repository"
	"github.com/iliyamo/portfolio-api/internal/service"
	"github.com/iliyamo/portfolio-api/internal/utils"
)

// Prefixes every API route is mounted under. "/api" matches the deployed
// frontend; the bare paths serve direct callers.
var Prefixes = []string{"", "/api"}

// Deps is everything New needs. Cache and Counter may be nil; the API then
// runs without response caching or rate limiting.
type Deps struct {
	Config    config.Config
	RateLimit config.RateLimitConfig
	Log       logging.Logger
	Stores    repository.Stores
	Tokens    *utils.TokenService
	Cache     *middleware.ResponseCache
	Counter   middleware.WindowCounter
	Events    queue.Publisher
}

// New builds the complete Echo application.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	Setup(e, d.Config, d.Log)

	auth := service.NewAuthService(d.Stores.Users, d.Tokens, service.AuthOptions{
		BcryptCost:          d.Config.BcryptCost,
		RegistrationEnabled: d.Config.RegistrationEnabled,
	}, d.Log)

	content := Content{
		Posts:      handler.NewResourceHandler[model.Post]("posts", d.Stores.Posts, d.Cache, d.Events, d.Log),
		Education:  handler.NewResourceHandler[model.Education]("education", d.Stores.Education, d.Cache, d.Events, d.Log),
		Experience: handler.NewResourceHandler[model.Experience]("experience", d.Stores.Experience, d.Cache, d.Events, d.Log),
	}

	limit := middleware.NewFixedWindow(d.RateLimit, d.Counter, d.Log)
	gate := middleware.JWTAuth(d.Tokens)

	RegisterRoutes(e)
	for _, prefix := range Prefixes {
		g := e.Group(prefix)
		RegisterAuth(g, handler.NewAuthHandler(auth), gate, limit)
		RegisterContent(g, content, d.Cache, gate, limit)
	}
	return e
}

// Setup installs the global middleware stack and the error handler.
func Setup(e *echo.Echo, cfg config.Config, log logging.Logger) {
	e.HTTPErrorHandler = handler.ErrorHandler(log, cfg.IsProduction())

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.AllowedOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info(c.Request().Context(), "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))
}

// RegisterRoutes registers the unauthenticated service endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
}

// RegisterAuth mounts /auth under g. Register and login are open; /auth/me
// requires a token.
func RegisterAuth(g *echo.Group, a *handler.AuthHandler, gate, limit echo.MiddlewareFunc) {
	g.POST("/auth/register", a.Register, limit)
	g.POST("/auth/login", a.Login, limit)
	g.GET("/auth/me", a.Me, limit, gate)
}

// Content groups the three CV resource handlers.
type Content struct {
	Posts      *handler.ResourceHandler[model.Post, *model.Post]
	Education  *handler.ResourceHandler[model.Education, *model.Education]
	Experience *handler.ResourceHandler[model.Experience, *model.Experience]
}

// RegisterContent mounts every resource with its aliases. Reads are public
// and cached; writes go through the JWT gate.
func RegisterContent(g *echo.Group, c Content, cache *middleware.ResponseCache, gate, limit echo.MiddlewareFunc) {
	mountResource(g, "/posts", c.Posts, cache, gate, limit)
	for _, path := range []string{"/estudios", "/education"} {
		mountResource(g, path, c.Education, cache, gate, limit)
	}
	for _, path := range []string{"/experiencia", "/experience"} {
		mountResource(g, path, c.Experience, cache, gate, limit)
	}
}

func mountResource[T any, PT interface {
	*T
	model.Document
}](g *echo.Group, path string, h *handler.ResourceHandler[T, PT], cache *middleware.ResponseCache, gate, limit echo.MiddlewareFunc) {
	cached := cache.Middleware(h.Name)
	g.GET(path, h.List, limit, cached)
	g.GET(path+"/:id", h.Get, limit, cached)
	g.POST(path, h.Create, limit, gate)
	g.PUT(path+"/:id", h.Update, limit, gate)
	g.DELETE(path+"/:id", h.Delete, limit, gate)
}
