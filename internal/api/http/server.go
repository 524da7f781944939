package http

import (
	"github.com/gofiber/fiber/v2"
)

// ServerConfig bundles everything needed to assemble the HTTP application.
type ServerConfig struct {
	AppName     string
	ProxyHeader string
	Middleware  MiddlewareConfig
	Routes      RouteConfig
}

// NewServer builds the fiber application with the global middleware chain
// followed by identification, the rate governor and the routes.
func NewServer(cfg ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ProxyHeader:           cfg.ProxyHeader,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, cfg.Middleware)
	RegisterRoutes(app, cfg.Routes)
	return app
}
