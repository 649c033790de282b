package app

import (
	"fmt"
	"strings"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/config"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/delivery/http/handler"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/delivery/http/middleware"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/delivery/http/routes"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func Bootstrap(cfg config.Config, logger *logging.Logger) (*App, func() error, error) {
	container, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	f := fiber.New(fiber.Config{
		AppName: cfg.App.AppName,
	})

	registerGlobalMiddleware(f, logger)
	registerRoutes(f, container)

	cleanup := func() error { return container.Close() }
	return &App{Fiber: f, Container: container}, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *logging.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
}

func registerRoutes(app *fiber.App, container *Container) {
	if app == nil || container == nil {
		return
	}

	registry := routes.NewRegistry(
		handler.NewHealthHandler(container.DB, container.Cache),
		handler.NewSearchHandler(container.Search),
	)
	registry.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
