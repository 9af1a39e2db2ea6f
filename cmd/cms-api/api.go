package main

import (
	"log/slog"
	"strconv"

	"github.com/firecms/cms/pkg/services"
	"github.com/firecms/cms/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger    *slog.Logger
	products  *services.Product
	approvals *services.Approval
	validate  *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	products *services.Product,
	approvals *services.Approval,
) *API {
	return &API{
		logger:    logger,
		products:  products,
		approvals: approvals,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.products, a.approvals, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			_, ok := a.products.HealthCheck(c.Context())

			return ok
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("CMS API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	a.logger.Info("Starting CMS API", "port", port)

	return app.Listen(":" + strconv.Itoa(port))
}
