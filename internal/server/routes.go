package server

import (
	"log/slog"
	"time"

	"orderitems/internal/handler"
	"orderitems/internal/middleware"
	"orderitems/internal/validator"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	OrderItems *handler.OrderItemHandler
	Health     *handler.HealthHandler
}

// Newはmiddlewareとルートを登録したechoを返す
func New(log *slog.Logger, requestTimeout time.Duration, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.RequestTimeout(requestTimeout))

	RegisterRoutes(e, h)
	return e
}

func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	h.Health.RegisterRoutes(e)
	h.OrderItems.RegisterRoutes(e)
}
