package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/tickethub/ticketing-platform/config"
	"github.com/tickethub/ticketing-platform/internal/handler"
	"github.com/tickethub/ticketing-platform/internal/middleware"
	"github.com/tickethub/ticketing-platform/internal/repository"
	"github.com/tickethub/ticketing-platform/internal/service"
	"github.com/tickethub/ticketing-platform/pkg/database"
	"github.com/tickethub/ticketing-platform/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ is optional: without a broker the service still runs, it just
	// skips lifecycle notifications.
	var publisher *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		var err error
		publisher, err = rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	}

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// Services
	eventSvc := service.NewEventService(eventRepo, publisher)
	bookingSvc := service.NewBookingService(bookingRepo, eventRepo, publisher)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(echoMw.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "ticketing-platform"})
	})

	handler.NewEventHandler(eventSvc).RegisterRoutes(e)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)

	log.Printf("Ticketing Platform starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
