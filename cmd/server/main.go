package main

import (
	"log"

	"rivo_booking_go/config"
	"rivo_booking_go/db"
	"rivo_booking_go/handlers"
	"rivo_booking_go/middleware"
	"rivo_booking_go/models"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&models.Tenant{},
		&models.Category{},
		&models.Service{},
		&models.Availability{},
		&models.AvailabilityException{},
		&models.Reservation{},
		&models.Appointment{},
		&models.AuditLog{},
		&models.NotificationLog{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Database-level capacity safety net behind the application checks
	if err := db.InstallCapacityGuard(db.DB); err != nil {
		log.Fatalf("Failed to install capacity guard: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	// Public booking routes (guest-facing, tenant resolved by subdomain)
	public := e.Group("/book/:subdomain")
	public.Use(middleware.ResolveTenant())
	{
		public.GET("/config", handlers.GetBookingConfigHandler)
		public.GET("/slots", handlers.GetSlotsHandler)
		public.POST("/reservations", handlers.CreateReservationHandler)
		public.POST("/reservations/:id/extend", handlers.ExtendReservationHandler)
		public.POST("/reservations/:id/commit", handlers.CommitReservationHandler)
		public.DELETE("/reservations/:id", handlers.ReleaseReservationHandler)
		public.GET("/appointments/:code", handlers.GetGuestAppointmentHandler)
		public.POST("/appointments/:code/cancel", handlers.CancelGuestAppointmentHandler)
	}

	// Operator API routes (tenant-scoped)
	api := e.Group("/api/tenants/:subdomain")
	api.Use(middleware.ResolveTenant())
	{
		api.POST("/appointments", handlers.CreateAppointmentHandler)
		api.GET("/appointments", handlers.GetAppointmentsHandler)
		api.GET("/appointments/:id", handlers.GetAppointmentHandler)
		api.PUT("/appointments/:id", handlers.UpdateAppointmentHandler)
		api.POST("/appointments/:id/cancel", handlers.CancelAppointmentHandler)
		api.POST("/appointments/:id/complete", handlers.CompleteAppointmentHandler)
		api.POST("/appointments/:id/no-show", handlers.MarkNoShowHandler)
		api.GET("/appointments/:id/history", handlers.GetAppointmentHistoryHandler)
		api.GET("/audit-logs", handlers.GetAuditLogsHandler)
	}

	// Internal maintenance routes (expected to sit behind the deployment's
	// network boundary)
	internal := e.Group("/internal")
	{
		internal.POST("/reservations/cleanup", handlers.CleanupReservationsHandler)
		internal.GET("/reservations/health", handlers.ReservationHealthHandler)
	}

	// Start server
	log.Printf("Starting server on port %s (environment: %s)", cfg.ServerPort, cfg.Environment)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
