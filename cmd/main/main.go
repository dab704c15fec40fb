package main

// @title WhatsApp QR Connector
// @version 1.0.0
// @description Multi-tenant WhatsApp connector with per-tenant sessions, QR pairing and a Server-Sent-Events stream of session and message events

// @host localhost:7001
// @BasePath /

// @securityDefinitions.apikey AdminAuth
// @in header
// @name X-Admin-Secret
// @description Admin secret key for tenant management

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token scoped to one tenant

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cron "github.com/robfig/cron/v3"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"

	"github.com/TEMPERINE/wa-qr-connector/pkg/engine/meow"
	"github.com/TEMPERINE/wa-qr-connector/pkg/env"
	"github.com/TEMPERINE/wa-qr-connector/pkg/log"
	"github.com/TEMPERINE/wa-qr-connector/pkg/registry"
	"github.com/TEMPERINE/wa-qr-connector/pkg/router"
	"github.com/TEMPERINE/wa-qr-connector/pkg/store"

	"github.com/TEMPERINE/wa-qr-connector/internal"
)

type Server struct {
	Address string
	Port    string
}

func main() {
	var err error

	// Initialize Tenant Store
	db, err := store.OpenDatabase()
	if err != nil {
		log.Print(nil).Fatal("Failed to open tenant datastore: " + err.Error())
	}
	tenants := store.New(db)

	ctxBoot, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := tenants.EnsureSchema(ctxBoot); err != nil {
		log.Print(nil).Fatal("Failed to prepare tenant datastore schema: " + err.Error())
	}

	// Initialize Engine
	eng, err := meow.NewEngine(ctxBoot, tenants)
	cancelBoot()
	if err != nil {
		log.Print(nil).Fatal("Failed to initialize engine: " + err.Error())
	}

	// Initialize Session Registry
	sessions := registry.New(eng, tenants)

	// Initialize Cron
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
	), cron.WithSeconds())

	// Initialize Fiber
	app := fiber.New(fiber.Config{
		ErrorHandler:   router.HttpErrorHandler,
		BodyLimit:      router.BodyLimitBytes(),
		ReadBufferSize: 8192, // Larger than default 4096 to handle bearer token headers
	})

	// Request ID + panic recovery (structured JSON)
	app.Use(router.HttpRequestID())
	app.Use(router.RecoveryMiddleware())

	// Router Compression
	app.Use(compress.New(compress.Config{
		Level: compress.Level(router.GZipLevel),
		Next: func(c *fiber.Ctx) bool {
			return strings.Contains(c.Path(), "docs") || strings.HasSuffix(c.Path(), "/events")
		},
	}))

	// Router CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins: router.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
	}))

	// Router Security
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	// Router Cache
	app.Use(router.HttpCacheInMemory(router.CacheTTLSeconds))

	// Router RealIP + request context enrichment
	app.Use(router.HttpRealIP())

	// Router Default Handler
	app.Get("/favicon.ico", router.ResponseNoContent)

	// Load Internal Routes
	internal.Routes(app, sessions)

	// Running Startup Tasks
	internal.Startup(sessions, tenants)

	// Running Routines Tasks
	internal.Routines(c, sessions, tenants)

	// Get Server Configuration with defaults
	var serverConfig Server

	// SERVER_ADDRESS: default "0.0.0.0" (all interfaces)
	serverConfig.Address = env.GetEnvStringOrDefault("SERVER_ADDRESS", "0.0.0.0")

	// SERVER_PORT: default "7001"
	serverConfig.Port = env.GetEnvStringOrDefault("SERVER_PORT", "7001")

	// Start Server
	go func() {
		if err := app.Listen(serverConfig.Address + ":" + serverConfig.Port); err != nil {
			log.Print(nil).Fatal(err.Error())
		}
	}()

	// Watch for Shutdown Signal
	sigShutdown := make(chan os.Signal, 1)
	signal.Notify(sigShutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-sigShutdown
	// Wait 5 Seconds Before Graceful Shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Try To Shutdown Server
	err = app.ShutdownWithContext(ctxShutdown)
	if err != nil {
		log.Print(nil).Fatal(err.Error())
	}

	// Try To Shutdown Cron
	c.Stop()

	// Tear Down Sessions
	sessions.Shutdown(ctxShutdown)
}
