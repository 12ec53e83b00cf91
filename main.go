package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"license-service/internal/background"
	"license-service/internal/config"
	"license-service/internal/handlers"
	"license-service/internal/metrics"
	"license-service/internal/middleware"
	"license-service/internal/models"
	natsClient "license-service/internal/nats"
	"license-service/internal/redis"
	"license-service/internal/repository"
	"license-service/internal/services"
)

func main() {
	// Load configuration
	cfg := config.New()

	logger := newLogger(cfg)

	// Initialize database connection
	db, err := initDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto-migrate models and seed reference data
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis connection (optional)
	var cache *redis.Client
	cache, err = redis.NewClient(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("License validation and pricing will not be cached")
		cache = nil
	} else {
		log.Println("Connected to Redis successfully")
	}

	// Initialize NATS connection for event publishing (optional)
	var nc *natsClient.Client
	nc, err = natsClient.NewClient(&natsClient.Config{URL: cfg.NATS.URL})
	if err != nil {
		log.Printf("Warning: Failed to connect to NATS: %v", err)
		log.Println("Event publishing will be disabled")
		nc = nil
	} else {
		log.Println("Connected to NATS successfully")
		defer nc.Close()
	}

	// Initialize metrics
	metricsCollector := metrics.New()

	// Initialize repositories
	orgRepo := repository.NewOrganizationRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db, cfg.Invoice.DefaultDueDays)
	statsRepo := repository.NewStatsRepository(db)

	if err := moduleRepo.Seed(context.Background(), defaultModules()); err != nil {
		log.Printf("Warning: Failed to seed module catalog: %v", err)
	}

	// Initialize services
	authSvc := services.NewAuthService(cfg.Auth)
	emailSvc := services.NewEmailService(cfg.SMTP, logger)
	orgSvc := services.NewOrganizationService(orgRepo, settingsRepo, cache, nc, metricsCollector, logger)
	moduleSvc := services.NewModuleService(moduleRepo, orgRepo, cache, logger)
	invoiceSvc := services.NewInvoiceService(invoiceRepo, orgRepo, settingsRepo, emailSvc, nc, metricsCollector, logger)
	settingsSvc := services.NewSettingsService(settingsRepo, logger)
	statsSvc := services.NewStatsService(statsRepo, orgRepo, metricsCollector, logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cache, nc)
	authHandler := handlers.NewAuthHandler(authSvc)
	orgHandler := handlers.NewOrganizationHandler(orgSvc)
	moduleHandler := handlers.NewModuleHandler(moduleSvc)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceSvc)
	settingsHandler := handlers.NewSettingsHandler(settingsSvc)
	statsHandler := handlers.NewStatsHandler(statsSvc)
	emailHandler := handlers.NewEmailHandler(emailSvc, cfg.SMTP)

	// Start background jobs
	bgRunner := background.NewRunner(invoiceSvc, orgSvc, cfg.Jobs)
	bgRunner.Start()

	// Setup router
	router := setupRouter(
		cfg,
		logger,
		authSvc,
		metricsCollector,
		healthHandler,
		authHandler,
		orgHandler,
		moduleHandler,
		invoiceHandler,
		settingsHandler,
		statsHandler,
		emailHandler,
	)

	// Setup server
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting license-service on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop background jobs first
	bgRunner.Stop()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}

	log.Println("Server exited")
}

func setupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	authSvc *services.AuthService,
	metricsCollector *metrics.Metrics,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	orgHandler *handlers.OrganizationHandler,
	moduleHandler *handlers.ModuleHandler,
	invoiceHandler *handlers.InvoiceHandler,
	settingsHandler *handlers.SettingsHandler,
	statsHandler *handlers.StatsHandler,
	emailHandler *handlers.EmailHandler,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// CORS configuration for the admin console
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000", // Admin console (local)
		"http://localhost:3001",
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, origins)
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "x-admin-secret"}
	corsConfig.AllowCredentials = true

	// Global middleware
	router.Use(cors.New(corsConfig))
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(metricsCollector.Middleware())

	// Metrics endpoint (Prometheus scraping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	api := router.Group("/api")
	{
		// Public: the license key in the payload is the credential
		api.POST("/auth/login", authHandler.Login)
		api.POST("/license/validate", orgHandler.Validate)
		api.GET("/license/pricing", orgHandler.Pricing)
		api.POST("/stats/report", statsHandler.Report)

		// Admin console endpoints
		admin := api.Group("")
		admin.Use(middleware.AdminAuth(authSvc, logger))
		{
			admin.GET("/license/list", orgHandler.List)
			admin.POST("/license/create", orgHandler.Create)
			admin.POST("/license/update", orgHandler.Update)

			admin.GET("/modules", moduleHandler.ListCatalog)
			admin.GET("/organizations/:id/modules", moduleHandler.ListForOrganization)
			admin.POST("/organizations/:id/modules", moduleHandler.Toggle)

			admin.GET("/invoices/list", invoiceHandler.List)
			admin.POST("/invoices/create", invoiceHandler.Create)
			admin.GET("/invoices/:id", invoiceHandler.Get)
			admin.PATCH("/invoices/:id", invoiceHandler.UpdateStatus)
			// POST alias kept for clients of the previous console API
			admin.POST("/invoices/:id", invoiceHandler.UpdateStatus)
			admin.DELETE("/invoices/:id", invoiceHandler.Delete)
			admin.POST("/invoices/:id/send", invoiceHandler.Send)

			admin.GET("/settings/company", settingsHandler.GetCompany)
			admin.PUT("/settings/company", settingsHandler.UpdateCompany)
			admin.POST("/settings/company", settingsHandler.UpdateCompany)
			admin.GET("/license-types/prices", settingsHandler.ListPrices)
			admin.PUT("/license-types/:type/price", settingsHandler.SetPrice)

			admin.GET("/stats/report", statsHandler.Get)

			admin.GET("/email/test", emailHandler.GetConfig)
			admin.POST("/email/test", emailHandler.Test)
		}
	}

	return router
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Connected to database successfully")
	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	// UUID primary keys use uuid_generate_v4()
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		log.Printf("Warning: Failed to create uuid-ossp extension: %v", err)
	}

	modelList := []interface{}{
		&models.Organization{},
		&models.Module{},
		&models.OrganizationModule{},
		&models.LicenseTypePrice{},
		&models.LicenseValidation{},
		&models.OrganizationStats{},
		&models.Invoice{},
		&models.InvoiceSequence{},
		&models.CompanySettings{},
	}
	for _, model := range modelList {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	return nil
}

// defaultModules is the add-on catalog seeded on first start. Booking itself
// is core functionality, not a module.
func defaultModules() []models.Module {
	price := func(v int) *int { return &v }
	return []models.Module{
		{Key: "betaling", Name: "Betaling", Description: "Online betaling for bookinger", Price: price(200)},
		{Key: "medlemskap", Name: "Medlemskap", Description: "Medlemsregister og kontingent", Price: price(150)},
		{Key: "varsling", Name: "Varsling", Description: "SMS- og e-postvarsling", Price: price(150)},
		{Key: "rapporter", Name: "Rapporter", Description: "Utvidede rapporter og eksport", Price: price(100)},
	}
}
