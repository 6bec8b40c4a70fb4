package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/agency-management-api/internal/config"
	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/database"
	"github.com/yukikurage/agency-management-api/internal/events"
	"github.com/yukikurage/agency-management-api/internal/handlers"
	"github.com/yukikurage/agency-management-api/internal/ledger"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/middleware"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}

	// Run migrations
	if err := database.Migrate(db, appLog); err != nil {
		appLog.Fatal("Failed to run migrations", "error", err)
	}

	publisher, err := events.New(cfg.EventBus, events.Options{
		RedisAddr: cfg.RedisAddr(),
		Channel:   cfg.EventChannel,
		AMQPURL:   cfg.AMQPURL,
	}, appLog)
	if err != nil {
		appLog.Fatal("Failed to create event publisher", "bus", cfg.EventBus, "error", err)
	}
	defer publisher.Close()

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(appLog), middleware.CORS(cfg.CORSOrigins))

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		"",              // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		appLog.Fatal("Failed to create Redis store", "error", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	productRepo := repository.NewProductRepository(db)

	// Task suggestions are optional
	var generator services.TaskGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Services
	authService := services.NewAuthService(userRepo, appLog)
	companyService := services.NewCompanyService(companyRepo, appLog)
	progressService := services.NewProgressService(repository.NewProgressRepository(db), appLog)
	projectService := services.NewProjectService(projectRepo, progressService, appLog)
	taskService := services.NewTaskService(taskRepo, projectRepo, progressService, generator, appLog)
	invoiceService := services.NewInvoiceService(invoiceRepo, projectRepo, publisher, services.InvoiceOptions{
		DueDays:  cfg.InvoiceDueDays,
		Currency: cfg.InvoiceCurrency,
	}, appLog)
	paymentService := services.NewPaymentService(repository.NewLedgerRepository(db), invoiceRepo, publisher, ledger.Options{
		MarkPartial: cfg.MarkPartialPayments,
	}, appLog)
	proposalService := services.NewProposalService(repository.NewProposalRepository(db), invoiceService, publisher, appLog)
	catalogService := services.NewCatalogService(productRepo, appLog)
	subscriptionService := services.NewSubscriptionService(
		repository.NewClientServiceRepository(db),
		repository.NewSubscriptionRepository(db),
		productRepo,
		invoiceService,
		services.SubscriptionOptions{LeadDays: cfg.RecurringLeadDays},
		appLog,
	)
	requestService := services.NewServiceRequestService(repository.NewServiceRequestRepository(db), productRepo, appLog)
	commentService := services.NewCommentService(repository.NewCommentRepository(db), projectRepo, taskRepo, publisher, appLog)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Agency Management API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(r, handlers.Handlers{
		Auth:          handlers.NewAuthHandler(authService, companyService, appLog),
		Company:       handlers.NewCompanyHandler(companyService),
		Project:       handlers.NewProjectHandler(projectService, progressService),
		Task:          handlers.NewTaskHandler(taskService, appLog),
		Invoice:       handlers.NewInvoiceHandler(invoiceService, paymentService),
		Proposal:      handlers.NewProposalHandler(proposalService),
		Catalog:       handlers.NewCatalogHandler(catalogService),
		ClientService: handlers.NewClientServiceHandler(subscriptionService, requestService),
		Comment:       handlers.NewCommentHandler(commentService),
	}, handlers.Access{
		Users:          userRepo,
		Companies:      companyRepo,
		Projects:       projectRepo,
		StaffUsernames: cfg.StaffUsernames,
	})

	// Start server
	appLog.Info("Server starting", "port", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		appLog.Fatal("Failed to start server", "error", err)
	}
}
