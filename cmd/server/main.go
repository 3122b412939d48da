package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/colectra/backend/internal/config"
	"github.com/colectra/backend/internal/handler"
	appMiddleware "github.com/colectra/backend/internal/middleware"
	"github.com/colectra/backend/internal/repository"
	"github.com/colectra/backend/internal/service"
	"github.com/colectra/backend/internal/ws"
	"github.com/colectra/backend/pkg/payment"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func main() {
	// Load .env file if present (for local development)
	loadDotEnv()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx := context.Background()

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Migration error: %v", err)
	}
	log.Println("Database connected & migrated")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	kvRepo := repository.NewKVRepository(db)
	agencyRepo := repository.NewAgencyRepository(db)
	zoneRepo := repository.NewZoneRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	clientRepo := repository.NewClientRepository(db)
	tariffRepo := repository.NewTariffRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	reportRepo := repository.NewReportRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.AdminEmail, cfg.AdminPassword, userRepo, walletRepo, kvRepo)

	// Seed admin user on first startup
	if err := authSvc.SeedAdmin(ctx); err != nil {
		log.Fatalf("Admin seed error: %v", err)
	}

	gateway := payment.NewMockGateway()
	walletSvc := service.NewWalletService(walletRepo, notifRepo, gateway)
	agencySvc := service.NewAgencyService(agencyRepo, zoneRepo, employeeRepo, tariffRepo, userRepo)
	clientSvc := service.NewClientService(clientRepo, zoneRepo)
	subSvc := service.NewSubscriptionService(subRepo, tariffRepo, walletRepo, clientRepo, agencyRepo, notifRepo, cfg.RenewalAnchor)
	reportSvc := service.NewReportService(reportRepo, agencyRepo, notifRepo)

	scanFeed := ws.NewScanFeed(authSvc, agencyRepo)
	collectionSvc := service.NewCollectionService(collectionRepo, employeeRepo, zoneRepo, clientRepo, scanFeed)

	// Background sweeper: renewal warnings, expirations, round closing
	sweeper := service.NewSweeper(subRepo, notifRepo, collectionRepo, kvRepo, cfg.SweepSchedule, cfg.ExpiryWarnDays)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Sweeper error: %v", err)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(authSvc)
	walletHandler := handler.NewWalletHandler(walletSvc, gateway)
	agencyHandler := handler.NewAgencyHandler(agencySvc, reportSvc)
	clientHandler := handler.NewClientHandler(clientSvc)
	subHandler := handler.NewSubscriptionHandler(subSvc)
	collectionHandler := handler.NewCollectionHandler(collectionSvc, agencySvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	notifHandler := handler.NewNotificationHandler(notifRepo)
	healthHandler := handler.NewHealthHandler(db)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Health check and public routes (no auth)
	r.Get("/health", healthHandler.Health)
	r.Get("/api/agencies", agencyHandler.List)
	r.Get("/api/agencies/{agencyID}", agencyHandler.Get)
	r.Get("/api/agencies/{agencyID}/tariffs", agencyHandler.ListTariffs)
	r.Post("/api/webhooks/payment", walletHandler.PaymentWebhook)

	// Auth routes (stricter limit against credential stuffing)
	r.Group(func(r chi.Router) {
		authRL := appMiddleware.NewRateLimiter(2, 5)
		r.Use(authRL.Middleware())
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(authSvc))

		// Auth
		r.Post("/api/auth/logout", authHandler.Logout)
		r.Get("/api/auth/me", authHandler.Me)

		// Wallet & ledger
		r.Post("/api/wallet", walletHandler.Create)
		r.Get("/api/wallet", walletHandler.Get)
		r.Post("/api/transactions", walletHandler.Transfer)
		r.Get("/api/wallet/transactions", walletHandler.Transactions)
		r.Post("/api/wallet/topup", walletHandler.TopUp)

		// Client profile
		r.Post("/api/clients", clientHandler.Enroll)
		r.Get("/api/clients/me", clientHandler.Me)
		r.Put("/api/clients/me", clientHandler.Update)
		r.Get("/api/clients/me/history", clientHandler.History)

		// Subscriptions
		r.Get("/api/subscriptions/user/{userID}", subHandler.ListByUser)
		r.Post("/api/subscriptions/{userID}/{tariffID}/{months}", subHandler.Create)

		// Agencies
		r.Post("/api/agencies", agencyHandler.Create)
		r.Get("/api/agencies/{agencyID}/zones", agencyHandler.ListZones)
		r.Post("/api/agencies/{agencyID}/zones", agencyHandler.CreateZone)
		r.Get("/api/agencies/{agencyID}/employees", agencyHandler.ListEmployees)
		r.Post("/api/agencies/{agencyID}/employees", agencyHandler.HireEmployee)
		r.Patch("/api/agencies/{agencyID}/employees/{employeeID}", agencyHandler.SetEmployeeActive)
		r.Post("/api/agencies/{agencyID}/tariffs", agencyHandler.PublishTariff)
		r.Get("/api/agencies/{agencyID}/clients", agencyHandler.ListClients)
		r.Get("/api/agencies/{agencyID}/reports", agencyHandler.ListReports)
		r.Patch("/api/agencies/{agencyID}/reports/{reportID}", agencyHandler.UpdateReportStatus)

		// Collection rounds & scans
		r.Post("/api/agencies/{agencyID}/rounds", collectionHandler.ScheduleRound)
		r.Get("/api/agencies/{agencyID}/rounds", collectionHandler.ListRounds)
		r.Post("/api/agencies/{agencyID}/rounds/{roundID}/start", collectionHandler.StartRound)
		r.Get("/api/agencies/{agencyID}/rounds/{roundID}/scans", collectionHandler.ListScans)
		r.Post("/api/rounds/{roundID}/scans", collectionHandler.RecordScan)

		// Reports
		r.Post("/api/reports", reportHandler.Create)

		// Notifications
		r.Get("/api/notifications", notifHandler.List)
		r.Post("/api/notifications/{notificationID}/read", notifHandler.MarkRead)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireRole("admin"))
			r.Get("/api/users", userHandler.List)
			r.Post("/api/users", userHandler.Create)
			r.Delete("/api/users/{userID}", userHandler.Delete)
			r.Get("/api/subscriptions", subHandler.ListAll)
		})
	})

	// WebSocket scan feed (auth via query param)
	r.HandleFunc("/ws/agencies/{agencyID}/scans", scanFeed.Handle)

	// Start server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// WriteTimeout must be 0 for WebSocket connections (they are long-lived)
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		sweeper.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("Colectra backend listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// loadDotEnv reads a .env file if it exists. KEY=VALUE lines only; real
// deployments set the environment directly.
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
