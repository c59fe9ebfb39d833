package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata" // Load timezone data

	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/aftras/crm/internal/app"
	"github.com/aftras/crm/internal/config"
	"github.com/aftras/crm/internal/constants"
	"github.com/aftras/crm/internal/controllers"
	"github.com/aftras/crm/internal/events"
	"github.com/aftras/crm/internal/repositories"
	"github.com/aftras/crm/internal/services"
	"github.com/aftras/crm/internal/utils"
)

// corsLowSecurityAllowedOriginLocalhost is added when the high-security
// CORS flag is off, for local front-end development.
const corsLowSecurityAllowedOriginLocalhost = "http://localhost:5173"

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize the application:", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := application.Store
	clock := services.Clock(time.Now)
	bus := events.NewBus()

	// Repositories
	userRepo := repositories.NewUserRepository(store)
	prospectRepo := repositories.NewProspectRepository(store)
	clientRepo := repositories.NewClientRepository(store)
	saleRepo := repositories.NewSaleRepository(store)
	notificationRepo := repositories.NewNotificationRepository(store)
	settingsRepo := repositories.NewSettingsRepository(store)
	accessCodeRepo := repositories.NewAccessCodeRepository(store)
	remoteRepo := repositories.NewRemoteProspectRepository(store)

	// Services
	settingsService := services.NewSettingsService(store, settingsRepo, bus)
	userService := services.NewUserService(userRepo, clock)
	notificationService := services.NewNotificationService(store, notificationRepo, userRepo, services.NewNotifiers(cfg), clock)
	prospectService := services.NewProspectService(store, prospectRepo, clientRepo, clock)
	clientService := services.NewClientService(clientRepo)
	saleService := services.NewSaleService(store, saleRepo, clientRepo, notificationService, clock)
	accessCodeService := services.NewAccessCodeService(store, accessCodeRepo, clock)
	remoteService := services.NewRemoteProspectService(store, remoteRepo, prospectService, notificationService, services.NewLeadAcknowledger(cfg), bus, clock)
	onboardingService := services.NewOnboardingService(accessCodeService, userService, notificationService)
	dashboardService := services.NewDashboardService(userRepo, prospectRepo, clientRepo, saleRepo, remoteRepo, notificationService, clock)

	// Seeding
	if err := app.SeedDefaultAdmin(ctx, userService, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		utils.Logger.Fatal("Failed to seed default admin:", err)
	}
	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(ctx, userService, prospectService, settingsService); err != nil {
			utils.Logger.Fatal("Failed to seed test data:", err)
		}
	}

	// Follow settings written by other instances.
	stopWatch, err := settingsService.Watch(ctx)
	if err != nil {
		utils.Logger.WithError(err).Warn("Settings listener unavailable; only local changes will be signalled")
	} else {
		defer stopWatch()
	}

	// Access code rotation
	c := cron.New()
	_, schErr := c.AddFunc(cfg.AccessCodeRotationSpec, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), constants.AccessCodeRotationBudget)
		defer cancel()
		n, err := accessCodeService.RotateExpired(jobCtx)
		if err != nil {
			utils.Logger.WithError(err).Error("Scheduled access code rotation failed")
			return
		}
		if n > 0 {
			utils.Logger.Infof("Rotated %d expired access code(s)", n)
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule access code rotation job")
	}
	c.Start()
	defer c.Stop()

	// Controllers & router
	router := controllers.NewRouter(cfg.RSAPublicKey, controllers.Handlers{
		Health:     controllers.NewHealthController(application),
		Public:     controllers.NewPublicController(settingsService, remoteService, onboardingService),
		Me:         controllers.NewMeController(userService, notificationService),
		Events:     controllers.NewEventsController(bus),
		Agent:      controllers.NewAgentController(prospectService, remoteService, clientService, saleService, dashboardService, cfg.DefaultTimezone),
		Supervisor: controllers.NewSupervisorController(userService, prospectService, clientService, saleService, dashboardService, accessCodeService, cfg.DefaultTimezone),
		Admin:      controllers.NewAdminController(userService, saleService, settingsService, accessCodeService),
	})

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, corsLowSecurityAllowedOriginLocalhost)
	}

	// CORS config
	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end when the process is signalled.
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Logger.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Logger.Fatal("Failed to start server:", err)
	}
	utils.Logger.Info("Server stopped")
}
