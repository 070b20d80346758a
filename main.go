// File: reserva/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reserva/config"
	"reserva/cron"
	"reserva/database"
	historyRepoPkg "reserva/database/repository/history"
	outboxRepoPkg "reserva/database/repository/outbox"
	paymentRepoPkg "reserva/database/repository/payment"
	reservationRepoPkg "reserva/database/repository/reservation"
	rulesRepoPkg "reserva/database/repository/rules"
	"reserva/handlers"
	"reserva/routes"
	"reserva/services/catalog"
	"reserva/services/notification"
	"reserva/services/payment"
	"reserva/services/reservation"
	"reserva/services/rules"
	"reserva/utils"

	"github.com/gin-gonic/gin"
	robfigcron "github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	resRepo := reservationRepoPkg.NewMongoReservationRepo()
	ruleRepo := rulesRepoPkg.NewMongoRuleRepo()
	payRepo := paymentRepoPkg.NewMongoPaymentRepo()
	outboxRepo := outboxRepoPkg.NewMongoOutboxRepo()
	histRepo := historyRepoPkg.NewMongoHistoryRepo()

	indexCtx, cancelIdx := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIdx()
	if err := resRepo.EnsureIndexes(indexCtx); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure reservation indexes: %v", err)
	}
	if err := payRepo.EnsureIndexes(indexCtx); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure payment indexes: %v", err)
	}

	// collaborators.
	directory := &catalog.StaticDirectory{DefaultCapacity: 8, MaxQuantity: 20}
	notifier := &notification.LogDispatcher{Logger: logger}
	gateway := &payment.StripeGateway{WebhookSecret: config.AppConfig.StripeWebhookSecret}

	// services.
	checker := &reservation.ConflictChecker{Repo: resRepo, Assets: directory}
	ruleEngine := &rules.Engine{
		Rules:        ruleRepo,
		Reservations: resRepo,
		Assets:       directory,
		Customers:    directory,
		Logger:       logger,
	}
	reservationService := &reservation.DefaultReservationService{
		Repo:            resRepo,
		Checker:         checker,
		Rules:           ruleEngine,
		Assets:          directory,
		PaymentDeadline: config.PaymentDeadline(),
		Logger:          logger,
	}
	paymentHandler := &payment.Handler{
		Reservations: resRepo,
		Payments:     payRepo,
		Logger:       logger,
	}

	// background side effects and sweeps.
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	worker := &cron.SideEffectWorker{
		Reservations: resRepo,
		Payments:     payRepo,
		Outbox:       outboxRepo,
		Gateway:      gateway,
		Notifier:     notifier,
		Logger:       logger,
	}
	worker.Start(workerCtx)

	sweeper := &cron.Sweeper{
		Repo:           resRepo,
		PaymentHandler: paymentHandler,
		UnpaidExpiry:   config.UnpaidExpiry(),
		Logger:         logger,
	}
	scheduler := robfigcron.New()
	if err := sweeper.Schedule(scheduler,
		config.AppConfig.ProgressSweepSchedule,
		config.AppConfig.DeadlineSweepSchedule,
		config.AppConfig.NoShowSweepSchedule,
	); err != nil {
		logger.Sugar().Fatalf("main: failed to schedule sweeps: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// handlers.
	handlerBundle := &routes.HandlerBundle{
		Reservations: handlers.NewReservationHandler(reservationService, histRepo, payRepo),
		Admin:        handlers.NewAdminReservationHandler(reservationService),
		Rules:        handlers.NewRuleHandler(ruleRepo),
		Webhook:      handlers.NewPaymentWebhookHandler(gateway, paymentHandler, logger),
	}
	routes.Register(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
