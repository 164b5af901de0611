package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	subUsecases "techhive/internal/application/subscription/usecases"
	"techhive/internal/infrastructure/config"
	"techhive/internal/infrastructure/database"
	"techhive/internal/infrastructure/email"
	"techhive/internal/infrastructure/gateway/paystack"
	"techhive/internal/infrastructure/lock"
	"techhive/internal/infrastructure/repository"
	"techhive/internal/infrastructure/scheduler"
	"techhive/internal/shared/db"
	"techhive/internal/shared/logger"
)

func main() {
	// Parse environment from command line or env variable
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	// Load configuration
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting billing worker", "environment", env)

	// Initialize database
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("failed to connect to redis", "error", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	// Initialize repositories
	planRepo := repository.NewPlanRepository(database.Get())
	subscriptionRepo := repository.NewSubscriptionRepository(database.Get())
	transactionRepo := repository.NewTransactionRepository(database.Get())

	txManager := db.NewTransactionManager(database.Get())
	locker := lock.NewRedisLocker(redisClient, log)
	gateway := paystack.NewClient(cfg.Paystack, log)

	var notifier subUsecases.LifecycleNotifier
	if cfg.Email.SMTPHost != "" {
		notifier = email.NewSMTPNotifier(cfg.Email, log)
	} else {
		notifier = email.NewNoopNotifier(log)
	}

	processor := subUsecases.NewPaymentProcessor(
		subscriptionRepo, planRepo, transactionRepo,
		txManager, locker, notifier, cfg.Billing, log,
	)

	retryPaymentUC := subUsecases.NewRetryPaymentUseCase(subscriptionRepo, planRepo, transactionRepo, gateway, processor, cfg.Billing, log)
	retryDueUC := subUsecases.NewRetryDuePaymentsUseCase(subscriptionRepo, retryPaymentUC, cfg.Billing, log)
	expireUC := subUsecases.NewExpireSubscriptionsUseCase(subscriptionRepo, planRepo, notifier, cfg.Billing, log)
	remindUC := subUsecases.NewRemindTrialsUseCase(subscriptionRepo, planRepo, notifier, cfg.Billing, log)

	billingScheduler := scheduler.NewBillingScheduler(retryDueUC, expireUC, remindUC, locker, cfg.Billing, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	billingScheduler.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Infow("received signal, shutting down", "signal", sig)

	cancel()
	billingScheduler.Stop()

	log.Infow("billing worker stopped")
}
