package http

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appGateway "techhive/internal/application/payment/gateway"
	subUsecases "techhive/internal/application/subscription/usecases"
	"techhive/internal/application/webhook"
	"techhive/internal/infrastructure/auth"
	"techhive/internal/infrastructure/config"
	"techhive/internal/infrastructure/email"
	"techhive/internal/infrastructure/gateway/paystack"
	"techhive/internal/infrastructure/lock"
	"techhive/internal/infrastructure/repository"
	"techhive/internal/interfaces/http/handlers"
	"techhive/internal/interfaces/http/middleware"
	"techhive/internal/shared/db"
	"techhive/internal/shared/logger"
)

// Router owns the HTTP wiring: repositories, gateway, use cases and
// handlers are all constructed here.
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	logger logger.Interface

	authMW         *middleware.AuthMiddleware
	planHandler    *handlers.PlanHandler
	subHandler     *handlers.SubscriptionHandler
	webhookHandler *handlers.WebhookHandler
}

func NewRouter(database *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) *Router {
	engine := gin.New()

	planRepo := repository.NewPlanRepository(database)
	subscriptionRepo := repository.NewSubscriptionRepository(database)
	transactionRepo := repository.NewTransactionRepository(database)
	eventRepo := repository.NewWebhookEventRepository(database)

	txManager := db.NewTransactionManager(database)
	locker := lock.NewRedisLocker(redisClient, log)

	// Without a secret key every charge would fail signature-side; the mock
	// keeps local development usable.
	var gateway appGateway.PaymentGateway
	if cfg.Paystack.SecretKey != "" {
		gateway = paystack.NewClient(cfg.Paystack, log)
	} else {
		log.Warnw("paystack secret key not configured, using mock gateway")
		gateway = appGateway.NewMockGateway(true)
	}

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

	startTrialUC := subUsecases.NewStartTrialUseCase(subscriptionRepo, planRepo, transactionRepo, notifier, cfg.Billing, log)
	createSubUC := subUsecases.NewCreateSubscriptionUseCase(subscriptionRepo, planRepo, transactionRepo, gateway, cfg.Paystack, log)
	verifyActivationUC := subUsecases.NewVerifyActivationUseCase(subscriptionRepo, transactionRepo, gateway, processor, log)
	cancelUC := subUsecases.NewCancelSubscriptionUseCase(subscriptionRepo, planRepo, gateway, notifier, log)
	reactivateUC := subUsecases.NewReactivateSubscriptionUseCase(subscriptionRepo, planRepo, gateway, notifier, log)
	retryPaymentUC := subUsecases.NewRetryPaymentUseCase(subscriptionRepo, planRepo, transactionRepo, gateway, processor, cfg.Billing, log)
	getSubscriptionUC := subUsecases.NewGetSubscriptionUseCase(subscriptionRepo, planRepo, cfg.Billing, log)
	listTransactionsUC := subUsecases.NewListTransactionsUseCase(transactionRepo, log)

	createPlanUC := subUsecases.NewCreatePlanUseCase(planRepo, gateway, log)
	updatePlanUC := subUsecases.NewUpdatePlanUseCase(planRepo, gateway, log)
	deletePlanUC := subUsecases.NewDeletePlanUseCase(planRepo, subscriptionRepo, log)
	getPlanUC := subUsecases.NewGetPlanUseCase(planRepo, log)
	listPlansUC := subUsecases.NewListPlansUseCase(planRepo, log)

	reconciler := webhook.NewReconciler(eventRepo, transactionRepo, subscriptionRepo, processor, notifier, log)

	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes, 0)

	return &Router{
		engine: engine,
		cfg:    cfg,
		logger: log,
		authMW: middleware.NewAuthMiddleware(jwtService, log),
		planHandler: handlers.NewPlanHandler(
			createPlanUC, updatePlanUC, deletePlanUC, getPlanUC, listPlansUC, log,
		),
		subHandler: handlers.NewSubscriptionHandler(
			startTrialUC, createSubUC, verifyActivationUC, cancelUC,
			reactivateUC, retryPaymentUC, getSubscriptionUC, listTransactionsUC, log,
		),
		webhookHandler: handlers.NewWebhookHandler(reconciler, cfg.Paystack, log),
	}
}

// SetupRoutes registers all endpoints on the engine.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))
	r.engine.Use(middleware.ErrorHandler())

	api := r.engine.Group("/api")

	// Public
	api.GET("/plans", r.planHandler.ListPlans)
	api.GET("/plans/:id", r.planHandler.GetPlan)
	api.POST("/webhooks/paystack", r.webhookHandler.HandlePaystack)

	// Authenticated billing endpoints
	billing := api.Group("/billing")
	billing.Use(r.authMW.RequireAuth())
	{
		billing.POST("/trial", r.subHandler.StartTrial)
		billing.POST("/subscribe", r.subHandler.Subscribe)
		billing.GET("/verify", r.subHandler.VerifyCheckout)
		billing.GET("/subscription", r.subHandler.GetCurrent)
		billing.POST("/cancel", r.subHandler.Cancel)
		billing.POST("/reactivate", r.subHandler.Reactivate)
		billing.POST("/retry", r.subHandler.RetryPayment)
		billing.GET("/transactions", r.subHandler.ListTransactions)
	}

	// Admin plan management
	admin := api.Group("/admin")
	admin.Use(r.authMW.RequireAuth(), r.authMW.RequireAdmin())
	{
		admin.POST("/plans", r.planHandler.CreatePlan)
		admin.PUT("/plans/:id", r.planHandler.UpdatePlan)
		admin.DELETE("/plans/:id", r.planHandler.DeletePlan)
	}
}

// GetEngine returns the underlying Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
