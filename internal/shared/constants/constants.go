package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// HTTP headers
	HeaderContentType       = "Content-Type"
	HeaderAuthorization     = "Authorization"
	HeaderXRequestID        = "X-Request-ID"
	HeaderPaystackSignature = "X-Paystack-Signature"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyUserRole  = "user_role"

	// Table names
	TablePlans         = "plans"
	TableSubscriptions = "subscriptions"
	TableTransactions  = "payment_transactions"
	TableWebhookEvents = "webhook_events"
)
