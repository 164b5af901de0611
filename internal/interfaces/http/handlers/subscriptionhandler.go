package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"techhive/internal/application/subscription/usecases"
	"techhive/internal/domain/payment"
	"techhive/internal/domain/subscription"
	"techhive/internal/shared/constants"
	"techhive/internal/shared/logger"
	"techhive/internal/shared/utils"
)

type SubscriptionHandler struct {
	startTrialUC       *usecases.StartTrialUseCase
	createSubUC        *usecases.CreateSubscriptionUseCase
	verifyActivationUC *usecases.VerifyActivationUseCase
	cancelUC           *usecases.CancelSubscriptionUseCase
	reactivateUC       *usecases.ReactivateSubscriptionUseCase
	retryPaymentUC     *usecases.RetryPaymentUseCase
	getSubscriptionUC  *usecases.GetSubscriptionUseCase
	listTransactionsUC *usecases.ListTransactionsUseCase
	logger             logger.Interface
}

func NewSubscriptionHandler(
	startTrialUC *usecases.StartTrialUseCase,
	createSubUC *usecases.CreateSubscriptionUseCase,
	verifyActivationUC *usecases.VerifyActivationUseCase,
	cancelUC *usecases.CancelSubscriptionUseCase,
	reactivateUC *usecases.ReactivateSubscriptionUseCase,
	retryPaymentUC *usecases.RetryPaymentUseCase,
	getSubscriptionUC *usecases.GetSubscriptionUseCase,
	listTransactionsUC *usecases.ListTransactionsUseCase,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		startTrialUC:       startTrialUC,
		createSubUC:        createSubUC,
		verifyActivationUC: verifyActivationUC,
		cancelUC:           cancelUC,
		reactivateUC:       reactivateUC,
		retryPaymentUC:     retryPaymentUC,
		getSubscriptionUC:  getSubscriptionUC,
		listTransactionsUC: listTransactionsUC,
		logger:             logger,
	}
}

type StartTrialRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

type SubscribeRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type SubscriptionResponse struct {
	SID              string     `json:"id"`
	Status           string     `json:"status"`
	PlanID           uint       `json:"-"`
	TrialEnd         *time.Time `json:"trial_end,omitempty"`
	PeriodStart      *time.Time `json:"current_period_start,omitempty"`
	PeriodEnd        *time.Time `json:"current_period_end,omitempty"`
	NextBillingDate  *time.Time `json:"next_billing_date,omitempty"`
	AutoRenew        bool       `json:"auto_renew"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	RetryCount       int        `json:"retry_count,omitempty"`
	CardLast4        string     `json:"card_last4,omitempty"`
	CardType         string     `json:"card_type,omitempty"`
	HasAccess        bool       `json:"has_access"`
	GraceDeadline    *time.Time `json:"grace_deadline,omitempty"`
	PlanName         string     `json:"plan_name,omitempty"`
	PlanPriceKobo    int64      `json:"plan_price_kobo,omitempty"`
	PlanBillingCycle string     `json:"plan_billing_cycle,omitempty"`
}

func subscriptionToResponse(sub *subscription.Subscription) SubscriptionResponse {
	card := sub.Card()
	return SubscriptionResponse{
		SID:             sub.SID(),
		Status:          sub.Status().String(),
		PlanID:          sub.PlanID(),
		TrialEnd:        sub.TrialEnd(),
		PeriodStart:     sub.CurrentPeriodStart(),
		PeriodEnd:       sub.CurrentPeriodEnd(),
		NextBillingDate: sub.NextBillingDate(),
		AutoRenew:       sub.AutoRenew(),
		CancelledAt:     sub.CancelledAt(),
		RetryCount:      sub.RetryCount(),
		CardLast4:       card.Last4,
		CardType:        card.CardType,
		HasAccess:       sub.IsActive(),
	}
}

type TransactionResponse struct {
	SID           string     `json:"id"`
	Reference     string     `json:"reference"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	AmountKobo    int64      `json:"amount_kobo"`
	Currency      string     `json:"currency"`
	Channel       string     `json:"channel,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func transactionToResponse(txn *payment.PaymentTransaction) TransactionResponse {
	resp := TransactionResponse{
		SID:        txn.SID(),
		Reference:  txn.Reference(),
		Type:       txn.Type().String(),
		Status:     txn.Status().String(),
		AmountKobo: txn.Amount().Amount(),
		Currency:   txn.Amount().Currency(),
		Channel:    txn.Channel(),
		PaidAt:     txn.PaidAt(),
		CreatedAt:  txn.CreatedAt(),
	}
	if reason := txn.FailureReason(); reason != nil {
		resp.FailureReason = *reason
	}
	return resp
}

func currentUser(c *gin.Context) (uint, string, bool) {
	rawID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, "", false
	}
	userID, ok := rawID.(uint)
	if !ok || userID == 0 {
		return 0, "", false
	}
	return userID, c.GetString(constants.ContextKeyUserEmail), true
}

// StartTrial begins the one-time free trial on the chosen plan.
func (h *SubscriptionHandler) StartTrial(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req StartTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	sub, err := h.startTrialUC.Execute(c.Request.Context(), usecases.StartTrialCommand{
		UserID:    userID,
		UserEmail: email,
		PlanSID:   req.PlanID,
	})
	if err != nil {
		h.respondSubscriptionError(c, err, "failed to start trial")
		return
	}

	utils.CreatedResponse(c, subscriptionToResponse(sub), "trial started")
}

// Subscribe opens a hosted checkout for a paid subscription.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := h.createSubUC.Execute(c.Request.Context(), usecases.CreateSubscriptionCommand{
		UserID:    userID,
		UserEmail: email,
		PlanSID:   req.PlanID,
	})
	if err != nil {
		h.respondSubscriptionError(c, err, "failed to create subscription")
		return
	}

	utils.OKResponse(c, gin.H{
		"checkout_url": result.CheckoutURL,
		"reference":    result.Reference,
		"subscription": subscriptionToResponse(result.Subscription),
	}, "checkout created")
}

// VerifyCheckout is the landing endpoint after the hosted checkout. It
// confirms the charge with the provider rather than trusting the redirect.
func (h *SubscriptionHandler) VerifyCheckout(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}
	if reference == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "reference is required")
		return
	}

	result, err := h.verifyActivationUC.Execute(c.Request.Context(), usecases.VerifyActivationCommand{
		Reference: reference,
		UserID:    userID,
	})
	if err != nil {
		if errors.Is(err, payment.ErrTransactionNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "unknown payment reference")
			return
		}
		h.logger.Errorw("failed to verify checkout", "error", err, "reference", reference)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to verify payment")
		return
	}

	if !result.Activated {
		utils.OKResponse(c, gin.H{
			"activated": false,
			"reason":    result.Reason,
		}, "payment not successful")
		return
	}

	utils.OKResponse(c, gin.H{
		"activated":    true,
		"subscription": subscriptionToResponse(result.Subscription),
	}, "subscription activated")
}

// GetCurrent returns the caller's subscription with plan and access info.
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	details, err := h.getSubscriptionUC.Execute(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "no subscription found")
			return
		}
		h.logger.Errorw("failed to get subscription", "error", err, "user_id", userID)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to get subscription")
		return
	}

	resp := subscriptionToResponse(details.Subscription)
	resp.HasAccess = details.HasAccess
	resp.GraceDeadline = details.GraceDeadline
	if details.Plan != nil {
		resp.PlanName = details.Plan.Name()
		resp.PlanPriceKobo = details.Plan.PriceKobo()
		resp.PlanBillingCycle = details.Plan.BillingCycle().String()
	}

	utils.OKResponse(c, resp)
}

// Cancel stops renewal; access continues until the paid period ends.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	// An empty body is fine; the reason is optional.
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	sub, err := h.cancelUC.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		UserID: userID,
		Reason: req.Reason,
	})
	if err != nil {
		h.respondSubscriptionError(c, err, "failed to cancel subscription")
		return
	}

	utils.OKResponse(c, subscriptionToResponse(sub), "subscription cancelled")
}

// Reactivate undoes a cancellation while the paid period still runs.
func (h *SubscriptionHandler) Reactivate(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	sub, err := h.reactivateUC.Execute(c.Request.Context(), usecases.ReactivateSubscriptionCommand{
		UserID: userID,
	})
	if err != nil {
		h.respondSubscriptionError(c, err, "failed to reactivate subscription")
		return
	}

	utils.OKResponse(c, subscriptionToResponse(sub), "subscription reactivated")
}

// RetryPayment re-charges the saved card on a past-due subscription.
// User-triggered, so it does not consume the automatic retry budget.
func (h *SubscriptionHandler) RetryPayment(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	details, err := h.getSubscriptionUC.Execute(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "no subscription found")
			return
		}
		h.logger.Errorw("failed to get subscription", "error", err, "user_id", userID)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to get subscription")
		return
	}

	result, err := h.retryPaymentUC.Execute(c.Request.Context(), usecases.RetryPaymentCommand{
		SubscriptionID: details.Subscription.ID(),
		Manual:         true,
		UserID:         userID,
	})
	if err != nil {
		h.respondSubscriptionError(c, err, "failed to retry payment")
		return
	}

	utils.OKResponse(c, gin.H{
		"succeeded":    result.Succeeded,
		"reason":       result.Reason,
		"subscription": subscriptionToResponse(result.Subscription),
	})
}

// ListTransactions returns the caller's payment history, newest first.
func (h *SubscriptionHandler) ListTransactions(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	pagination := utils.ParsePagination(c)

	result, err := h.listTransactionsUC.Execute(c.Request.Context(), usecases.ListTransactionsQuery{
		UserID: userID,
		Limit:  pagination.PageSize,
		Offset: (pagination.Page - 1) * pagination.PageSize,
	})
	if err != nil {
		h.logger.Errorw("failed to list transactions", "error", err, "user_id", userID)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	responses := make([]TransactionResponse, 0, len(result.Transactions))
	for _, txn := range result.Transactions {
		responses = append(responses, transactionToResponse(txn))
	}

	utils.OKResponse(c, utils.ListResponse{
		Items:      responses,
		Total:      result.Total,
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalPages: utils.TotalPages(result.Total, pagination.PageSize),
	})
}

// respondSubscriptionError maps domain rejections onto HTTP statuses.
func (h *SubscriptionHandler) respondSubscriptionError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, subscription.ErrPlanNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "plan not found")
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "no subscription found")
	case errors.Is(err, subscription.ErrPlanInactive):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "plan is not available")
	case errors.Is(err, subscription.ErrNotEligible):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, subscription.ErrInvalidStatusTransition):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, subscription.ErrPeriodExpired):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "subscription period has expired")
	case errors.Is(err, subscription.ErrNotRetriable):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "payment cannot be retried")
	default:
		h.logger.Errorw(logMsg, "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, logMsg)
	}
}
