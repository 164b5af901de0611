package mappers

import (
	"fmt"

	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/infrastructure/persistence/models"
)

func SubscriptionToModel(s *subscription.Subscription) *models.SubscriptionModel {
	card := s.Card()
	return &models.SubscriptionModel{
		ID:                       s.ID(),
		SID:                      s.SID(),
		Reference:                s.Reference(),
		UserID:                   s.UserID(),
		UserEmail:                s.UserEmail(),
		PlanID:                   s.PlanID(),
		Status:                   s.Status().String(),
		PaystackSubscriptionCode: strPtr(s.PaystackSubscriptionCode()),
		PaystackCustomerCode:     strPtr(s.PaystackCustomerCode()),
		AuthorizationCode:        strPtr(s.AuthorizationCode()),
		CardLast4:                card.Last4,
		CardType:                 card.CardType,
		CardBank:                 card.Bank,
		CardExpMonth:             card.ExpMonth,
		CardExpYear:              card.ExpYear,
		TrialStart:               s.TrialStart(),
		TrialEnd:                 s.TrialEnd(),
		CurrentPeriodStart:       s.CurrentPeriodStart(),
		CurrentPeriodEnd:         s.CurrentPeriodEnd(),
		NextBillingDate:          s.NextBillingDate(),
		AutoRenew:                s.AutoRenew(),
		CancelAtPeriodEnd:        s.CancelAtPeriodEnd(),
		CancelledAt:              s.CancelledAt(),
		CancelReason:             s.CancelReason(),
		ExpiresAt:                s.ExpiresAt(),
		PaymentFailedAt:          s.PaymentFailedAt(),
		RetryCount:               s.RetryCount(),
		LastRetryAt:              s.LastRetryAt(),
		Version:                  s.Version(),
		CreatedAt:                s.CreatedAt(),
		UpdatedAt:                s.UpdatedAt(),
	}
}

func SubscriptionToDomain(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.SubscriptionStatus(model.Status)
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", model.Status)
	}

	return subscription.ReconstructSubscription(subscription.SubscriptionReconstructParams{
		ID:                       model.ID,
		SID:                      model.SID,
		Reference:                model.Reference,
		UserID:                   model.UserID,
		UserEmail:                model.UserEmail,
		PlanID:                   model.PlanID,
		Status:                   status,
		PaystackSubscriptionCode: strVal(model.PaystackSubscriptionCode),
		PaystackCustomerCode:     strVal(model.PaystackCustomerCode),
		AuthorizationCode:        strVal(model.AuthorizationCode),
		Card: vo.Card{
			Last4:    model.CardLast4,
			CardType: model.CardType,
			Bank:     model.CardBank,
			ExpMonth: model.CardExpMonth,
			ExpYear:  model.CardExpYear,
		},
		TrialStart:         model.TrialStart,
		TrialEnd:           model.TrialEnd,
		CurrentPeriodStart: model.CurrentPeriodStart,
		CurrentPeriodEnd:   model.CurrentPeriodEnd,
		NextBillingDate:    model.NextBillingDate,
		AutoRenew:          model.AutoRenew,
		CancelAtPeriodEnd:  model.CancelAtPeriodEnd,
		CancelledAt:        model.CancelledAt,
		CancelReason:       model.CancelReason,
		ExpiresAt:          model.ExpiresAt,
		PaymentFailedAt:    model.PaymentFailedAt,
		RetryCount:         model.RetryCount,
		LastRetryAt:        model.LastRetryAt,
		Version:            model.Version,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	})
}

func SubscriptionsToDomain(subModels []models.SubscriptionModel) ([]*subscription.Subscription, error) {
	subs := make([]*subscription.Subscription, 0, len(subModels))
	for i := range subModels {
		s, err := SubscriptionToDomain(&subModels[i])
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, nil
}
