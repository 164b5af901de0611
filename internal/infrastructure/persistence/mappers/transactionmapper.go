package mappers

import (
	"fmt"

	"gorm.io/datatypes"

	"techhive/internal/domain/payment"
	vo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/infrastructure/persistence/models"
)

func TransactionToModel(t *payment.PaymentTransaction) *models.TransactionModel {
	model := &models.TransactionModel{
		ID:               t.ID(),
		SID:              t.SID(),
		Reference:        t.Reference(),
		SubscriptionID:   t.SubscriptionID(),
		UserID:           t.UserID(),
		Type:             t.Type().String(),
		Status:           t.Status().String(),
		AmountKobo:       t.Amount().Amount(),
		Currency:         t.Amount().Currency(),
		GatewayReference: strPtr(t.GatewayReference()),
		Channel:          t.Channel(),
		FailureReason:    t.FailureReason(),
		PaidAt:           t.PaidAt(),
		RetryOf:          t.RetryOf(),
		CreatedAt:        t.CreatedAt(),
		UpdatedAt:        t.UpdatedAt(),
	}
	if len(t.RawResponse()) > 0 {
		model.RawResponse = datatypes.JSON(t.RawResponse())
	}
	return model
}

func TransactionToDomain(model *models.TransactionModel) (*payment.PaymentTransaction, error) {
	if model == nil {
		return nil, nil
	}

	amount, err := vo.NewMoney(model.AmountKobo, model.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction amount: %w", err)
	}

	status, err := vo.NewTransactionStatus(model.Status)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction status: %w", err)
	}
	txnType, err := vo.NewTransactionType(model.Type)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type: %w", err)
	}

	return payment.ReconstructTransaction(payment.TransactionReconstructParams{
		ID:               model.ID,
		SID:              model.SID,
		Reference:        model.Reference,
		SubscriptionID:   model.SubscriptionID,
		UserID:           model.UserID,
		Type:             txnType,
		Status:           status,
		Amount:           amount,
		GatewayReference: strVal(model.GatewayReference),
		Channel:          model.Channel,
		FailureReason:    model.FailureReason,
		RawResponse:      []byte(model.RawResponse),
		PaidAt:           model.PaidAt,
		RetryOf:          model.RetryOf,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	})
}

func TransactionsToDomain(txnModels []models.TransactionModel) ([]*payment.PaymentTransaction, error) {
	txns := make([]*payment.PaymentTransaction, 0, len(txnModels))
	for i := range txnModels {
		t, err := TransactionToDomain(&txnModels[i])
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}
