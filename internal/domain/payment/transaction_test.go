package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "techhive/internal/domain/payment/valueobjects"
)

func newPendingTxn(t *testing.T) *PaymentTransaction {
	t.Helper()
	txn, err := NewPaymentTransaction(1, 10, vo.TxnTypeSubscription, vo.MustNewMoney(500000, "NGN"))
	require.NoError(t, err)
	require.NotNil(t, txn)
	return txn
}

func TestNewPaymentTransaction_ValidInput(t *testing.T) {
	txn := newPendingTxn(t)

	assert.NotEmpty(t, txn.SID())
	assert.Equal(t, txn.SID(), txn.Reference(), "our reference is the SID handed to the gateway")
	assert.Equal(t, vo.TxnStatusPending, txn.Status())
	assert.Equal(t, vo.TxnTypeSubscription, txn.Type())
	assert.Equal(t, int64(500000), txn.Amount().Amount())
	assert.Nil(t, txn.PaidAt())
}

func TestNewPaymentTransaction_ZeroAmount(t *testing.T) {
	_, err := NewPaymentTransaction(1, 10, vo.TxnTypeRenewal, vo.Money{})
	assert.Error(t, err)
}

func TestNewPaymentTransaction_ZeroSubscriptionID(t *testing.T) {
	_, err := NewPaymentTransaction(0, 10, vo.TxnTypeRenewal, vo.MustNewMoney(100, "NGN"))
	assert.Error(t, err)
}

func TestPaymentTransaction_MarkSucceeded(t *testing.T) {
	txn := newPendingTxn(t)
	paidAt := time.Now().UTC()

	err := txn.MarkSucceeded("PS_REF_123", "card", paidAt)

	require.NoError(t, err)
	assert.Equal(t, vo.TxnStatusSuccess, txn.Status())
	assert.Equal(t, "PS_REF_123", txn.GatewayReference())
	assert.Equal(t, "card", txn.Channel())
	require.NotNil(t, txn.PaidAt())
	assert.Equal(t, paidAt, *txn.PaidAt())
}

func TestPaymentTransaction_MarkSucceeded_Idempotent(t *testing.T) {
	txn := newPendingTxn(t)
	paidAt := time.Now().UTC()
	require.NoError(t, txn.MarkSucceeded("PS_REF_123", "card", paidAt))

	err := txn.MarkSucceeded("PS_REF_456", "card", paidAt.Add(time.Hour))

	require.NoError(t, err, "duplicate webhook delivery must be harmless")
	assert.Equal(t, "PS_REF_123", txn.GatewayReference(), "first outcome wins")
	assert.Equal(t, paidAt, *txn.PaidAt())
}

func TestPaymentTransaction_MarkSucceeded_AfterFailed(t *testing.T) {
	txn := newPendingTxn(t)
	require.NoError(t, txn.MarkFailed("PS_REF_123", "insufficient funds"))

	err := txn.MarkSucceeded("PS_REF_456", "card", time.Now().UTC())

	assert.ErrorIs(t, err, ErrTransactionFinal, "the ledger is append-only")
	assert.Equal(t, vo.TxnStatusFailed, txn.Status())
}

func TestPaymentTransaction_MarkFailed(t *testing.T) {
	txn := newPendingTxn(t)

	err := txn.MarkFailed("PS_REF_123", "insufficient funds")

	require.NoError(t, err)
	assert.Equal(t, vo.TxnStatusFailed, txn.Status())
	require.NotNil(t, txn.FailureReason())
	assert.Equal(t, "insufficient funds", *txn.FailureReason())
}

func TestPaymentTransaction_MarkFailed_AfterSuccess(t *testing.T) {
	txn := newPendingTxn(t)
	require.NoError(t, txn.MarkSucceeded("PS_REF_123", "card", time.Now().UTC()))

	err := txn.MarkFailed("PS_REF_456", "late decline")

	assert.ErrorIs(t, err, ErrTransactionFinal)
	assert.Equal(t, vo.TxnStatusSuccess, txn.Status())
}

func TestPaymentTransaction_MarkAbandoned(t *testing.T) {
	txn := newPendingTxn(t)

	require.NoError(t, txn.MarkAbandoned())
	assert.Equal(t, vo.TxnStatusAbandoned, txn.Status())

	require.NoError(t, txn.MarkAbandoned(), "idempotent")
	assert.ErrorIs(t, txn.MarkSucceeded("", "card", time.Now().UTC()), ErrTransactionFinal)
}

func TestPaymentTransaction_AttachRawResponse_AfterFinal(t *testing.T) {
	txn := newPendingTxn(t)
	require.NoError(t, txn.MarkSucceeded("PS_REF_123", "card", time.Now().UTC()))

	txn.AttachRawResponse([]byte(`{"status":"success"}`))

	assert.JSONEq(t, `{"status":"success"}`, string(txn.RawResponse()))
}

func TestPaymentTransaction_SetRetryOf(t *testing.T) {
	txn := newPendingTxn(t)

	txn.SetRetryOf(7)

	require.NotNil(t, txn.RetryOf())
	assert.Equal(t, uint(7), *txn.RetryOf())
}

func TestPaymentTransaction_AdoptReference(t *testing.T) {
	txn := newPendingTxn(t)
	require.NoError(t, txn.AdoptReference("PSK_provider_ref"))
	assert.Equal(t, "PSK_provider_ref", txn.Reference())
	assert.NotEqual(t, txn.SID(), txn.Reference())
}

func TestPaymentTransaction_AdoptReference_AfterFinal(t *testing.T) {
	txn := newPendingTxn(t)
	require.NoError(t, txn.MarkSucceeded("GW_1", "card", time.Now().UTC()))
	assert.ErrorIs(t, txn.AdoptReference("PSK_late"), ErrTransactionFinal)
}

func TestMoney_MinorMajorConversion(t *testing.T) {
	m := vo.MustNewMoney(250050, "NGN")
	assert.Equal(t, int64(250050), m.Amount())
	assert.InDelta(t, 2500.50, m.Major(), 0.001)
	assert.Equal(t, "NGN 2500.50", m.String())
}

func TestNewMoney_Negative(t *testing.T) {
	_, err := vo.NewMoney(-1, "NGN")
	assert.Error(t, err)
}

func TestNewMoney_DefaultCurrency(t *testing.T) {
	m, err := vo.NewMoney(100, "")
	require.NoError(t, err)
	assert.Equal(t, "NGN", m.Currency())
}
