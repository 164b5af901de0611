package valueobjects

import "fmt"

// TransactionType records why a charge happened.
type TransactionType string

const (
	// TxnTypeSubscription is the first charge on a new subscription.
	TxnTypeSubscription TransactionType = "subscription"
	// TxnTypeRenewal is a recurring charge at the end of a billing period.
	TxnTypeRenewal TransactionType = "renewal"
	// TxnTypeRetry is an automatic re-charge after a failed renewal.
	TxnTypeRetry TransactionType = "retry"
	// TxnTypeManualRetry is a user-triggered re-charge from the billing page.
	TxnTypeManualRetry TransactionType = "manual_retry"
	// TxnTypeReactivation is the charge when a lapsed user subscribes again.
	TxnTypeReactivation TransactionType = "reactivation"
)

func NewTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	switch t {
	case TxnTypeSubscription, TxnTypeRenewal, TxnTypeRetry, TxnTypeManualRetry, TxnTypeReactivation:
		return t, nil
	default:
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
}

func (t TransactionType) String() string { return string(t) }
