package valueobjects

import "fmt"

// TransactionStatus tracks a single charge attempt from initiation to its
// final outcome. Final statuses never change again.
type TransactionStatus string

const (
	TxnStatusPending   TransactionStatus = "pending"
	TxnStatusSuccess   TransactionStatus = "success"
	TxnStatusFailed    TransactionStatus = "failed"
	TxnStatusAbandoned TransactionStatus = "abandoned"
)

func NewTransactionStatus(s string) (TransactionStatus, error) {
	status := TransactionStatus(s)
	switch status {
	case TxnStatusPending, TxnStatusSuccess, TxnStatusFailed, TxnStatusAbandoned:
		return status, nil
	default:
		return "", fmt.Errorf("invalid transaction status: %s", s)
	}
}

// IsFinal reports whether the status can no longer change.
func (s TransactionStatus) IsFinal() bool {
	return s == TxnStatusSuccess || s == TxnStatusFailed || s == TxnStatusAbandoned
}

func (s TransactionStatus) String() string { return string(s) }
