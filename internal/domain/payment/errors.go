package payment

import "errors"

var (
	// ErrTransactionFinal is returned when code tries to change the outcome
	// of a transaction that already reached a final status. The ledger is
	// append-only: each charge attempt gets its own row.
	ErrTransactionFinal = errors.New("transaction already reached a final status")

	// ErrTransactionNotFound is returned when a transaction reference does
	// not match any recorded charge attempt.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrEventAlreadyHandled is returned when a webhook event with the same
	// provider identity was already processed successfully.
	ErrEventAlreadyHandled = errors.New("webhook event already handled")
)
