package models

import (
	"time"

	"gorm.io/datatypes"

	"techhive/internal/shared/constants"
)

// TransactionModel is the persistence shape of one charge attempt. Rows are
// append-only; only the outcome columns change after creation, and there is
// no soft delete because the ledger is the audit trail.
type TransactionModel struct {
	ID               uint   `gorm:"primarykey"`
	SID              string `gorm:"uniqueIndex;not null;size:50"`
	Reference        string `gorm:"uniqueIndex;not null;size:64"`
	SubscriptionID   uint   `gorm:"not null;index:idx_txn_subscription"`
	UserID           uint   `gorm:"not null;index:idx_txn_user"`
	Type             string `gorm:"not null;size:20"`
	Status           string `gorm:"not null;size:20;index:idx_txn_status"`
	AmountKobo       int64  `gorm:"not null"`
	Currency         string `gorm:"not null;size:10;default:'NGN'"`
	GatewayReference *string `gorm:"size:128;index"`
	Channel          string  `gorm:"size:20"`
	FailureReason    *string `gorm:"size:500"`
	RawResponse      datatypes.JSON
	PaidAt           *time.Time
	RetryOf          *uint `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (TransactionModel) TableName() string {
	return constants.TableTransactions
}
