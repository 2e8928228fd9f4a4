package course

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus enum values
const (
	PaymentPending = "PENDING"
	PaymentReview  = "REVIEW"
	PaymentSuccess = "SUCCESS"
	PaymentFailed  = "FAILED"
	PaymentCancel  = "CANCEL"
)

// PaymentMethod enum values
const (
	MethodGateway      = "GATEWAY"
	MethodBankTransfer = "BANK_TRANSFER"
)

// Payment is one attempt record per transaction id. The transaction id is the
// idempotency key for every status-update operation.
type Payment struct {
	gorm.Model
	UserID        uint    `json:"user_id" gorm:"index;not null"`
	BatchID       uint    `json:"batch_id" gorm:"index;not null"`
	EnrollmentID  *uint   `json:"enrollment_id" gorm:"index"`
	TransactionID string  `json:"transaction_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	Amount        float64 `json:"amount" gorm:"not null"`
	Currency      string  `json:"currency" gorm:"type:varchar(10);default:'BDT'"`
	Status        string  `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	Method        string  `json:"method" gorm:"type:varchar(20);default:'GATEWAY'"`

	// Raw gateway response for audit; opaque to the core
	GatewayPayload string `json:"gateway_payload" gorm:"type:text"`

	// Manual-transfer evidence
	SenderAccount string `json:"sender_account" gorm:"type:varchar(64)"`
	BankReference string `json:"bank_reference" gorm:"type:varchar(64)"`

	VerifiedAt *time.Time `json:"verified_at"`
	VerifiedBy *uint      `json:"verified_by"`
	IsDeleted  bool       `gorm:"default:false"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsTerminal reports whether the payment has reached a final status
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentSuccess || p.Status == PaymentFailed || p.Status == PaymentCancel
}

var paymentTransitions = map[string][]string{
	PaymentPending: {PaymentSuccess, PaymentFailed, PaymentCancel},
	PaymentReview:  {PaymentSuccess, PaymentFailed},
}

// ValidPaymentTransition reports whether a payment may move between the two statuses
func ValidPaymentTransition(from, to string) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
