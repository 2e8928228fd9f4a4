package payment

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	enrollmentService "lms/services/enrollment"
	"lms/services/gateway"
	"lms/utils"

	"gorm.io/gorm"
)

// ValidateFunc resolves a gateway validation token to authoritative transaction
// facts. A package variable so tests can stub the gateway.
type ValidateFunc func(valID string) (*gateway.ValidationResponse, error)

var Validate ValidateFunc = gateway.ValidateTransaction

// NewSession opens a hosted gateway session. A package variable so tests can
// stub the gateway.
var NewSession = gateway.CreateSession

// Webhook processing outcomes, reported back so the gateway's retry policy behaves
const (
	WebhookProcessed        = "processed"
	WebhookAlreadyProcessed = "already processed"
	WebhookRejected         = "rejected"
)

// WebhookPayload is the gateway-defined IPN body. The gateway posts it
// form-encoded; the redirect callbacks reuse the same shape.
type WebhookPayload struct {
	TranID   string `json:"tran_id" form:"tran_id"`
	ValID    string `json:"val_id" form:"val_id"`
	Amount   string `json:"amount" form:"amount"`
	Currency string `json:"currency" form:"currency"`
	Status   string `json:"status" form:"status"`
}

// ApplyResult is returned by ApplyStatus
type ApplyResult struct {
	Payment    *courseModels.Payment
	Enrollment *courseModels.Enrollment
	// AlreadyProcessed marks an idempotent hit on a terminal status
	AlreadyProcessed bool
}

// RecordGatewayAttempt opens a PENDING payment for an enrollment and creates the
// hosted gateway session. The row is persisted before the gateway call; if the
// gateway fails it stays PENDING for later reconciliation via the status-check path.
func RecordGatewayAttempt(db *gorm.DB, user *models.User, e *courseModels.Enrollment, batch *courseModels.Batch) (*courseModels.Payment, string, error) {
	transactionID := utils.GenerateTransactionID()

	p := courseModels.Payment{
		UserID:        user.ID,
		BatchID:       batch.ID,
		EnrollmentID:  &e.ID,
		TransactionID: transactionID,
		Amount:        batch.Price,
		Currency:      batch.Currency,
		Status:        courseModels.PaymentPending,
		Method:        courseModels.MethodGateway,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return tx.Model(&courseModels.Enrollment{}).
			Where("id = ?", e.ID).
			Update("transaction_id", transactionID).Error
	})
	if err != nil {
		return nil, "", err
	}

	redirectURL, err := NewSession(&gateway.SessionRequest{
		TransactionID:  transactionID,
		Amount:         batch.Price,
		Currency:       batch.Currency,
		ProductName:    batch.Title,
		CustomerName:   user.Name,
		CustomerEmail:  user.Email,
		CustomerMobile: user.Mobile,
	})
	if err != nil {
		// Retryable for the caller; the pending row is swept by the scheduler
		return &p, "", err
	}

	return &p, redirectURL, nil
}

// ApplyStatus is the single mutation point for payment status, shared by the
// redirect callbacks, the status-check path and the webhook. Idempotent on
// terminal states: reapplying one is a no-op that still returns current state.
func ApplyStatus(db *gorm.DB, transactionID, newStatus, gatewayPayload string) (*ApplyResult, error) {
	result := &ApplyResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		var p courseModels.Payment
		if err := tx.Where("transaction_id = ? AND is_deleted = false", transactionID).First(&p).Error; err != nil {
			return utils.NotFoundError("Payment not found!")
		}

		if p.Status == newStatus {
			result.Payment = &p
			result.AlreadyProcessed = true
			return loadLinkedEnrollment(tx, &p, result)
		}

		if !courseModels.ValidPaymentTransition(p.Status, newStatus) {
			return utils.ConflictError("Payment is not in a state that allows this transition!")
		}

		now := time.Now()
		updates := map[string]interface{}{"status": newStatus}
		if gatewayPayload != "" {
			updates["gateway_payload"] = gatewayPayload
		}
		if newStatus == courseModels.PaymentSuccess {
			updates["verified_at"] = &now
		}

		// Compare-and-set on the status we read: if a concurrent webhook or
		// redirect already flipped it, we lose the race and take the no-op path.
		res := tx.Model(&courseModels.Payment{}).
			Where("transaction_id = ? AND status = ?", transactionID, p.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
				return err
			}
			result.Payment = &p
			if p.Status == newStatus {
				result.AlreadyProcessed = true
				return loadLinkedEnrollment(tx, &p, result)
			}
			return utils.ConflictError("Payment is not in a state that allows this transition!")
		}

		p.Status = newStatus
		result.Payment = &p

		switch newStatus {
		case courseModels.PaymentSuccess:
			if p.EnrollmentID != nil {
				activated, err := enrollmentService.Confirm(tx, *p.EnrollmentID, p.TransactionID)
				if err != nil {
					return err
				}
				result.Enrollment = activated
			}
		case courseModels.PaymentFailed:
			if p.EnrollmentID != nil {
				if err := markEnrollmentFailed(tx, *p.EnrollmentID, result); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ProcessWebhook handles a server-to-server gateway notification end to end:
// lookup, idempotency short-circuit, out-of-band validation, hard verification
// of amount/currency/transaction id, then atomic success application.
func ProcessWebhook(db *gorm.DB, payload *WebhookPayload) (string, error) {
	if payload.TranID == "" || payload.ValID == "" {
		return WebhookRejected, utils.ValidationError("Incomplete webhook payload!")
	}

	var p courseModels.Payment
	if err := db.Where("transaction_id = ? AND is_deleted = false", payload.TranID).First(&p).Error; err != nil {
		return WebhookRejected, utils.NotFoundError("Payment not found!")
	}

	// Duplicate delivery: acknowledge without touching anything
	if p.Status == courseModels.PaymentSuccess {
		return WebhookAlreadyProcessed, nil
	}

	if payload.Status != "VALID" && payload.Status != "VALIDATED" {
		if _, err := ApplyStatus(db, payload.TranID, courseModels.PaymentFailed, ""); err != nil {
			return WebhookRejected, err
		}
		return WebhookRejected, nil
	}

	validation, err := Validate(payload.ValID)
	if err != nil {
		return WebhookRejected, err
	}

	if !validation.IsValid() {
		if _, err := ApplyStatus(db, payload.TranID, courseModels.PaymentFailed, ""); err != nil {
			return WebhookRejected, err
		}
		return WebhookRejected, nil
	}

	// Hard verification against the stored record. A mismatch is a tamper
	// signal: abort with zero writes.
	if err := verifyAgainstRecord(&p, validation); err != nil {
		return WebhookRejected, err
	}

	result, err := ApplyStatus(db, payload.TranID, courseModels.PaymentSuccess, rawPayload(validation))
	if err != nil {
		return WebhookRejected, err
	}
	if result.AlreadyProcessed {
		return WebhookAlreadyProcessed, nil
	}

	finishActivation(db, result)
	return WebhookProcessed, nil
}

// VerifyManualPayment records an admin decision on a bank-transfer payment.
// Approval assigns the enrollment number and activates the enrollment; the
// status flip and the verifier stamp commit in one transaction, so the audit
// actor is never lost. Rejection is a plain status flip with no number allocated.
func VerifyManualPayment(db *gorm.DB, transactionID string, approved bool, adminID uint) (*ApplyResult, error) {
	var p courseModels.Payment
	if err := db.Where("transaction_id = ? AND is_deleted = false", transactionID).First(&p).Error; err != nil {
		return nil, utils.NotFoundError("Payment not found!")
	}
	if p.Status != courseModels.PaymentReview {
		return nil, utils.ConflictError("Payment is not under review!")
	}

	newStatus := courseModels.PaymentFailed
	if approved {
		newStatus = courseModels.PaymentSuccess
	}

	var result *ApplyResult
	err := db.Transaction(func(tx *gorm.DB) error {
		r, err := ApplyStatus(tx, transactionID, newStatus, "")
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&courseModels.Payment{}).
			Where("transaction_id = ?", transactionID).
			Updates(map[string]interface{}{"verified_at": &now, "verified_by": adminID}).Error; err != nil {
			return err
		}

		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if approved && !result.AlreadyProcessed {
		finishActivation(db, result)
	}
	return result, nil
}

// GetByTransactionID is the status-check/reconciliation read
func GetByTransactionID(db *gorm.DB, transactionID string) (*courseModels.Payment, error) {
	var p courseModels.Payment
	if err := db.Where("transaction_id = ? AND is_deleted = false", transactionID).First(&p).Error; err != nil {
		return nil, utils.NotFoundError("Payment not found!")
	}
	return &p, nil
}

// ListReviewPayments returns bank-transfer payments awaiting admin review
func ListReviewPayments(db *gorm.DB) ([]courseModels.Payment, error) {
	var payments []courseModels.Payment
	err := db.Where("status = ? AND is_deleted = false", courseModels.PaymentReview).
		Order("created_at asc").
		Find(&payments).Error
	return payments, err
}

func verifyAgainstRecord(p *courseModels.Payment, v *gateway.ValidationResponse) error {
	if v.TranID != p.TransactionID {
		return utils.IntegrityError("transaction id mismatch: stored " + p.TransactionID + ", validated " + v.TranID)
	}
	if v.Currency != p.Currency {
		return utils.IntegrityError("currency mismatch on " + p.TransactionID)
	}
	amount, err := strconv.ParseFloat(v.Amount, 64)
	if err != nil {
		return utils.IntegrityError("unparseable validated amount on " + p.TransactionID)
	}
	if math.Abs(amount-p.Amount) > 0.009 {
		return utils.IntegrityError("amount mismatch on " + p.TransactionID)
	}
	return nil
}

func markEnrollmentFailed(tx *gorm.DB, enrollmentID uint, result *ApplyResult) error {
	res := tx.Model(&courseModels.Enrollment{}).
		Where("id = ? AND status IN ?", enrollmentID,
			[]string{courseModels.EnrollmentPending, courseModels.EnrollmentPaymentPending}).
		Update("status", courseModels.EnrollmentPaymentFailed)
	if res.Error != nil {
		return res.Error
	}
	var e courseModels.Enrollment
	if err := tx.Where("id = ?", enrollmentID).First(&e).Error; err != nil {
		return err
	}
	result.Enrollment = &e
	return nil
}

func loadLinkedEnrollment(tx *gorm.DB, p *courseModels.Payment, result *ApplyResult) error {
	if p.EnrollmentID == nil {
		return nil
	}
	var e courseModels.Enrollment
	if err := tx.Where("id = ?", *p.EnrollmentID).First(&e).Error; err != nil {
		return err
	}
	result.Enrollment = &e
	return nil
}

// finishActivation runs the best-effort side effects after the activation
// transaction committed. Never fails the caller.
func finishActivation(db *gorm.DB, result *ApplyResult) {
	if result.Enrollment == nil {
		return
	}
	enrollmentService.PostActivationTasks(db, result.Enrollment)
}

func rawPayload(v *gateway.ValidationResponse) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
