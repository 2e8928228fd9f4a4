package course

import (
	"time"

	"gorm.io/gorm"
)

// EnrollmentStatus enum values
const (
	EnrollmentPending        = "PENDING"
	EnrollmentPaymentPending = "PAYMENT_PENDING"
	EnrollmentActive         = "ACTIVE"
	EnrollmentCompleted      = "COMPLETED"
	EnrollmentSuspended      = "SUSPENDED"
	EnrollmentPaymentFailed  = "PAYMENT_FAILED"
)

// Enrollment binds a learner to a batch through a payment-gated lifecycle
type Enrollment struct {
	gorm.Model
	UserID        uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_user_batch"`
	BatchID       uint       `json:"batch_id" gorm:"not null;uniqueIndex:idx_user_batch"`
	CourseID      uint       `json:"course_id" gorm:"index;not null"` // Denormalized for the one-live-per-course check
	EnrollmentNo  *string    `json:"enrollment_no" gorm:"type:varchar(30);uniqueIndex"`
	TransactionID string     `json:"transaction_id" gorm:"type:varchar(64)"`
	Status        string     `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	EnrolledAt    *time.Time `json:"enrolled_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	CertIssued    bool       `json:"cert_issued" gorm:"default:false"`
	IsDeleted     bool       `gorm:"default:false"`

	Batch Batch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

var enrollmentTransitions = map[string][]string{
	EnrollmentPending:        {EnrollmentActive, EnrollmentPaymentFailed},
	EnrollmentPaymentPending: {EnrollmentActive, EnrollmentPaymentFailed},
	EnrollmentActive:         {EnrollmentCompleted, EnrollmentSuspended},
	EnrollmentSuspended:      {EnrollmentActive},
}

// ValidEnrollmentTransition reports whether an enrollment may move between the two statuses
func ValidEnrollmentTransition(from, to string) bool {
	for _, next := range enrollmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsLive reports whether this enrollment holds or may still claim a seat
func (e *Enrollment) IsLive() bool {
	return e.Status == EnrollmentPending || e.Status == EnrollmentPaymentPending || e.Status == EnrollmentActive
}

// EnrollmentSequence backs race-safe enrollment number generation. One row per
// (batch_number, year); the row is incremented inside the approval transaction.
type EnrollmentSequence struct {
	gorm.Model
	BatchNumber int  `json:"batch_number" gorm:"not null;uniqueIndex:idx_batch_year"`
	Year        int  `json:"year" gorm:"not null;uniqueIndex:idx_batch_year"`
	LastValue   int  `json:"last_value" gorm:"default:0"`
	IsDeleted   bool `gorm:"default:false"`
}

func (EnrollmentSequence) TableName() string {
	return "enrollment_sequences"
}
