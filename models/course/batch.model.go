package course

import (
	"time"

	"gorm.io/gorm"
)

// BatchStatus enum values
const (
	BatchDraft     = "DRAFT"
	BatchUpcoming  = "UPCOMING"
	BatchRunning   = "RUNNING"
	BatchCompleted = "COMPLETED"
)

// Batch represents a scheduled cohort/run of a course with its own dates and price
type Batch struct {
	gorm.Model
	CourseID            uint      `json:"course_id" gorm:"index;not null"`
	Title               string    `json:"title"`
	BatchNumber         int       `json:"batch_number" gorm:"not null"` // Sequence of this batch within the course
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	EnrollmentStartDate time.Time `json:"enrollment_start_date"`
	EnrollmentEndDate   time.Time `json:"enrollment_end_date"`
	Price               float64   `json:"price" gorm:"not null;default:0"`
	Currency            string    `json:"currency" gorm:"type:varchar(10);default:'BDT'"`
	CurrentEnrollment   int       `json:"current_enrollment" gorm:"default:0"` // Only incremented, only via atomic SQL increment
	Status              string    `json:"status" gorm:"type:varchar(20);default:'DRAFT'"`
	IsDeleted           bool      `gorm:"default:false"`

	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Batch) TableName() string {
	return "batches"
}

// batchTransitions is the legal lifecycle: DRAFT -> UPCOMING -> RUNNING -> COMPLETED
var batchTransitions = map[string][]string{
	BatchDraft:    {BatchUpcoming},
	BatchUpcoming: {BatchRunning},
	BatchRunning:  {BatchCompleted},
}

// ValidBatchTransition reports whether a batch may move from one status to another
func ValidBatchTransition(from, to string) bool {
	for _, next := range batchTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpenForEnrollment reports whether new enrollments are accepted right now
func (b *Batch) IsOpenForEnrollment(now time.Time) bool {
	if b.Status != BatchUpcoming && b.Status != BatchRunning {
		return false
	}
	return !now.After(b.EnrollmentEndDate)
}
