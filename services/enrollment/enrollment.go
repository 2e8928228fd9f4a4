package enrollment

import (
	"errors"
	"log"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	"lms/services/progress"
	"lms/utils"

	"gorm.io/gorm"
)

// InitiateResult is returned by Initiate. IsExisting marks an idempotent hit on
// a previous attempt; callers must not open a second payment in that case.
type InitiateResult struct {
	Enrollment *courseModels.Enrollment
	Batch      *courseModels.Batch
	IsExisting bool
}

// ManualEvidence carries the off-platform transfer details a learner submits
type ManualEvidence struct {
	SenderAccount string
	BankReference string
}

// Initiate reserves a seat: creates a PENDING enrollment for the gateway path.
// No enrollment number is assigned here; numbers are allocated only once a
// payment succeeds, so abandoned attempts never consume the sequence.
func Initiate(db *gorm.DB, userID, batchID uint) (*InitiateResult, error) {
	batch, err := loadOpenBatch(db, batchID)
	if err != nil {
		return nil, err
	}

	// Idempotent re-entry: hand back the in-flight attempt unchanged
	var existing courseModels.Enrollment
	if err := db.Where("user_id = ? AND batch_id = ? AND is_deleted = false", userID, batchID).
		First(&existing).Error; err == nil {
		if existing.Status == courseModels.EnrollmentPending || existing.Status == courseModels.EnrollmentPaymentPending {
			return &InitiateResult{Enrollment: &existing, Batch: batch, IsExisting: true}, nil
		}
		return nil, utils.ConflictError("You are already enrolled in this batch!")
	}

	if err := checkLiveCourseEnrollment(db, userID, batch.CourseID); err != nil {
		return nil, err
	}

	enrollment := courseModels.Enrollment{
		UserID:   userID,
		BatchID:  batchID,
		CourseID: batch.CourseID,
		Status:   courseModels.EnrollmentPending,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		// Lost a concurrent-initiate race on the (user, batch) unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.ConflictError("An enrollment for this batch is already in progress!")
		}
		return nil, err
	}

	return &InitiateResult{Enrollment: &enrollment, Batch: batch}, nil
}

// EnrollWithManualPayment submits a bank-transfer enrollment: a PAYMENT_PENDING
// enrollment plus a REVIEW payment carrying the evidence, created atomically.
func EnrollWithManualPayment(db *gorm.DB, userID, batchID uint, evidence ManualEvidence) (*courseModels.Enrollment, *courseModels.Payment, error) {
	if evidence.SenderAccount == "" || evidence.BankReference == "" {
		return nil, nil, utils.ValidationError("Sender account and bank reference are required!")
	}

	batch, err := loadOpenBatch(db, batchID)
	if err != nil {
		return nil, nil, err
	}

	var existing courseModels.Enrollment
	if err := db.Where("user_id = ? AND batch_id = ? AND is_deleted = false", userID, batchID).
		First(&existing).Error; err == nil {
		if existing.IsLive() {
			return nil, nil, utils.ConflictError("An enrollment for this batch is already in progress!")
		}
		return nil, nil, utils.ConflictError("You are already enrolled in this batch!")
	}

	if err := checkLiveCourseEnrollment(db, userID, batch.CourseID); err != nil {
		return nil, nil, err
	}

	transactionID := utils.GenerateTransactionID()
	enrollment := courseModels.Enrollment{
		UserID:        userID,
		BatchID:       batchID,
		CourseID:      batch.CourseID,
		TransactionID: transactionID,
		Status:        courseModels.EnrollmentPaymentPending,
	}
	payment := courseModels.Payment{
		UserID:        userID,
		BatchID:       batchID,
		TransactionID: transactionID,
		Amount:        batch.Price,
		Currency:      batch.Currency,
		Status:        courseModels.PaymentReview,
		Method:        courseModels.MethodBankTransfer,
		SenderAccount: evidence.SenderAccount,
		BankReference: evidence.BankReference,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}
		payment.EnrollmentID = &enrollment.ID
		return tx.Create(&payment).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, utils.ConflictError("An enrollment for this batch is already in progress!")
		}
		return nil, nil, err
	}

	return &enrollment, &payment, nil
}

// Confirm activates an enrollment after its payment reached SUCCESS. Runs
// inside the caller's transaction so the payment write, status change, number
// assignment, counter increment and progress init commit or roll back together.
// Idempotent: an already-ACTIVE enrollment is returned unchanged.
func Confirm(tx *gorm.DB, enrollmentID uint, transactionID string) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := tx.Where("id = ? AND is_deleted = false", enrollmentID).First(&enrollment).Error; err != nil {
		return nil, utils.NotFoundError("Enrollment not found!")
	}

	if enrollment.Status == courseModels.EnrollmentActive {
		return &enrollment, nil
	}
	if !courseModels.ValidEnrollmentTransition(enrollment.Status, courseModels.EnrollmentActive) {
		return nil, utils.ConflictError("Enrollment cannot be activated from its current state!")
	}

	var batch courseModels.Batch
	if err := tx.Where("id = ?", enrollment.BatchID).First(&batch).Error; err != nil {
		return nil, utils.NotFoundError("Batch not found!")
	}
	var c courseModels.Course
	if err := tx.Where("id = ?", batch.CourseID).First(&c).Error; err != nil {
		return nil, utils.NotFoundError("Course not found!")
	}

	enrollmentNo, err := nextEnrollmentNo(tx, &batch, c.Code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	// Conditional update closes the race between webhook and redirect delivery:
	// only the caller that flips the status performs the side writes.
	res := tx.Model(&courseModels.Enrollment{}).
		Where("id = ? AND status IN ?", enrollmentID,
			[]string{courseModels.EnrollmentPending, courseModels.EnrollmentPaymentPending}).
		Updates(map[string]interface{}{
			"status":         courseModels.EnrollmentActive,
			"enrollment_no":  enrollmentNo,
			"transaction_id": transactionID,
			"enrolled_at":    &now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Another writer got here first; re-read and treat as idempotent hit
		if err := tx.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
			return nil, err
		}
		if enrollment.Status == courseModels.EnrollmentActive {
			return &enrollment, nil
		}
		return nil, utils.ConflictError("Enrollment cannot be activated from its current state!")
	}

	// Seat counter: atomic SQL increment, never read-modify-write
	if err := tx.Model(&courseModels.Batch{}).
		Where("id = ?", enrollment.BatchID).
		UpdateColumn("current_enrollment", gorm.Expr("current_enrollment + 1")).Error; err != nil {
		return nil, err
	}

	if err := progress.InitializeForEnrollment(tx, enrollment.ID, enrollment.CourseID); err != nil {
		return nil, err
	}

	if err := tx.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// nextEnrollmentNo allocates the next number in the per-(batch, year) sequence.
// The UPDATE takes a row lock, so concurrent approvals serialize here.
func nextEnrollmentNo(tx *gorm.DB, batch *courseModels.Batch, courseCode string) (string, error) {
	year := time.Now().Year()

	var seq courseModels.EnrollmentSequence
	if err := tx.Where(courseModels.EnrollmentSequence{
		BatchNumber: batch.BatchNumber,
		Year:        year,
	}).FirstOrCreate(&seq).Error; err != nil {
		return "", err
	}

	if err := tx.Model(&courseModels.EnrollmentSequence{}).
		Where("id = ?", seq.ID).
		UpdateColumn("last_value", gorm.Expr("last_value + 1")).Error; err != nil {
		return "", err
	}
	if err := tx.Where("id = ?", seq.ID).First(&seq).Error; err != nil {
		return "", err
	}

	return utils.FormatEnrollmentNo(courseCode, batch.BatchNumber, year, seq.LastValue), nil
}

// PostActivationTasks runs the best-effort side effects of an activation:
// student profile upsert and nothing that can roll back the core transition.
// Failures are logged and swallowed.
func PostActivationTasks(db *gorm.DB, enrollment *courseModels.Enrollment) {
	now := time.Now()

	var profile models.StudentProfile
	err := db.Where(models.StudentProfile{UserID: enrollment.UserID}).FirstOrCreate(&profile).Error
	if err != nil {
		log.Printf("[ENROLLMENT] profile upsert failed for user %d: %v", enrollment.UserID, err)
		return
	}
	if err := db.Model(&profile).Updates(map[string]interface{}{
		"total_enrollments": gorm.Expr("total_enrollments + 1"),
		"last_enrolled_at":  &now,
	}).Error; err != nil {
		log.Printf("[ENROLLMENT] profile update failed for user %d: %v", enrollment.UserID, err)
	}
}

// Suspend sets an active enrollment to SUSPENDED (admin action)
func Suspend(db *gorm.DB, enrollmentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := db.Where("id = ? AND is_deleted = false", enrollmentID).First(&enrollment).Error; err != nil {
		return nil, utils.NotFoundError("Enrollment not found!")
	}
	if !courseModels.ValidEnrollmentTransition(enrollment.Status, courseModels.EnrollmentSuspended) {
		return nil, utils.ConflictError("Only active enrollments can be suspended!")
	}
	if err := db.Model(&enrollment).Update("status", courseModels.EnrollmentSuspended).Error; err != nil {
		return nil, err
	}
	enrollment.Status = courseModels.EnrollmentSuspended
	return &enrollment, nil
}

// IssueCertificate marks an eligible enrollment COMPLETED with the certificate flag set
func IssueCertificate(db *gorm.DB, enrollmentID uint) (*courseModels.Enrollment, error) {
	eligible, err := progress.CheckCertificateEligibility(db, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, utils.ConflictError("Enrollment is not eligible for a certificate yet!")
	}

	var enrollment courseModels.Enrollment
	if err := db.Where("id = ? AND is_deleted = false", enrollmentID).First(&enrollment).Error; err != nil {
		return nil, utils.NotFoundError("Enrollment not found!")
	}
	if enrollment.CertIssued {
		return &enrollment, nil
	}

	now := time.Now()
	updates := map[string]interface{}{"cert_issued": true}
	if enrollment.Status == courseModels.EnrollmentActive {
		updates["status"] = courseModels.EnrollmentCompleted
		updates["completed_at"] = &now
	}
	if err := db.Model(&enrollment).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := db.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetUserEnrollments returns all enrollments of a learner, newest first
func GetUserEnrollments(db *gorm.DB, userID uint) ([]courseModels.Enrollment, error) {
	var enrollments []courseModels.Enrollment
	err := db.Where("user_id = ? AND is_deleted = false", userID).
		Preload("Batch").
		Order("created_at desc").
		Find(&enrollments).Error
	return enrollments, err
}

// GetEnrollmentDetails returns one enrollment owned by the learner
func GetEnrollmentDetails(db *gorm.DB, userID, enrollmentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := db.Where("id = ? AND user_id = ? AND is_deleted = false", enrollmentID, userID).
		Preload("Batch").
		First(&enrollment).Error; err != nil {
		return nil, utils.NotFoundError("Enrollment not found!")
	}
	return &enrollment, nil
}

func loadOpenBatch(db *gorm.DB, batchID uint) (*courseModels.Batch, error) {
	var batch courseModels.Batch
	if err := db.Where("id = ? AND is_deleted = false", batchID).First(&batch).Error; err != nil {
		return nil, utils.NotFoundError("Batch not found!")
	}
	if !batch.IsOpenForEnrollment(time.Now()) {
		return nil, utils.ConflictError("Batch is not open for enrollment!")
	}
	return &batch, nil
}

// checkLiveCourseEnrollment enforces one concurrent seat per course: a learner
// holding a live enrollment in an upcoming/running batch of the same course
// cannot open another.
func checkLiveCourseEnrollment(db *gorm.DB, userID, courseID uint) error {
	var count int64
	err := db.Model(&courseModels.Enrollment{}).
		Joins("JOIN batches ON batches.id = enrollments.batch_id").
		Where("enrollments.user_id = ? AND enrollments.course_id = ? AND enrollments.is_deleted = false", userID, courseID).
		Where("enrollments.status IN ?", []string{
			courseModels.EnrollmentPending,
			courseModels.EnrollmentPaymentPending,
			courseModels.EnrollmentActive,
		}).
		Where("batches.status IN ?", []string{courseModels.BatchUpcoming, courseModels.BatchRunning}).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.ConflictError("You already have a live enrollment in this course!")
	}
	return nil
}
