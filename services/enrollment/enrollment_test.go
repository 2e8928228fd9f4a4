package enrollment

import (
	"fmt"
	"testing"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.StudentProfile{},
		&courseModels.Course{}, &courseModels.Module{}, &courseModels.Lesson{},
		&courseModels.Batch{}, &courseModels.Enrollment{}, &courseModels.EnrollmentSequence{},
		&courseModels.Payment{}, &courseModels.ModuleProgress{}, &courseModels.LessonProgress{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	user := models.User{Name: "Test Student", Email: email, Password: "hashed"}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedBatch(t *testing.T, db *gorm.DB, status string) (*courseModels.Course, *courseModels.Batch) {
	c := courseModels.Course{Title: "Modern Algebra", Code: "MA", Status: courseModels.CourseActive}
	require.NoError(t, db.Create(&c).Error)

	for i := 0; i < 2; i++ {
		m := courseModels.Module{CourseID: c.ID, Title: fmt.Sprintf("Module %d", i+1), OrderIndex: i}
		require.NoError(t, db.Create(&m).Error)
	}

	now := time.Now()
	batch := courseModels.Batch{
		CourseID:            c.ID,
		Title:               "Modern Algebra - Batch 6",
		BatchNumber:         6,
		StartDate:           now.AddDate(0, 0, 7),
		EndDate:             now.AddDate(0, 3, 0),
		EnrollmentStartDate: now.AddDate(0, 0, -7),
		EnrollmentEndDate:   now.AddDate(0, 0, 7),
		Price:               4000,
		Currency:            "BDT",
		Status:              status,
	}
	require.NoError(t, db.Create(&batch).Error)
	return &c, &batch
}

func TestInitiateCreatesPendingEnrollment(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	result, err := Initiate(db, user.ID, batch.ID)
	require.NoError(t, err)

	assert.False(t, result.IsExisting)
	assert.Equal(t, courseModels.EnrollmentPending, result.Enrollment.Status)
	assert.Nil(t, result.Enrollment.EnrollmentNo) // numbers only on payment success
	assert.Nil(t, result.Enrollment.EnrolledAt)
}

func TestInitiateIsIdempotentWhilePending(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	first, err := Initiate(db, user.ID, batch.ID)
	require.NoError(t, err)

	second, err := Initiate(db, user.ID, batch.ID)
	require.NoError(t, err)
	assert.True(t, second.IsExisting)
	assert.Equal(t, first.Enrollment.ID, second.Enrollment.ID)

	var count int64
	db.Model(&courseModels.Enrollment{}).Where("user_id = ? AND batch_id = ?", user.ID, batch.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestInitiateConflictsAfterActivation(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	result, err := Initiate(db, user.ID, batch.ID)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := Confirm(tx, result.Enrollment.ID, "TXN1")
		return err
	})
	require.NoError(t, err)

	_, err = Initiate(db, user.ID, batch.ID)
	require.Error(t, err)
}

func TestInitiateEnforcesOneLiveEnrollmentPerCourse(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	c, batch := seedBatch(t, db, courseModels.BatchRunning)

	// A second batch of the same course
	now := time.Now()
	other := courseModels.Batch{
		CourseID:          c.ID,
		Title:             "Modern Algebra - Batch 7",
		BatchNumber:       7,
		EnrollmentEndDate: now.AddDate(0, 0, 7),
		Price:             4000,
		Currency:          "BDT",
		Status:            courseModels.BatchUpcoming,
	}
	require.NoError(t, db.Create(&other).Error)

	_, err := Initiate(db, user.ID, batch.ID)
	require.NoError(t, err)

	_, err = Initiate(db, user.ID, other.ID)
	require.Error(t, err)
}

func TestInitiateRejectsClosedBatch(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")

	_, draft := seedBatch(t, db, courseModels.BatchDraft)
	_, err := Initiate(db, user.ID, draft.ID)
	require.Error(t, err)

	_, expired := seedBatch(t, db, courseModels.BatchRunning)
	require.NoError(t, db.Model(expired).Update("enrollment_end_date", time.Now().AddDate(0, 0, -1)).Error)
	_, err = Initiate(db, user.ID, expired.ID)
	require.Error(t, err)
}

func TestInitiateMapsDuplicateRaceToConflict(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	// A soft-deleted row is invisible to the pre-checks but still holds the
	// (user_id, batch_id) unique index, so the insert below loses the same way
	// a concurrent initiate would.
	ghost := courseModels.Enrollment{
		UserID:    user.ID,
		BatchID:   batch.ID,
		CourseID:  batch.CourseID,
		Status:    courseModels.EnrollmentPending,
		IsDeleted: true,
	}
	require.NoError(t, db.Create(&ghost).Error)

	_, err := Initiate(db, user.ID, batch.ID)
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeConflict, appErr.Code)
}

func TestConfirmActivatesExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	result, err := Initiate(db, user.ID, batch.ID)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		err = db.Transaction(func(tx *gorm.DB) error {
			_, err := Confirm(tx, result.Enrollment.ID, "TXN1")
			return err
		})
		require.NoError(t, err)
	}

	var enrollment courseModels.Enrollment
	require.NoError(t, db.First(&enrollment, result.Enrollment.ID).Error)
	assert.Equal(t, courseModels.EnrollmentActive, enrollment.Status)
	require.NotNil(t, enrollment.EnrollmentNo)
	assert.NotNil(t, enrollment.EnrolledAt)

	// Seat counter incremented exactly once despite the double confirm
	var b courseModels.Batch
	require.NoError(t, db.First(&b, batch.ID).Error)
	assert.Equal(t, 1, b.CurrentEnrollment)

	// Progress initialized: first module unlocked, second locked
	var progressRows []courseModels.ModuleProgress
	require.NoError(t, db.Where("enrollment_id = ?", enrollment.ID).Order("module_id asc").Find(&progressRows).Error)
	require.Len(t, progressRows, 2)
	assert.Equal(t, courseModels.ModuleUnlocked, progressRows[0].Status)
	assert.Equal(t, courseModels.ModuleLocked, progressRows[1].Status)
}

func TestConfirmAssignsSequentialNumbers(t *testing.T) {
	db := setupTestDB(t)
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	year := time.Now().Year()
	var numbers []string
	for i := 0; i < 2; i++ {
		user := seedUser(t, db, fmt.Sprintf("user%d@example.com", i))
		result, err := Initiate(db, user.ID, batch.ID)
		require.NoError(t, err)

		err = db.Transaction(func(tx *gorm.DB) error {
			activated, err := Confirm(tx, result.Enrollment.ID, fmt.Sprintf("TXN%d", i))
			if err == nil {
				numbers = append(numbers, *activated.EnrollmentNo)
			}
			return err
		})
		require.NoError(t, err)
	}

	assert.Equal(t, fmt.Sprintf("MA-6%d001", year), numbers[0])
	assert.Equal(t, fmt.Sprintf("MA-6%d002", year), numbers[1])
}

func TestConfirmRejectsFailedEnrollment(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	result, err := Initiate(db, user.ID, batch.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(result.Enrollment).Update("status", courseModels.EnrollmentPaymentFailed).Error)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := Confirm(tx, result.Enrollment.ID, "TXN1")
		return err
	})
	require.Error(t, err)
}

func TestEnrollWithManualPayment(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	evidence := ManualEvidence{SenderAccount: "0123456789", BankReference: "BRAC-778899"}
	enrollment, payment, err := EnrollWithManualPayment(db, user.ID, batch.ID, evidence)
	require.NoError(t, err)

	assert.Equal(t, courseModels.EnrollmentPaymentPending, enrollment.Status)
	assert.Nil(t, enrollment.EnrollmentNo)
	assert.Equal(t, courseModels.PaymentReview, payment.Status)
	assert.Equal(t, courseModels.MethodBankTransfer, payment.Method)
	assert.Equal(t, batch.Price, payment.Amount)
	require.NotNil(t, payment.EnrollmentID)
	assert.Equal(t, enrollment.ID, *payment.EnrollmentID)

	// Re-submission while the first is in flight is blocked
	_, _, err = EnrollWithManualPayment(db, user.ID, batch.ID, evidence)
	require.Error(t, err)
}

func TestSuspendRequiresActiveEnrollment(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	result, err := Initiate(db, user.ID, batch.ID)
	require.NoError(t, err)

	_, err = Suspend(db, result.Enrollment.ID)
	require.Error(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := Confirm(tx, result.Enrollment.ID, "TXN1")
		return err
	})
	require.NoError(t, err)

	suspended, err := Suspend(db, result.Enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentSuspended, suspended.Status)
}

func TestPostActivationTasksUpsertsProfile(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "a@example.com")
	_, batch := seedBatch(t, db, courseModels.BatchRunning)

	result, err := Initiate(db, user.ID, batch.ID)
	require.NoError(t, err)

	PostActivationTasks(db, result.Enrollment)
	PostActivationTasks(db, result.Enrollment)

	var profile models.StudentProfile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, 2, profile.TotalEnrollments)
	assert.NotNil(t, profile.LastEnrolledAt)
}
