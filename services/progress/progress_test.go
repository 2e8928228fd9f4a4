package progress

import (
	"fmt"
	"testing"

	"lms/models"
	courseModels "lms/models/course"

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

// seedCourse creates a course with two modules of two 100-second lessons each
// and one active enrollment with initialized progress.
func seedCourse(t *testing.T, db *gorm.DB) (*courseModels.Enrollment, []courseModels.Module, []courseModels.Lesson) {
	c := courseModels.Course{Title: "Modern Algebra", Code: "MA", Status: courseModels.CourseActive}
	require.NoError(t, db.Create(&c).Error)

	var modules []courseModels.Module
	var lessons []courseModels.Lesson
	for i := 0; i < 2; i++ {
		m := courseModels.Module{CourseID: c.ID, Title: fmt.Sprintf("Module %d", i+1), OrderIndex: i}
		require.NoError(t, db.Create(&m).Error)
		modules = append(modules, m)

		for j := 0; j < 2; j++ {
			l := courseModels.Lesson{
				CourseID:        c.ID,
				ModuleID:        m.ID,
				Title:           fmt.Sprintf("Lesson %d.%d", i+1, j+1),
				DurationSeconds: 100,
				OrderIndex:      j,
				IsPublished:     true,
			}
			require.NoError(t, db.Create(&l).Error)
			lessons = append(lessons, l)
		}
	}

	batch := courseModels.Batch{CourseID: c.ID, Title: "Batch 6", BatchNumber: 6, Status: courseModels.BatchRunning}
	require.NoError(t, db.Create(&batch).Error)

	enrollment := courseModels.Enrollment{
		UserID:   1,
		BatchID:  batch.ID,
		CourseID: c.ID,
		Status:   courseModels.EnrollmentActive,
	}
	require.NoError(t, db.Create(&enrollment).Error)
	require.NoError(t, InitializeForEnrollment(db, enrollment.ID, c.ID))

	return &enrollment, modules, lessons
}

func moduleProgressFor(t *testing.T, db *gorm.DB, enrollmentID, moduleID uint) courseModels.ModuleProgress {
	var mp courseModels.ModuleProgress
	require.NoError(t, db.Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).First(&mp).Error)
	return mp
}

func TestInitializeUnlocksFirstModuleOnly(t *testing.T) {
	db := setupTestDB(t)
	enrollment, modules, _ := seedCourse(t, db)

	first := moduleProgressFor(t, db, enrollment.ID, modules[0].ID)
	assert.Equal(t, courseModels.ModuleUnlocked, first.Status)
	assert.NotNil(t, first.UnlockedAt)

	second := moduleProgressFor(t, db, enrollment.ID, modules[1].ID)
	assert.Equal(t, courseModels.ModuleLocked, second.Status)
	assert.Nil(t, second.UnlockedAt)
}

func TestInitializeIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	enrollment, _, _ := seedCourse(t, db)

	require.NoError(t, InitializeForEnrollment(db, enrollment.ID, enrollment.CourseID))

	var count int64
	db.Model(&courseModels.ModuleProgress{}).Where("enrollment_id = ?", enrollment.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestWatchTimeIsMonotonic(t *testing.T) {
	db := setupTestDB(t)
	enrollment, _, lessons := seedCourse(t, db)

	lp, err := RecordLessonProgress(db, enrollment.ID, lessons[0].ID, 50, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, lp.WatchSeconds)
	assert.Equal(t, courseModels.LessonInProgress, lp.Status)

	// A lower watch time must never shrink the stored value
	lp, err = RecordLessonProgress(db, enrollment.ID, lessons[0].ID, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, 50, lp.WatchSeconds)
}

func TestLessonCompletesAtNinetyPercent(t *testing.T) {
	db := setupTestDB(t)
	enrollment, _, lessons := seedCourse(t, db)

	lp, err := RecordLessonProgress(db, enrollment.ID, lessons[0].ID, 89, 89)
	require.NoError(t, err)
	assert.Equal(t, courseModels.LessonInProgress, lp.Status)

	lp, err = RecordLessonProgress(db, enrollment.ID, lessons[0].ID, 90, 90)
	require.NoError(t, err)
	assert.Equal(t, courseModels.LessonCompleted, lp.Status)
	assert.NotNil(t, lp.CompletedAt)
}

func TestModuleCompletionUnlocksNext(t *testing.T) {
	db := setupTestDB(t)
	enrollment, modules, lessons := seedCourse(t, db)

	// Complete the first lesson: module 1 at 50%, module 2 still locked
	_, err := RecordLessonProgress(db, enrollment.ID, lessons[0].ID, 95, 95)
	require.NoError(t, err)

	first := moduleProgressFor(t, db, enrollment.ID, modules[0].ID)
	assert.Equal(t, courseModels.ModuleInProgress, first.Status)
	assert.Equal(t, 50, first.CompletionPercent)
	assert.NotNil(t, first.StartedAt)

	second := moduleProgressFor(t, db, enrollment.ID, modules[1].ID)
	assert.Equal(t, courseModels.ModuleLocked, second.Status)

	// Complete the second lesson: module 1 done, module 2 unlocked
	_, err = RecordLessonProgress(db, enrollment.ID, lessons[1].ID, 100, 100)
	require.NoError(t, err)

	first = moduleProgressFor(t, db, enrollment.ID, modules[0].ID)
	assert.Equal(t, courseModels.ModuleCompleted, first.Status)
	assert.Equal(t, 100, first.CompletionPercent)
	assert.NotNil(t, first.CompletedAt)

	second = moduleProgressFor(t, db, enrollment.ID, modules[1].ID)
	assert.Equal(t, courseModels.ModuleUnlocked, second.Status)
	assert.NotNil(t, second.UnlockedAt)
}

func TestLockedModuleRejectsProgress(t *testing.T) {
	db := setupTestDB(t)
	enrollment, _, lessons := seedCourse(t, db)

	// lessons[2] belongs to the second, still locked module
	_, err := RecordLessonProgress(db, enrollment.ID, lessons[2].ID, 50, 50)
	require.Error(t, err)
}

func TestCompleteLessonMatchesThresholdPath(t *testing.T) {
	db := setupTestDB(t)
	enrollment, modules, lessons := seedCourse(t, db)

	lp, err := CompleteLesson(db, enrollment.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.LessonCompleted, lp.Status)
	assert.Equal(t, 100, lp.WatchSeconds)

	_, err = CompleteLesson(db, enrollment.ID, lessons[1].ID)
	require.NoError(t, err)

	// Same end state as crossing the 90% threshold on each lesson
	first := moduleProgressFor(t, db, enrollment.ID, modules[0].ID)
	assert.Equal(t, courseModels.ModuleCompleted, first.Status)

	second := moduleProgressFor(t, db, enrollment.ID, modules[1].ID)
	assert.Equal(t, courseModels.ModuleUnlocked, second.Status)
}

func TestInactiveEnrollmentRejectsProgress(t *testing.T) {
	db := setupTestDB(t)
	enrollment, _, lessons := seedCourse(t, db)

	require.NoError(t, db.Model(enrollment).Update("status", courseModels.EnrollmentSuspended).Error)

	_, err := RecordLessonProgress(db, enrollment.ID, lessons[0].ID, 50, 50)
	require.Error(t, err)
}

func TestCertificateEligibility(t *testing.T) {
	db := setupTestDB(t)
	enrollment, _, lessons := seedCourse(t, db)

	eligible, err := CheckCertificateEligibility(db, enrollment.ID)
	require.NoError(t, err)
	assert.False(t, eligible)

	for _, l := range lessons {
		_, err := CompleteLesson(db, enrollment.ID, l.ID)
		require.NoError(t, err)
	}

	eligible, err = CheckCertificateEligibility(db, enrollment.ID)
	require.NoError(t, err)
	assert.True(t, eligible)
}

func TestGetBatchProgressRollup(t *testing.T) {
	db := setupTestDB(t)
	enrollment, _, lessons := seedCourse(t, db)

	_, err := CompleteLesson(db, enrollment.ID, lessons[0].ID)
	require.NoError(t, err)
	_, err = CompleteLesson(db, enrollment.ID, lessons[1].ID)
	require.NoError(t, err)

	report, err := GetBatchProgress(db, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, report.Modules, 2)
	assert.Equal(t, 50, report.OverallPercent)
}
