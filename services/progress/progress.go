package progress

import (
	"errors"
	"math"
	"time"

	courseModels "lms/models/course"
	"lms/utils"

	"gorm.io/gorm"
)

// InitializeForEnrollment creates one ModuleProgress row per module of the course.
// The module with the lowest order index starts UNLOCKED, the rest LOCKED.
// Idempotent: a no-op when rows already exist for this enrollment.
func InitializeForEnrollment(tx *gorm.DB, enrollmentID, courseID uint) error {
	var existing int64
	if err := tx.Model(&courseModels.ModuleProgress{}).
		Where("enrollment_id = ? AND is_deleted = false", enrollmentID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	var modules []courseModels.Module
	if err := tx.Where("course_id = ? AND is_deleted = false", courseID).
		Order("order_index asc").
		Find(&modules).Error; err != nil {
		return err
	}
	if len(modules) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]courseModels.ModuleProgress, len(modules))
	for i, m := range modules {
		rows[i] = courseModels.ModuleProgress{
			EnrollmentID: enrollmentID,
			ModuleID:     m.ID,
			Status:       courseModels.ModuleLocked,
		}
		if i == 0 {
			rows[i].Status = courseModels.ModuleUnlocked
			rows[i].UnlockedAt = &now
		}
	}

	return tx.Create(&rows).Error
}

// RecordLessonProgress upserts the lesson progress row for a playback update.
// Watch time is monotonic; crossing 90% of the lesson duration completes the
// lesson and triggers a synchronous module recompute.
func RecordLessonProgress(db *gorm.DB, enrollmentID, lessonID uint, watchSeconds, lastPosition int) (*courseModels.LessonProgress, error) {
	if watchSeconds < 0 || lastPosition < 0 {
		return nil, utils.ValidationError("Watch time and position must not be negative!")
	}
	return applyLessonProgress(db, enrollmentID, lessonID, watchSeconds, lastPosition, false)
}

// CompleteLesson marks a lesson completed outright (non-video/manual completion).
// Ends in the same state as reaching the watch-time threshold.
func CompleteLesson(db *gorm.DB, enrollmentID, lessonID uint) (*courseModels.LessonProgress, error) {
	return applyLessonProgress(db, enrollmentID, lessonID, 0, 0, true)
}

func applyLessonProgress(db *gorm.DB, enrollmentID, lessonID uint, watchSeconds, lastPosition int, forceComplete bool) (*courseModels.LessonProgress, error) {
	var result courseModels.LessonProgress

	err := db.Transaction(func(tx *gorm.DB) error {
		var enrollment courseModels.Enrollment
		if err := tx.Where("id = ? AND is_deleted = false", enrollmentID).First(&enrollment).Error; err != nil {
			return utils.NotFoundError("Enrollment not found!")
		}
		if enrollment.Status != courseModels.EnrollmentActive && enrollment.Status != courseModels.EnrollmentCompleted {
			return utils.ConflictError("Enrollment is not active!")
		}

		var lesson courseModels.Lesson
		if err := tx.Where("id = ? AND is_deleted = false", lessonID).First(&lesson).Error; err != nil {
			return utils.NotFoundError("Lesson not found!")
		}

		var moduleProgress courseModels.ModuleProgress
		if err := tx.Where("enrollment_id = ? AND module_id = ? AND is_deleted = false", enrollmentID, lesson.ModuleID).
			First(&moduleProgress).Error; err != nil {
			return utils.NotFoundError("Module progress not found!")
		}
		if moduleProgress.Status == courseModels.ModuleLocked {
			return utils.ConflictError("Module is locked! Complete the previous module first.")
		}

		var lp courseModels.LessonProgress
		if err := tx.Where(courseModels.LessonProgress{
			EnrollmentID: enrollmentID,
			LessonID:     lessonID,
		}).Attrs(courseModels.LessonProgress{
			ModuleID: lesson.ModuleID,
			Status:   courseModels.LessonNotStarted,
		}).FirstOrCreate(&lp).Error; err != nil {
			return err
		}

		if forceComplete {
			watchSeconds = lesson.DurationSeconds
			lastPosition = lesson.DurationSeconds
		}

		// Monotonic watch time
		if watchSeconds > lp.WatchSeconds {
			lp.WatchSeconds = watchSeconds
		}
		lp.LastPosition = lastPosition

		threshold := float64(lesson.DurationSeconds) * 0.9
		completed := forceComplete || (lesson.DurationSeconds > 0 && float64(lp.WatchSeconds) >= threshold)

		if completed {
			if lp.Status != courseModels.LessonCompleted {
				now := time.Now()
				lp.Status = courseModels.LessonCompleted
				lp.CompletedAt = &now
			}
		} else if lp.Status == courseModels.LessonNotStarted && lp.WatchSeconds > 0 {
			lp.Status = courseModels.LessonInProgress
		}

		if err := tx.Save(&lp).Error; err != nil {
			return err
		}

		if err := recomputeModule(tx, enrollmentID, lesson.ModuleID); err != nil {
			return err
		}

		result = lp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// recomputeModule rolls lesson completion up into the module row and unlocks
// the next module when this one reaches 100%.
func recomputeModule(tx *gorm.DB, enrollmentID, moduleID uint) error {
	var total int64
	if err := tx.Model(&courseModels.Lesson{}).
		Where("module_id = ? AND is_deleted = false", moduleID).
		Count(&total).Error; err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	var completed int64
	if err := tx.Model(&courseModels.LessonProgress{}).
		Where("enrollment_id = ? AND module_id = ? AND status = ? AND is_deleted = false",
			enrollmentID, moduleID, courseModels.LessonCompleted).
		Count(&completed).Error; err != nil {
		return err
	}

	percent := int(math.Round(100 * float64(completed) / float64(total)))

	var mp courseModels.ModuleProgress
	if err := tx.Where("enrollment_id = ? AND module_id = ? AND is_deleted = false", enrollmentID, moduleID).
		First(&mp).Error; err != nil {
		return utils.NotFoundError("Module progress not found!")
	}

	now := time.Now()
	mp.CompletionPercent = percent

	switch {
	case percent >= 100:
		if mp.Status != courseModels.ModuleCompleted {
			mp.Status = courseModels.ModuleCompleted
			if mp.StartedAt == nil {
				mp.StartedAt = &now
			}
			mp.CompletedAt = &now
		}
	case percent > 0:
		if mp.Status == courseModels.ModuleUnlocked {
			mp.Status = courseModels.ModuleInProgress
			mp.StartedAt = &now
		}
	}

	if err := tx.Save(&mp).Error; err != nil {
		return err
	}

	if mp.Status == courseModels.ModuleCompleted {
		return unlockNext(tx, enrollmentID, moduleID)
	}
	return nil
}

// unlockNext unlocks the module with the next-higher order index, if any.
// Unlocking is strictly sequential and one-directional.
func unlockNext(tx *gorm.DB, enrollmentID, completedModuleID uint) error {
	var current courseModels.Module
	if err := tx.Where("id = ? AND is_deleted = false", completedModuleID).First(&current).Error; err != nil {
		return utils.NotFoundError("Module not found!")
	}

	var next courseModels.Module
	err := tx.Where("course_id = ? AND order_index > ? AND is_deleted = false", current.CourseID, current.OrderIndex).
		Order("order_index asc").
		First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // last module of the course
	}
	if err != nil {
		return err
	}

	now := time.Now()
	return tx.Model(&courseModels.ModuleProgress{}).
		Where("enrollment_id = ? AND module_id = ? AND status = ? AND is_deleted = false",
			enrollmentID, next.ID, courseModels.ModuleLocked).
		Updates(map[string]interface{}{
			"status":      courseModels.ModuleUnlocked,
			"unlocked_at": &now,
		}).Error
}

// ModuleProgressView is one module row in the learner's progress report
type ModuleProgressView struct {
	courseModels.ModuleProgress
	ModuleTitle string                        `json:"module_title"`
	OrderIndex  int                           `json:"order_index"`
	Lessons     []courseModels.LessonProgress `json:"lessons"`
}

// BatchProgress is the full progress rollup for one enrollment
type BatchProgress struct {
	EnrollmentID   uint                 `json:"enrollment_id"`
	OverallPercent int                  `json:"overall_percent"`
	Modules        []ModuleProgressView `json:"modules"`
}

// GetBatchProgress returns the two-level progress report for an enrollment
func GetBatchProgress(db *gorm.DB, enrollmentID uint) (*BatchProgress, error) {
	var enrollment courseModels.Enrollment
	if err := db.Where("id = ? AND is_deleted = false", enrollmentID).First(&enrollment).Error; err != nil {
		return nil, utils.NotFoundError("Enrollment not found!")
	}

	var rows []courseModels.ModuleProgress
	if err := db.Where("enrollment_id = ? AND is_deleted = false", enrollmentID).Find(&rows).Error; err != nil {
		return nil, err
	}

	report := &BatchProgress{EnrollmentID: enrollmentID}
	sum := 0
	for _, mp := range rows {
		var module courseModels.Module
		if err := db.Where("id = ?", mp.ModuleID).First(&module).Error; err != nil {
			return nil, err
		}

		var lessons []courseModels.LessonProgress
		if err := db.Where("enrollment_id = ? AND module_id = ? AND is_deleted = false", enrollmentID, mp.ModuleID).
			Find(&lessons).Error; err != nil {
			return nil, err
		}

		report.Modules = append(report.Modules, ModuleProgressView{
			ModuleProgress: mp,
			ModuleTitle:    module.Title,
			OrderIndex:     module.OrderIndex,
			Lessons:        lessons,
		})
		sum += mp.CompletionPercent
	}
	if len(rows) > 0 {
		report.OverallPercent = sum / len(rows)
	}

	return report, nil
}

// CheckCertificateEligibility reports whether every module of the enrollment is
// at 100%. Consumed by the certificate issuance flow.
func CheckCertificateEligibility(db *gorm.DB, enrollmentID uint) (bool, error) {
	var enrollment courseModels.Enrollment
	if err := db.Where("id = ? AND is_deleted = false", enrollmentID).First(&enrollment).Error; err != nil {
		return false, utils.NotFoundError("Enrollment not found!")
	}
	if enrollment.Status != courseModels.EnrollmentActive && enrollment.Status != courseModels.EnrollmentCompleted {
		return false, nil
	}

	var total int64
	if err := db.Model(&courseModels.ModuleProgress{}).
		Where("enrollment_id = ? AND is_deleted = false", enrollmentID).
		Count(&total).Error; err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}

	var incomplete int64
	if err := db.Model(&courseModels.ModuleProgress{}).
		Where("enrollment_id = ? AND completion_percent < 100 AND is_deleted = false", enrollmentID).
		Count(&incomplete).Error; err != nil {
		return false, err
	}

	return incomplete == 0, nil
}
