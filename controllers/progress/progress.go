package progressController

import (
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	progressService "lms/services/progress"

	"github.com/gofiber/fiber/v2"
)

// ownEnrollment loads the enrollment and checks it belongs to the caller
func ownEnrollment(c *fiber.Ctx, enrollmentID uint) (*courseModels.Enrollment, error) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}
	if enrollment.UserID != userID {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}
	return &enrollment, nil
}

// UpdateLessonProgress records a playback update for a lesson
func UpdateLessonProgress(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonID").(uint)
	reqData := c.Locals("validatedLessonProgress").(*struct {
		EnrollmentID uint `json:"enrollment_id"`
		WatchSeconds int  `json:"watch_seconds"`
		LastPosition int  `json:"last_position"`
	})

	if _, err := ownEnrollment(c, reqData.EnrollmentID); err != nil {
		return err
	}

	lessonProgress, err := progressService.RecordLessonProgress(database.Database.Db,
		reqData.EnrollmentID, lessonID, reqData.WatchSeconds, reqData.LastPosition)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson progress updated!", lessonProgress)
}

// CompleteLesson marks a lesson completed outright (non-video/manual completion)
func CompleteLesson(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonID").(uint)
	reqData := c.Locals("validatedLessonComplete").(*struct {
		EnrollmentID uint `json:"enrollment_id"`
	})

	if _, err := ownEnrollment(c, reqData.EnrollmentID); err != nil {
		return err
	}

	lessonProgress, err := progressService.CompleteLesson(database.Database.Db, reqData.EnrollmentID, lessonID)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked as completed!", lessonProgress)
}

// GetBatchProgress returns the module/lesson rollup for one enrollment
func GetBatchProgress(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)

	if _, err := ownEnrollment(c, enrollmentID); err != nil {
		return err
	}

	report, err := progressService.GetBatchProgress(database.Database.Db, enrollmentID)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", report)
}

// CheckCertificateEligibility reports whether the enrollment qualifies for a certificate
func CheckCertificateEligibility(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)

	if _, err := ownEnrollment(c, enrollmentID); err != nil {
		return err
	}

	eligible, err := progressService.CheckCertificateEligibility(database.Database.Db, enrollmentID)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Eligibility checked successfully!", fiber.Map{
		"enrollment_id": enrollmentID,
		"eligible":      eligible,
	})
}
