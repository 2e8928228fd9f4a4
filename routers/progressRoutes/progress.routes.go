package progressRoutes

import (
	controllers "lms/controllers/progress"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressRoutes sets up lesson progress and certificate routes
func SetupProgressRoutes(app *fiber.App) {
	progressGroup := app.Group("/progress", middleware.JWTMiddleware)

	progressGroup.Post("/lesson/:lesson_id", validators.LessonProgress(), controllers.UpdateLessonProgress)
	progressGroup.Post("/lesson/:lesson_id/complete", validators.LessonComplete(), controllers.CompleteLesson)
	progressGroup.Get("/enrollment/:id", validators.EnrollmentParam(), controllers.GetBatchProgress)
	progressGroup.Get("/enrollment/:id/certificate-eligibility", validators.EnrollmentParam(), controllers.CheckCertificateEligibility)
}
