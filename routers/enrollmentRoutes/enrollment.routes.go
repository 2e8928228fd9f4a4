package enrollmentRoutes

import (
	controllers "lms/controllers/enrollment"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupEnrollmentRoutes sets up all enrollment routes
func SetupEnrollmentRoutes(app *fiber.App) {
	batchGroup := app.Group("/batch")

	// Gateway path: reserves the seat and returns the hosted payment redirect
	batchGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.EnrollBatch(), controllers.InitiateEnrollment)

	// Manual path: bank-transfer evidence, pending admin review
	batchGroup.Post("/:id/enroll/manual", middleware.JWTMiddleware, validators.ManualEnrollment(), controllers.EnrollWithManualPayment)

	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetUserEnrollments)
	userGroup.Get("/enrollments/:id", middleware.JWTMiddleware, validators.EnrollmentParam(), controllers.GetEnrollmentDetails)

	adminGroup := app.Group("/admin/enrollments", middleware.JWTMiddleware, middleware.AdminMiddleware)
	adminGroup.Post("/:id/suspend", validators.EnrollmentParam(), controllers.SuspendEnrollment)
	adminGroup.Post("/:id/certificate", validators.EnrollmentParam(), controllers.IssueCertificate)
}
