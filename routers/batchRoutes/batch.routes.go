package batchRoutes

import (
	controllers "lms/controllers/batch"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupBatchRoutes sets up admin batch lifecycle routes
func SetupBatchRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/batches", middleware.JWTMiddleware, middleware.AdminMiddleware)
	adminGroup.Post("/:id/status", validators.BatchStatus(), controllers.UpdateBatchStatus)
}
