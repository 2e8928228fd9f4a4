package paymentRoutes

import (
	controllers "lms/controllers/payment"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes sets up gateway callbacks and admin verification routes
func SetupPaymentRoutes(app *fiber.App) {
	paymentGroup := app.Group("/payment")

	// Gateway callbacks: no JWT, the gateway is the caller
	paymentGroup.Post("/ipn", controllers.PaymentIPN)
	paymentGroup.Post("/success", controllers.PaymentSuccess)
	paymentGroup.Post("/fail", controllers.PaymentFail)
	paymentGroup.Post("/cancel", controllers.PaymentCancel)

	// Learner status-check / reconciliation
	paymentGroup.Get("/status/:transaction_id", middleware.JWTMiddleware, controllers.GetPaymentStatus)

	adminGroup := app.Group("/admin/payments", middleware.JWTMiddleware, middleware.AdminMiddleware)
	adminGroup.Get("/review", controllers.ListReviewPayments)
	adminGroup.Post("/verify", validators.ManualVerification(), controllers.VerifyManualPayment)
}
