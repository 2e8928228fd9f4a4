package paymentController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	paymentService "lms/services/payment"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// PaymentIPN handles the gateway's server-to-server notification. The response
// distinguishes processed / already processed / rejected so the gateway's retry
// policy behaves correctly.
func PaymentIPN(c *fiber.Ctx) error {
	payload := new(paymentService.WebhookPayload)
	if err := c.BodyParser(payload); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid webhook payload!", nil)
	}

	outcome, err := paymentService.ProcessWebhook(database.Database.Db, payload)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	switch outcome {
	case paymentService.WebhookAlreadyProcessed:
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment already processed!", nil)
	case paymentService.WebhookRejected:
		return middleware.JsonResponse(c, fiber.StatusOK, false, "Payment rejected!", nil)
	default:
		notifySuccess(payload.TranID)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment processed successfully!", nil)
	}
}

// PaymentSuccess handles the browser redirect after a gateway payment. It runs
// the same validation pipeline as the IPN; whichever lands first wins and the
// other becomes an idempotent no-op.
func PaymentSuccess(c *fiber.Ctx) error {
	return PaymentIPN(c)
}

// PaymentFail handles the gateway's failure redirect
func PaymentFail(c *fiber.Ctx) error {
	payload := new(paymentService.WebhookPayload)
	if err := c.BodyParser(payload); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid payload!", nil)
	}

	result, err := paymentService.ApplyStatus(database.Database.Db, payload.TranID, courseModels.PaymentFailed, "")
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	if !result.AlreadyProcessed {
		notifyFailure(payload.TranID)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment marked as failed.", result.Payment)
}

// PaymentCancel handles the gateway's cancel redirect
func PaymentCancel(c *fiber.Ctx) error {
	payload := new(paymentService.WebhookPayload)
	if err := c.BodyParser(payload); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid payload!", nil)
	}

	result, err := paymentService.ApplyStatus(database.Database.Db, payload.TranID, courseModels.PaymentCancel, "")
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment cancelled.", result.Payment)
}

// GetPaymentStatus is the learner-facing status-check/reconciliation read
func GetPaymentStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	transactionID := c.Params("transaction_id")
	payment, err := paymentService.GetByTransactionID(database.Database.Db, transactionID)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	if payment.UserID != userID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment fetched successfully!", payment)
}

// ListReviewPayments lists bank-transfer payments awaiting verification (admin)
func ListReviewPayments(c *fiber.Ctx) error {
	payments, err := paymentService.ListReviewPayments(database.Database.Db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch payments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payments fetched successfully!", fiber.Map{
		"payments": payments,
		"total":    len(payments),
	})
}

// VerifyManualPayment records the admin decision on a bank-transfer payment
func VerifyManualPayment(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData := c.Locals("validatedManualVerification").(*struct {
		TransactionID string `json:"transaction_id"`
		Approved      *bool  `json:"approved"`
	})

	result, err := paymentService.VerifyManualPayment(database.Database.Db, reqData.TransactionID, *reqData.Approved, adminID)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	if *reqData.Approved {
		notifySuccess(reqData.TransactionID)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment approved and enrollment activated!", fiber.Map{
			"payment":    result.Payment,
			"enrollment": result.Enrollment,
		})
	}

	notifyFailure(reqData.TransactionID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment rejected.", fiber.Map{
		"payment":    result.Payment,
		"enrollment": result.Enrollment,
	})
}

// notifySuccess emails the learner after an activation. Best-effort.
func notifySuccess(transactionID string) {
	go func() {
		db := database.Database.Db

		payment, err := paymentService.GetByTransactionID(db, transactionID)
		if err != nil {
			return
		}

		var user models.User
		if err := db.Where("id = ?", payment.UserID).First(&user).Error; err != nil {
			return
		}
		var batch courseModels.Batch
		if err := db.Where("id = ?", payment.BatchID).First(&batch).Error; err != nil {
			return
		}

		enrollmentNo := ""
		if payment.EnrollmentID != nil {
			var enrollment courseModels.Enrollment
			if err := db.Where("id = ?", *payment.EnrollmentID).First(&enrollment).Error; err == nil && enrollment.EnrollmentNo != nil {
				enrollmentNo = *enrollment.EnrollmentNo
			}
		}

		utils.SendEnrollmentConfirmedEmail(user.Email, user.Name, batch.Title, enrollmentNo)
	}()
}

// notifyFailure emails the learner after a failed/rejected payment. Best-effort.
func notifyFailure(transactionID string) {
	go func() {
		db := database.Database.Db

		payment, err := paymentService.GetByTransactionID(db, transactionID)
		if err != nil {
			return
		}

		var user models.User
		if err := db.Where("id = ?", payment.UserID).First(&user).Error; err != nil {
			return
		}
		var batch courseModels.Batch
		if err := db.Where("id = ?", payment.BatchID).First(&batch).Error; err != nil {
			return
		}

		utils.SendPaymentFailedEmail(user.Email, user.Name, batch.Title)
	}()
}
