package enrollmentController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	enrollmentService "lms/services/enrollment"
	"lms/services/gateway"
	paymentService "lms/services/payment"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// InitiateEnrollment reserves a seat and opens a gateway payment session.
// Repeated calls while a payment is unresolved return the original enrollment
// without creating a second payment.
func InitiateEnrollment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	batchID := c.Locals("batchID").(uint)

	result, err := enrollmentService.Initiate(database.Database.Db, userID, batchID)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	if result.IsExisting {
		// Idempotent hit: reuse the open payment attempt instead of creating
		// another one; only a fresh gateway session is issued. A terminal prior
		// attempt (expired or cancelled) gets a brand-new attempt for the same
		// seat; a REVIEW payment stays with the admin and gets no redirect.
		redirectURL := ""
		var prior *courseModels.Payment
		if result.Enrollment.TransactionID != "" {
			prior, _ = paymentService.GetByTransactionID(database.Database.Db, result.Enrollment.TransactionID)
		}
		switch {
		case prior != nil && prior.Status == courseModels.PaymentPending:
			redirectURL, _ = paymentService.NewSession(&gateway.SessionRequest{
				TransactionID:  prior.TransactionID,
				Amount:         prior.Amount,
				Currency:       prior.Currency,
				ProductName:    result.Batch.Title,
				CustomerName:   user.Name,
				CustomerEmail:  user.Email,
				CustomerMobile: user.Mobile,
			})
		case prior == nil || prior.IsTerminal():
			_, freshURL, err := paymentService.RecordGatewayAttempt(database.Database.Db, &user, result.Enrollment, result.Batch)
			if err != nil {
				return middleware.AppErrorResponse(c, err)
			}
			redirectURL = freshURL
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment already in progress!", fiber.Map{
			"enrollment":   result.Enrollment,
			"is_existing":  true,
			"redirect_url": redirectURL,
		})
	}

	payment, redirectURL, err := paymentService.RecordGatewayAttempt(database.Database.Db, &user, result.Enrollment, result.Batch)
	if err != nil {
		// The pending payment row survives for the status-check path
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrollment initiated successfully!", fiber.Map{
		"enrollment":   result.Enrollment,
		"payment":      payment,
		"is_existing":  false,
		"redirect_url": redirectURL,
	})
}

// EnrollWithManualPayment submits a bank-transfer enrollment for admin review
func EnrollWithManualPayment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	batchID := c.Locals("batchID").(uint)
	reqData := c.Locals("validatedManualEnrollment").(*struct {
		SenderAccount string `json:"sender_account"`
		BankReference string `json:"bank_reference"`
	})

	enrollment, payment, err := enrollmentService.EnrollWithManualPayment(database.Database.Db, userID, batchID, enrollmentService.ManualEvidence{
		SenderAccount: reqData.SenderAccount,
		BankReference: reqData.BankReference,
	})
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	var batch courseModels.Batch
	database.Database.Db.Where("id = ?", batchID).First(&batch)
	go utils.SendPaymentUnderReviewEmail(user.Email, user.Name, batch.Title, payment.TransactionID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrollment submitted for verification!", fiber.Map{
		"enrollment":     enrollment,
		"payment":        payment,
		"transaction_id": payment.TransactionID,
	})
}

// GetUserEnrollments lists the learner's enrollments
func GetUserEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollments, err := enrollmentService.GetUserEnrollments(database.Database.Db, userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": enrollments,
		"total":       len(enrollments),
	})
}

// GetEnrollmentDetails returns one enrollment owned by the learner
func GetEnrollmentDetails(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(uint)

	enrollment, err := enrollmentService.GetEnrollmentDetails(database.Database.Db, userID, enrollmentID)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment fetched successfully!", enrollment)
}

// SuspendEnrollment suspends an active enrollment (admin)
func SuspendEnrollment(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)

	enrollment, err := enrollmentService.Suspend(database.Database.Db, enrollmentID)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment suspended!", enrollment)
}

// IssueCertificate issues a certificate for a fully completed enrollment (admin)
func IssueCertificate(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(uint)

	enrollment, err := enrollmentService.IssueCertificate(database.Database.Db, enrollmentID)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate issued successfully!", enrollment)
}
