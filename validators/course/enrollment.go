package courseValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// ============ Enrollment Validators ============

// EnrollBatch validates the batch id param for enrollment initiation
func EnrollBatch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		batchID, err := strconv.Atoi(c.Params("id"))
		if err != nil || batchID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid batch ID!", nil)
		}

		c.Locals("batchID", uint(batchID))
		return c.Next()
	}
}

// ManualEnrollment validates a bank-transfer enrollment submission
func ManualEnrollment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		batchID, err := strconv.Atoi(c.Params("id"))
		if err != nil || batchID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid batch ID!", nil)
		}

		reqData := new(struct {
			SenderAccount string `json:"sender_account"`
			BankReference string `json:"bank_reference"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.SenderAccount = strings.TrimSpace(reqData.SenderAccount)
		reqData.BankReference = strings.TrimSpace(reqData.BankReference)

		if reqData.SenderAccount == "" {
			errors["sender_account"] = "Sender account is required!"
		} else if len(reqData.SenderAccount) < 4 {
			errors["sender_account"] = "Sender account must be at least 4 characters long!"
		}

		if reqData.BankReference == "" {
			errors["bank_reference"] = "Bank reference is required!"
		} else if len(reqData.BankReference) < 4 {
			errors["bank_reference"] = "Bank reference must be at least 4 characters long!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("batchID", uint(batchID))
		c.Locals("validatedManualEnrollment", reqData)
		return c.Next()
	}
}

// EnrollmentParam validates the enrollment id param
func EnrollmentParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		enrollmentID, err := strconv.Atoi(c.Params("id"))
		if err != nil || enrollmentID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid enrollment ID!", nil)
		}

		c.Locals("enrollmentID", uint(enrollmentID))
		return c.Next()
	}
}
