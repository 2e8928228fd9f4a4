package courseValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// ============ Payment Validators ============

// ManualVerification validates an admin decision on a bank-transfer payment
func ManualVerification() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			TransactionID string `json:"transaction_id"`
			Approved      *bool  `json:"approved"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.TransactionID = strings.TrimSpace(reqData.TransactionID)

		if reqData.TransactionID == "" {
			errors["transaction_id"] = "Transaction ID is required!"
		}
		if reqData.Approved == nil {
			errors["approved"] = "Approval decision is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedManualVerification", reqData)
		return c.Next()
	}
}
