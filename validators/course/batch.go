package courseValidator

import (
	"strconv"
	"strings"

	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// ============ Batch Validators ============

// BatchStatus validates an admin batch lifecycle update
func BatchStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		batchID, err := strconv.Atoi(c.Params("id"))
		if err != nil || batchID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid batch ID!", nil)
		}

		reqData := new(struct {
			Status string `json:"status"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Status = strings.ToUpper(strings.TrimSpace(reqData.Status))

		switch reqData.Status {
		case courseModels.BatchUpcoming, courseModels.BatchRunning, courseModels.BatchCompleted:
		default:
			return middleware.ValidationErrorResponse(c, map[string]string{
				"status": "Status must be one of UPCOMING, RUNNING, COMPLETED!",
			})
		}

		c.Locals("batchID", uint(batchID))
		c.Locals("validatedBatchStatus", reqData)
		return c.Next()
	}
}
