package batchController

import (
	"lms/database"
	"lms/middleware"
	batchService "lms/services/batch"

	"github.com/gofiber/fiber/v2"
)

// UpdateBatchStatus moves a batch along its lifecycle (admin)
func UpdateBatchStatus(c *fiber.Ctx) error {
	batchID := c.Locals("batchID").(uint)
	reqData := c.Locals("validatedBatchStatus").(*struct {
		Status string `json:"status"`
	})

	batch, err := batchService.UpdateStatus(database.Database.Db, batchID, reqData.Status)
	if err != nil {
		return middleware.AppErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Batch status updated!", batch)
}
