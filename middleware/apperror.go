package middleware

import (
	"log"

	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// AppErrorResponse maps a service-layer error onto the JSON envelope.
// Integrity violations are logged in full but answered with a generic message.
func AppErrorResponse(c *fiber.Ctx, err error) error {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		log.Printf("[ERROR] unexpected: %v", err)
		return JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong!", nil)
	}

	switch appErr.Code {
	case utils.CodeNotFound:
		return JsonResponse(c, fiber.StatusNotFound, false, appErr.Message, nil)
	case utils.CodeConflict:
		return JsonResponse(c, fiber.StatusConflict, false, appErr.Message, nil)
	case utils.CodeValidation:
		return JsonResponse(c, fiber.StatusBadRequest, false, appErr.Message, nil)
	case utils.CodeIntegrityViolation:
		log.Printf("[SECURITY] integrity violation: %s", appErr.Message)
		return JsonResponse(c, fiber.StatusBadRequest, false, "Payment verification failed!", nil)
	case utils.CodeExternalDependency:
		return JsonResponse(c, fiber.StatusBadGateway, false, appErr.Message, nil)
	default:
		return JsonResponse(c, fiber.StatusInternalServerError, false, appErr.Message, nil)
	}
}
