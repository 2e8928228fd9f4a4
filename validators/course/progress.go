package courseValidator

import (
	"strconv"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// ============ Progress Validators ============

// LessonProgress validates a lesson playback update
func LessonProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lessonID, err := strconv.Atoi(c.Params("lesson_id"))
		if err != nil || lessonID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid lesson ID!", nil)
		}

		reqData := new(struct {
			EnrollmentID uint `json:"enrollment_id"`
			WatchSeconds int  `json:"watch_seconds"`
			LastPosition int  `json:"last_position"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.EnrollmentID == 0 {
			errors["enrollment_id"] = "Enrollment ID is required!"
		}
		if reqData.WatchSeconds < 0 {
			errors["watch_seconds"] = "Watch time must not be negative!"
		}
		if reqData.LastPosition < 0 {
			errors["last_position"] = "Playback position must not be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("lessonID", uint(lessonID))
		c.Locals("validatedLessonProgress", reqData)
		return c.Next()
	}
}

// LessonComplete validates a direct lesson completion request
func LessonComplete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lessonID, err := strconv.Atoi(c.Params("lesson_id"))
		if err != nil || lessonID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid lesson ID!", nil)
		}

		reqData := new(struct {
			EnrollmentID uint `json:"enrollment_id"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.EnrollmentID == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"enrollment_id": "Enrollment ID is required!",
			})
		}

		c.Locals("lessonID", uint(lessonID))
		c.Locals("validatedLessonComplete", reqData)
		return c.Next()
	}
}
