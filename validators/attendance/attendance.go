package attendanceValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

type MarkAttendanceRequest struct {
	CourseID  uint
	SessionID string
}

// MarkAttendance validates the multipart check-in request. Clients are
// inconsistent about field casing, so both spellings are accepted for every
// field. The face image itself is checked in the controller.
func MarkAttendance() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseIDStr := strings.TrimSpace(firstNonEmpty(
			c.FormValue("courseId"),
			c.FormValue("course_id"),
		))
		sessionID := strings.TrimSpace(firstNonEmpty(
			c.FormValue("scheduleId"),
			c.FormValue("schedule_id"),
			c.FormValue("id"),
		))

		errors := make(map[string]string)

		courseID, err := strconv.Atoi(courseIDStr)
		if courseIDStr == "" {
			errors["courseId"] = "Course ID is required!"
		} else if err != nil || courseID <= 0 {
			errors["courseId"] = "Invalid course ID!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAttendance", &MarkAttendanceRequest{
			CourseID:  uint(courseID),
			SessionID: sessionID,
		})
		return c.Next()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
