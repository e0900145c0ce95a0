package courseValidator

import (
	"strconv"
	"strings"

	"lms/middleware"
	"lms/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type ScheduleInput struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=7"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Topic     string `json:"topic"`
}

type CreateCourseRequest struct {
	Name          string          `json:"name" validate:"required,min=3,max=150"`
	Description   string          `json:"description"`
	Categories    []string        `json:"categories"`
	Curriculum    string          `json:"curriculum"`
	TotalSessions int             `json:"totalSessions" validate:"omitempty,min=1"`
	Schedules     []ScheduleInput `json:"schedules" validate:"required,min=1,dive"`
}

type UpdateCourseRequest struct {
	Name          string           `json:"name" validate:"omitempty,min=3,max=150"`
	Description   *string          `json:"description"`
	Categories    []string         `json:"categories"`
	Curriculum    *string          `json:"curriculum"`
	TotalSessions int              `json:"totalSessions" validate:"omitempty,min=1"`
	Schedules     *[]ScheduleInput `json:"schedules" validate:"omitempty,dive"`
}

type AddScheduleRequest struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=7"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Topic     string `json:"topic"`
}

type CourseFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Teacher  uint   `query:"teacher"`
	Day      int    `query:"day"`  // 0-7
	From     string `query:"from"` // HH:MM, sessions ending after this
	To       string `query:"to"`   // HH:MM, sessions starting before this
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`

	DaySet bool `query:"-"`
}

// validateScheduleTimes checks the time strings parse and form a non-empty
// forward interval
func validateScheduleTimes(prefix string, s ScheduleInput, errors map[string]string) {
	start, errStart := utils.ToMinutes(s.StartTime)
	if errStart != nil {
		errors[prefix+"startTime"] = "Start time must be HH:MM or HH:MM:SS!"
	}
	end, errEnd := utils.ToMinutes(s.EndTime)
	if errEnd != nil {
		errors[prefix+"endTime"] = "End time must be HH:MM or HH:MM:SS!"
	}
	if errStart == nil && errEnd == nil && start >= end {
		errors[prefix+"endTime"] = "End time must be after start time!"
	}
}

func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateCourseRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Name = strings.TrimSpace(reqData.Name)

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for field, msg := range fieldErrors(err) {
				errors[field] = msg
			}
		}
		for i, s := range reqData.Schedules {
			validateScheduleTimes("schedules["+strconv.Itoa(i)+"].", s, errors)
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := requireIDParam(c); err != nil {
			return err
		}

		reqData := new(UpdateCourseRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Name = strings.TrimSpace(reqData.Name)

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for field, msg := range fieldErrors(err) {
				errors[field] = msg
			}
		}
		if reqData.Schedules != nil {
			for i, s := range *reqData.Schedules {
				validateScheduleTimes("schedules["+strconv.Itoa(i)+"].", s, errors)
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourseUpdate", reqData)
		return c.Next()
	}
}

func AddSchedule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := requireIDParam(c); err != nil {
			return err
		}

		reqData := new(AddScheduleRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for field, msg := range fieldErrors(err) {
				errors[field] = msg
			}
		}
		validateScheduleTimes("", ScheduleInput(*reqData), errors)

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSchedule", reqData)
		return c.Next()
	}
}

// ParseFilter reads catalog filters from the query string with paging defaults
func ParseFilter(c *fiber.Ctx) *CourseFilter {
	filter := new(CourseFilter)
	if err := c.QueryParser(filter); err != nil {
		filter = new(CourseFilter)
	}
	filter.DaySet = c.Query("day") != ""
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return filter
}

func requireIDParam(c *fiber.Ctx) error {
	idStr := strings.TrimSpace(c.Params("id"))
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID!", nil)
	}
	return nil
}

func fieldErrors(err error) map[string]string {
	errors := make(map[string]string)

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["request"] = "Invalid request!"
		return errors
	}

	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			errors[field] = "This field is required!"
		case "min":
			errors[field] = "Value is below the minimum of " + fe.Param() + "!"
		case "max":
			errors[field] = "Value is above the maximum of " + fe.Param() + "!"
		default:
			errors[field] = "Invalid value!"
		}
	}

	return errors
}
