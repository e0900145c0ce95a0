package quizValidator

import (
	"strconv"
	"strings"
	"time"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

const (
	MinQuestions = 1
	MaxQuestions = 50
)

type QuestionInput struct {
	QuestionText       string   `json:"questionText" validate:"required,min=3"`
	Options            []string `json:"options" validate:"required,min=2,max=6,dive,required"`
	CorrectOptionIndex int      `json:"correctOptionIndex" validate:"min=0"`
}

type CreateQuizRequest struct {
	Title            string          `json:"title" validate:"required,min=3,max=150"`
	CourseID         uint            `json:"courseId" validate:"required"`
	TimeLimitMinutes int             `json:"timeLimitMinutes" validate:"omitempty,min=1,max=480"`
	MarksPerQuestion float64         `json:"marksPerQuestion" validate:"omitempty,gt=0"`
	Deadline         time.Time       `json:"deadline" validate:"required"`
	Status           string          `json:"status" validate:"omitempty,oneof=draft published"`
	Questions        []QuestionInput `json:"questions" validate:"omitempty,dive"`
}

type UpdateQuizRequest struct {
	Title            string     `json:"title" validate:"omitempty,min=3,max=150"`
	TimeLimitMinutes int        `json:"timeLimitMinutes" validate:"omitempty,min=1,max=480"`
	MarksPerQuestion float64    `json:"marksPerQuestion" validate:"omitempty,gt=0"`
	Deadline         *time.Time `json:"deadline"`
	Status           string     `json:"status" validate:"omitempty,oneof=draft published closed"`
}

type AddQuestionRequest = QuestionInput

type UpdateQuestionRequest struct {
	QuestionText       string   `json:"questionText" validate:"omitempty,min=3"`
	Options            []string `json:"options" validate:"omitempty,min=2,max=6,dive,required"`
	CorrectOptionIndex *int     `json:"correctOptionIndex" validate:"omitempty,min=0"`
}

type AnswerInput struct {
	QuestionID    uint `json:"questionId" validate:"required"`
	SelectedIndex int  `json:"selectedIndex" validate:"min=0"`
}

type SubmitQuizRequest struct {
	Answers []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

func validateQuestion(prefix string, q QuestionInput, errors map[string]string) {
	if q.CorrectOptionIndex >= len(q.Options) {
		errors[prefix+"correctOptionIndex"] = "Correct option index is out of range!"
	}
}

func CreateQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateQuizRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Title = strings.TrimSpace(reqData.Title)

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for field, msg := range fieldErrors(err) {
				errors[field] = msg
			}
		}
		if len(reqData.Questions) > MaxQuestions {
			errors["questions"] = "A quiz can have at most " + strconv.Itoa(MaxQuestions) + " questions!"
		}
		for i, q := range reqData.Questions {
			validateQuestion("questions["+strconv.Itoa(i)+"].", q, errors)
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuiz", reqData)
		return c.Next()
	}
}

func UpdateQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateQuizRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Title = strings.TrimSpace(reqData.Title)

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedQuizUpdate", reqData)
		return c.Next()
	}
}

func AddQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AddQuestionRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for field, msg := range fieldErrors(err) {
				errors[field] = msg
			}
		}
		validateQuestion("", *reqData, errors)

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuestion", reqData)
		return c.Next()
	}
}

func UpdateQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateQuestionRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if err := validate.Struct(reqData); err != nil {
			for field, msg := range fieldErrors(err) {
				errors[field] = msg
			}
		}
		if reqData.CorrectOptionIndex != nil && len(reqData.Options) > 0 &&
			*reqData.CorrectOptionIndex >= len(reqData.Options) {
			errors["correctOptionIndex"] = "Correct option index is out of range!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuestionUpdate", reqData)
		return c.Next()
	}
}

func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitQuizRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedSubmission", reqData)
		return c.Next()
	}
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
		case "gt":
			errors[field] = "Must be greater than " + fe.Param() + "!"
		case "oneof":
			errors[field] = "Must be one of: " + fe.Param()
		default:
			errors[field] = "Invalid value!"
		}
	}

	return errors
}
