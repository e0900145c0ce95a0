package authValidator

import (
	"strings"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Role      string `json:"role" validate:"omitempty,oneof=student teacher"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"omitempty,email"`
	RollNumber string `json:"rollNumber"`
	Password   string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	UserID      uint   `json:"userId" validate:"required"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type VerifyEmailRequest struct {
	UserID uint   `json:"userId" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Register validates the multipart signup request. The face image is part of
// the same form and is checked in the controller.
func Register() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := &RegisterRequest{
			FirstName: strings.TrimSpace(c.FormValue("firstName")),
			LastName:  strings.TrimSpace(c.FormValue("lastName")),
			Email:     strings.ToLower(strings.TrimSpace(c.FormValue("email"))),
			Password:  c.FormValue("password"),
			Role:      strings.TrimSpace(c.FormValue("role")),
		}
		if reqData.Role == "" {
			reqData.Role = "student"
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedRegister", reqData)
		return c.Next()
	}
}

// Login accepts either a JSON body or a multipart form. The multipart path
// may carry a face image, which stands in for the password.
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LoginRequest)

		if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
			reqData.Email = c.FormValue("email")
			reqData.RollNumber = c.FormValue("rollNumber")
			reqData.Password = c.FormValue("password")
		} else if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
		reqData.RollNumber = strings.TrimSpace(reqData.RollNumber)

		if reqData.Email == "" && reqData.RollNumber == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"email": "Email or roll number is required!",
			})
		}
		if reqData.Password == "" && !hasFaceImage(c) {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"password": "Password or face image is required!",
			})
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals("validatedLogin", reqData)
		return c.Next()
	}
}

func hasFaceImage(c *fiber.Ctx) bool {
	if _, err := c.FormFile("faceImage"); err == nil {
		return true
	}
	_, err := c.FormFile("image")
	return err == nil
}

func RefreshToken() fiber.Handler {
	return jsonBodyValidator("validatedRefresh", func() any { return new(RefreshTokenRequest) })
}

func ForgotPassword() fiber.Handler {
	return jsonBodyValidator("validatedForgotPassword", func() any { return new(ForgotPasswordRequest) })
}

func ResetPassword() fiber.Handler {
	return jsonBodyValidator("validatedResetPassword", func() any { return new(ResetPasswordRequest) })
}

func ChangePassword() fiber.Handler {
	return jsonBodyValidator("validatedChangePassword", func() any { return new(ChangePasswordRequest) })
}

func VerifyEmail() fiber.Handler {
	return jsonBodyValidator("validatedVerifyEmail", func() any { return new(VerifyEmailRequest) })
}

func ResendVerification() fiber.Handler {
	return jsonBodyValidator("validatedResendVerification", func() any { return new(ResendVerificationRequest) })
}

func jsonBodyValidator(localsKey string, newReq func() any) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := newReq()

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, fieldErrors(err))
		}

		c.Locals(localsKey, reqData)
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
		case "email":
			errors[field] = "Must be a valid email address!"
		case "min":
			errors[field] = "Must be at least " + fe.Param() + " characters long!"
		case "max":
			errors[field] = "Must be at most " + fe.Param() + " characters long!"
		case "oneof":
			errors[field] = "Must be one of: " + fe.Param()
		default:
			errors[field] = "Invalid value!"
		}
	}

	return errors
}
