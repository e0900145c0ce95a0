package authRoutes

import (
	controllers "lms/controllers/auth"
	"lms/middleware"
	validators "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes sets up registration, login and account recovery routes
func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/register", validators.Register(), controllers.Register)
	authGroup.Post("/login", validators.Login(), controllers.Login)
	authGroup.Post("/refresh-token", validators.RefreshToken(), controllers.RefreshToken)
	authGroup.Post("/logout", middleware.JWTMiddleware, controllers.Logout)

	authGroup.Get("/profile", middleware.JWTMiddleware, controllers.GetProfile)
	authGroup.Post("/change-password", middleware.JWTMiddleware, validators.ChangePassword(), controllers.ChangePassword)

	// Email verification
	authGroup.Post("/verify-email", validators.VerifyEmail(), controllers.VerifyEmail)
	authGroup.Post("/resend-verification", validators.ResendVerification(), controllers.ResendVerification)

	// Password recovery
	authGroup.Post("/forgot-password", validators.ForgotPassword(), controllers.ForgotPassword)
	authGroup.Post("/reset-password", validators.ResetPassword(), controllers.ResetPassword)
}
