package userRoutes

import (
	controllers "lms/controllers/user"
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes sets up profile management routes
func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/user")

	userGroup.Put("/profile", middleware.JWTMiddleware, controllers.UpdateProfile)
	userGroup.Post("/profile-picture", middleware.JWTMiddleware, controllers.UpdateProfilePicture)
}
