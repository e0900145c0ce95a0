package dashboardRoutes

import (
	dashboard "lms/controllers/dashboard"
	lecture "lms/controllers/lecture"
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupDashboardRoutes sets up dashboard and lecture routes
func SetupDashboardRoutes(app *fiber.App) {
	dashGroup := app.Group("/dashboard")

	dashGroup.Get("/teacher", middleware.JWTMiddleware, middleware.RequireRole("teacher"), dashboard.GetTeacherStats)
	dashGroup.Get("/student", middleware.JWTMiddleware, middleware.RequireRole("student"), dashboard.GetStudentDashboard)
	dashGroup.Post("/verify-face", middleware.JWTMiddleware, middleware.RequireRole("teacher"), dashboard.VerifyTeacherFace)

	lectureGroup := app.Group("/lecture")
	lectureGroup.Post("/start", middleware.JWTMiddleware, middleware.RequireRole("teacher"), lecture.StartLecture)
}
