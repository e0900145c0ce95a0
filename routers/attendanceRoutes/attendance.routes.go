package attendanceRoutes

import (
	controllers "lms/controllers/attendance"
	"lms/middleware"
	validators "lms/validators/attendance"

	"github.com/gofiber/fiber/v2"
)

// SetupAttendanceRoutes sets up face-gated check-in and history routes
func SetupAttendanceRoutes(app *fiber.App) {
	attendanceGroup := app.Group("/attendance")

	attendanceGroup.Post("/mark", middleware.JWTMiddleware, middleware.RequireRole("student"), validators.MarkAttendance(), controllers.MarkAttendance)
	attendanceGroup.Get("/my", middleware.JWTMiddleware, middleware.RequireRole("student"), controllers.GetStudentAttendance)

	attendanceGroup.Get("/history", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.GetTeacherAttendanceHistory)
	attendanceGroup.Get("/course/:courseId", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.GetCourseAttendance)
}
