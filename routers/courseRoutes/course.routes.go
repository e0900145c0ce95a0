package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up catalog, course management, scheduling and
// enrollment routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/courses")

	// Catalog
	courseGroup.Get("/", middleware.JWTMiddleware, controllers.GetCourses)

	// Student views (fixed paths before the :id wildcard)
	courseGroup.Get("/enrolled", middleware.JWTMiddleware, middleware.RequireRole("student"), controllers.GetStudentCourses)
	courseGroup.Get("/schedule", middleware.JWTMiddleware, middleware.RequireRole("student"), controllers.GetStudentClassSchedule)
	courseGroup.Get("/today", middleware.JWTMiddleware, middleware.RequireRole("student"), controllers.GetTodayClasses)

	// Teacher course management
	courseGroup.Get("/teaching", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.GetTeacherCourses)
	courseGroup.Post("/", middleware.JWTMiddleware, middleware.RequireRole("teacher"), validators.CreateCourse(), controllers.CreateCourse)
	courseGroup.Put("/:id", middleware.JWTMiddleware, middleware.RequireRole("teacher"), validators.UpdateCourse(), controllers.UpdateCourse)
	courseGroup.Delete("/:id", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.DeleteCourse)

	// Scheduling
	courseGroup.Post("/:id/schedules", middleware.JWTMiddleware, middleware.RequireRole("teacher"), validators.AddSchedule(), controllers.AddScheduleToCourse)
	courseGroup.Delete("/:id/schedules/:scheduleId", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.RemoveSchedule)

	// Enrollment
	courseGroup.Get("/enrollments", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.ListEnrollments)
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, middleware.RequireRole("student"), controllers.EnrollInCourse)
	courseGroup.Post("/:id/drop", middleware.JWTMiddleware, middleware.RequireRole("student"), controllers.DropCourse)
	courseGroup.Get("/:id/enrollments", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.GetCourseEnrollments)

	courseGroup.Get("/:id", middleware.JWTMiddleware, controllers.GetCourseByID)
}
