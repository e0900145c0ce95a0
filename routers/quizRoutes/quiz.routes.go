package quizRoutes

import (
	controllers "lms/controllers/quiz"
	"lms/middleware"
	validators "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
)

// SetupQuizRoutes sets up quiz authoring, listing and submission routes
func SetupQuizRoutes(app *fiber.App) {
	quizGroup := app.Group("/quizzes")

	// Teacher authoring
	quizGroup.Post("/", middleware.JWTMiddleware, middleware.RequireRole("teacher"), validators.CreateQuiz(), controllers.CreateQuiz)
	quizGroup.Get("/teaching", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.GetTeacherQuizzes)
	quizGroup.Put("/:id", middleware.JWTMiddleware, middleware.RequireRole("teacher"), validators.UpdateQuiz(), controllers.UpdateQuiz)
	quizGroup.Delete("/:id", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.DeleteQuiz)

	// Question management
	quizGroup.Post("/:id/questions", middleware.JWTMiddleware, middleware.RequireRole("teacher"), validators.AddQuestion(), controllers.AddQuestion)
	quizGroup.Put("/:id/questions/:questionId", middleware.JWTMiddleware, middleware.RequireRole("teacher"), validators.UpdateQuestion(), controllers.UpdateQuestion)
	quizGroup.Delete("/:id/questions/:questionId", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.RemoveQuestion)
	quizGroup.Get("/:id/submissions", middleware.JWTMiddleware, middleware.RequireRole("teacher"), controllers.GetQuizSubmissions)

	// Student
	quizGroup.Get("/assigned", middleware.JWTMiddleware, middleware.RequireRole("student"), controllers.GetStudentQuizzes)
	quizGroup.Post("/:id/submit", middleware.JWTMiddleware, middleware.RequireRole("student"), validators.SubmitQuiz(), controllers.SubmitQuiz)
	quizGroup.Get("/:id/result", middleware.JWTMiddleware, middleware.RequireRole("student"), controllers.GetSubmissionResult)

	quizGroup.Get("/:id", middleware.JWTMiddleware, controllers.GetQuizByID)
}
