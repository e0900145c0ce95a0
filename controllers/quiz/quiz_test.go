package quizController

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"lms/config"
	"lms/database"
	"lms/models"
	quizValidator "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizSubmission{},
	))

	database.Database = database.DbInstance{Db: db}
	config.AppConfig = &config.Config{SaltRound: 4}

	return db
}

func newQuizApp(userID uint, role string) *fiber.App {
	app := fiber.New()
	authStub := func(c *fiber.Ctx) error {
		c.Locals("userId", userID)
		c.Locals("role", role)
		return c.Next()
	}
	app.Post("/quizzes/:id/submit", authStub, quizValidator.SubmitQuiz(), SubmitQuiz)
	app.Get("/quizzes/:id", authStub, GetQuizByID)
	return app
}

// seedQuiz creates a published 3-question quiz worth 2 marks per question
// and an enrolled student
func seedQuiz(t *testing.T, db *gorm.DB) (models.User, models.Quiz, []models.QuizQuestion) {
	t.Helper()

	teacher := models.User{FirstName: "Ada", Email: "teacher@example.com", Password: "x", Role: "teacher"}
	require.NoError(t, db.Create(&teacher).Error)

	course := models.Course{Name: "Algebra", TeacherID: teacher.ID}
	require.NoError(t, db.Create(&course).Error)

	student := models.User{FirstName: "Sam", Email: "sam@example.com", Password: "x", Role: "student"}
	require.NoError(t, db.Create(&student).Error)

	require.NoError(t, db.Create(&models.Enrollment{
		StudentID: student.ID,
		CourseID:  course.ID,
		Status:    "active",
	}).Error)

	quiz := models.Quiz{
		Title:            "Midterm",
		CourseID:         course.ID,
		MarksPerQuestion: 2,
		TotalQuestions:   3,
		TotalMarks:       6,
		Deadline:         time.Now().Add(24 * time.Hour),
		Status:           "published",
		CreatedBy:        teacher.ID,
	}
	require.NoError(t, db.Create(&quiz).Error)

	options, _ := json.Marshal([]string{"A", "B", "C", "D"})
	questions := make([]models.QuizQuestion, 0, 3)
	for i := 0; i < 3; i++ {
		question := models.QuizQuestion{
			QuizID:             quiz.ID,
			QuestionText:       fmt.Sprintf("Question %d", i+1),
			Options:            options,
			CorrectOptionIndex: i, // answers are 0, 1, 2
			OrderIndex:         i,
		}
		require.NoError(t, db.Create(&question).Error)
		questions = append(questions, question)
	}

	return student, quiz, questions
}

func postJSON(t *testing.T, app *fiber.App, url string, payload interface{}) *fiber.Map {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed fiber.Map
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	parsed["_status"] = resp.StatusCode
	return &parsed
}

func TestSubmitQuizScoring(t *testing.T) {
	db := setupTestDB(t)
	student, quiz, questions := seedQuiz(t, db)

	app := newQuizApp(student.ID, "student")

	// Two correct answers out of three
	payload := fiber.Map{
		"answers": []fiber.Map{
			{"questionId": questions[0].ID, "selectedIndex": 0},
			{"questionId": questions[1].ID, "selectedIndex": 1},
			{"questionId": questions[2].ID, "selectedIndex": 0},
		},
	}

	result := postJSON(t, app, fmt.Sprintf("/quizzes/%d/submit", quiz.ID), payload)
	assert.Equal(t, fiber.StatusCreated, (*result)["_status"])

	var submission models.QuizSubmission
	require.NoError(t, db.Where("quiz_id = ? AND student_id = ?", quiz.ID, student.ID).
		First(&submission).Error)
	assert.Equal(t, 4.0, submission.Score)
}

func TestSubmitQuizOnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	student, quiz, questions := seedQuiz(t, db)

	app := newQuizApp(student.ID, "student")
	payload := fiber.Map{
		"answers": []fiber.Map{
			{"questionId": questions[0].ID, "selectedIndex": 0},
		},
	}
	url := fmt.Sprintf("/quizzes/%d/submit", quiz.ID)

	result := postJSON(t, app, url, payload)
	assert.Equal(t, fiber.StatusCreated, (*result)["_status"])

	result = postJSON(t, app, url, payload)
	assert.Equal(t, fiber.StatusConflict, (*result)["_status"])

	var count int64
	db.Model(&models.QuizSubmission{}).Where("quiz_id = ?", quiz.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubmitQuizPastDeadline(t *testing.T) {
	db := setupTestDB(t)
	student, quiz, questions := seedQuiz(t, db)

	require.NoError(t, db.Model(&quiz).Update("deadline", time.Now().Add(-time.Hour)).Error)

	app := newQuizApp(student.ID, "student")
	payload := fiber.Map{
		"answers": []fiber.Map{
			{"questionId": questions[0].ID, "selectedIndex": 0},
		},
	}

	result := postJSON(t, app, fmt.Sprintf("/quizzes/%d/submit", quiz.ID), payload)
	assert.Equal(t, fiber.StatusConflict, (*result)["_status"])
}

func TestSubmitQuizUnknownQuestionIgnored(t *testing.T) {
	db := setupTestDB(t)
	student, quiz, questions := seedQuiz(t, db)

	app := newQuizApp(student.ID, "student")
	payload := fiber.Map{
		"answers": []fiber.Map{
			{"questionId": questions[0].ID, "selectedIndex": 0},
			{"questionId": 9999, "selectedIndex": 1},
		},
	}

	result := postJSON(t, app, fmt.Sprintf("/quizzes/%d/submit", quiz.ID), payload)
	assert.Equal(t, fiber.StatusCreated, (*result)["_status"])

	var submission models.QuizSubmission
	require.NoError(t, db.Where("quiz_id = ?", quiz.ID).First(&submission).Error)
	assert.Equal(t, 2.0, submission.Score)
}

func TestStudentQuizViewHidesAnswers(t *testing.T) {
	db := setupTestDB(t)
	student, quiz, _ := seedQuiz(t, db)

	app := newQuizApp(student.ID, "student")

	req := httptest.NewRequest("GET", fmt.Sprintf("/quizzes/%d", quiz.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var parsed struct {
		Data struct {
			Questions []map[string]interface{} `json:"questions"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.Data.Questions)
	for _, q := range parsed.Data.Questions {
		_, hasAnswer := q["correctOptionIndex"]
		assert.False(t, hasAnswer)
	}
}
