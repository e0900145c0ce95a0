package attendanceController

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/config"
	"lms/database"
	"lms/models"
	attendanceValidator "lms/validators/attendance"

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
		&models.CourseSchedule{},
		&models.Enrollment{},
		&models.Attendance{},
	))

	database.Database = database.DbInstance{Db: db}
	config.AppConfig = &config.Config{
		MeetLinkBase: "https://meet.jit.si",
		SaltRound:    4,
	}

	return db
}

// fakeFaceService answers every verify call with a fixed match result
func fakeFaceService(t *testing.T, isMatch bool, similarity float64) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"is_match":   isMatch,
			"similarity": similarity,
			"confidence": 0.95,
		})
	}))
	t.Cleanup(server.Close)

	config.AppConfig.FaceServiceURL = server.URL
	return server
}

func newAttendanceApp(studentID uint) *fiber.App {
	app := fiber.New()
	authStub := func(c *fiber.Ctx) error {
		c.Locals("userId", studentID)
		c.Locals("role", "student")
		return c.Next()
	}
	app.Post("/attendance/mark", authStub, attendanceValidator.MarkAttendance(), MarkAttendance)
	return app
}

func markRequest(t *testing.T, courseID uint, sessionID string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("courseId", fmt.Sprintf("%d", courseID)))
	if sessionID != "" {
		require.NoError(t, writer.WriteField("scheduleId", sessionID))
	}
	part, err := writer.CreateFormFile("faceImage", "capture.jpg")
	require.NoError(t, err)
	part.Write([]byte("not-a-real-jpeg"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/attendance/mark", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func seedEnrolledStudent(t *testing.T, db *gorm.DB) (models.User, models.Course, models.CourseSchedule) {
	t.Helper()

	teacher := models.User{FirstName: "Ada", Email: "teacher@example.com", Password: "x", Role: "teacher"}
	require.NoError(t, db.Create(&teacher).Error)

	course := models.Course{Name: "Algebra", TeacherID: teacher.ID}
	require.NoError(t, db.Create(&course).Error)

	schedule := models.CourseSchedule{
		CourseID:  course.ID,
		DayOfWeek: 1,
		StartTime: "09:00:00",
		EndTime:   "10:00:00",
		MeetLink:  "https://meet.jit.si/LMS-Class-existing",
	}
	require.NoError(t, db.Create(&schedule).Error)

	embedding, _ := json.Marshal([]float64{0.1, 0.2, 0.3})
	student := models.User{
		FirstName:     "Sam",
		Email:         "sam@example.com",
		Password:      "x",
		Role:          "student",
		FaceEmbedding: embedding,
	}
	require.NoError(t, db.Create(&student).Error)

	require.NoError(t, db.Create(&models.Enrollment{
		StudentID: student.ID,
		CourseID:  course.ID,
		Status:    "active",
	}).Error)

	return student, course, schedule
}

func TestMarkAttendanceIdempotent(t *testing.T) {
	db := setupTestDB(t)
	fakeFaceService(t, true, 0.92)
	student, course, schedule := seedEnrolledStudent(t, db)

	app := newAttendanceApp(student.ID)
	sessionID := fmt.Sprintf("weekly-%d", schedule.ID)

	resp, err := app.Test(markRequest(t, course.ID, sessionID), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Marking again returns the existing record instead of a duplicate
	resp, err = app.Test(markRequest(t, course.ID, sessionID), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&models.Attendance{}).
		Where("student_id = ? AND course_id = ?", student.ID, course.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestMarkAttendanceFaceMismatch(t *testing.T) {
	db := setupTestDB(t)
	fakeFaceService(t, false, 0.21)
	student, course, schedule := seedEnrolledStudent(t, db)

	app := newAttendanceApp(student.ID)

	resp, err := app.Test(markRequest(t, course.ID, fmt.Sprintf("weekly-%d", schedule.ID)), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var count int64
	db.Model(&models.Attendance{}).Where("student_id = ?", student.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestMarkAttendanceBelowThreshold(t *testing.T) {
	db := setupTestDB(t)
	// The service says match but similarity is under the acceptance threshold
	fakeFaceService(t, true, 0.45)
	student, course, schedule := seedEnrolledStudent(t, db)

	app := newAttendanceApp(student.ID)

	resp, err := app.Test(markRequest(t, course.ID, fmt.Sprintf("weekly-%d", schedule.ID)), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMarkAttendanceServiceRejectsCapture(t *testing.T) {
	db := setupTestDB(t)
	student, course, schedule := seedEnrolledStudent(t, db)

	// The service could not process the capture at all; treated the same as
	// a failed match
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "no face found in image",
		})
	}))
	t.Cleanup(server.Close)
	config.AppConfig.FaceServiceURL = server.URL

	app := newAttendanceApp(student.ID)

	resp, err := app.Test(markRequest(t, course.ID, fmt.Sprintf("weekly-%d", schedule.ID)), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var count int64
	db.Model(&models.Attendance{}).Where("student_id = ?", student.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestMarkAttendanceNotEnrolled(t *testing.T) {
	db := setupTestDB(t)
	fakeFaceService(t, true, 0.92)
	_, course, _ := seedEnrolledStudent(t, db)

	embedding, _ := json.Marshal([]float64{0.4, 0.5, 0.6})
	outsider := models.User{
		FirstName:     "Out",
		Email:         "outsider@example.com",
		Password:      "x",
		Role:          "student",
		FaceEmbedding: embedding,
	}
	require.NoError(t, db.Create(&outsider).Error)

	app := newAttendanceApp(outsider.ID)

	resp, err := app.Test(markRequest(t, course.ID, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestMarkAttendanceRepairsDeadLink(t *testing.T) {
	db := setupTestDB(t)
	fakeFaceService(t, true, 0.92)
	student, course, schedule := seedEnrolledStudent(t, db)

	// Leftover calendar link must be replaced with a usable room
	require.NoError(t, db.Model(&schedule).Update("meet_link", "https://meet.google.com/dead-link").Error)

	app := newAttendanceApp(student.ID)

	resp, err := app.Test(markRequest(t, course.ID, fmt.Sprintf("weekly-%d", schedule.ID)), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var updated models.CourseSchedule
	require.NoError(t, db.First(&updated, schedule.ID).Error)
	assert.Equal(t, fmt.Sprintf("https://meet.jit.si/LMS-Class-%d", course.ID), updated.MeetLink)
}
