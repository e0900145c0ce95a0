package courseController

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"lms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEnrollmentApp(studentID uint) *fiber.App {
	app := fiber.New()
	authStub := func(c *fiber.Ctx) error {
		c.Locals("userId", studentID)
		c.Locals("role", "student")
		return c.Next()
	}
	app.Post("/courses/:id/enroll", authStub, EnrollInCourse)
	app.Post("/courses/:id/drop", authStub, DropCourse)
	return app
}

func createStudent(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	student := models.User{
		FirstName: "Sam",
		LastName:  "Student",
		Email:     email,
		Password:  "irrelevant",
		Role:      "student",
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func TestEnrollAndReactivate(t *testing.T) {
	db := setupTestDB(t)
	_, course := createTeacherWithCourse(t, db, "Algebra", 1, "09:00:00", "10:00:00")
	student := createStudent(t, db, "sam@example.com")

	app := newEnrollmentApp(student.ID)
	enrollURL := fmt.Sprintf("/courses/%d/enroll", course.ID)
	dropURL := fmt.Sprintf("/courses/%d/drop", course.ID)

	// First enrollment creates the row
	resp, err := app.Test(httptest.NewRequest("POST", enrollURL, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Enrolling again while active is rejected
	resp, err = app.Test(httptest.NewRequest("POST", enrollURL, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Drop, then re-enroll: the same row is reactivated
	resp, err = app.Test(httptest.NewRequest("POST", dropURL, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", enrollURL, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", student.ID, course.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)

	var enrollment models.Enrollment
	require.NoError(t, db.Where("student_id = ? AND course_id = ?", student.ID, course.ID).
		First(&enrollment).Error)
	assert.Equal(t, "active", enrollment.Status)
	assert.Nil(t, enrollment.DroppedAt)
}

func TestEnrollmentCap(t *testing.T) {
	db := setupTestDB(t)
	student := createStudent(t, db, "busy@example.com")

	// Fill up the five allowed active enrollments
	for i := 0; i < MaxActiveEnrollments; i++ {
		_, course := createTeacherWithCourse(t, db, fmt.Sprintf("Course %d", i), 1+i%5, "09:00:00", "10:00:00")
		require.NoError(t, db.Create(&models.Enrollment{
			StudentID:  student.ID,
			CourseID:   course.ID,
			Status:     "active",
			EnrolledAt: time.Now(),
		}).Error)
	}

	_, extra := createTeacherWithCourse(t, db, "One Too Many", 6, "09:00:00", "10:00:00")

	app := newEnrollmentApp(student.ID)
	resp, err := app.Test(httptest.NewRequest("POST", fmt.Sprintf("/courses/%d/enroll", extra.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestDropWithoutEnrollment(t *testing.T) {
	db := setupTestDB(t)
	_, course := createTeacherWithCourse(t, db, "Algebra", 1, "09:00:00", "10:00:00")
	student := createStudent(t, db, "sam@example.com")

	app := newEnrollmentApp(student.ID)
	resp, err := app.Test(httptest.NewRequest("POST", fmt.Sprintf("/courses/%d/drop", course.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
