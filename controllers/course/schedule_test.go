package courseController

import (
	"testing"

	"lms/config"
	"lms/database"
	"lms/models"
	courseValidator "lms/validators/course"

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
		&models.UserSession{},
		&models.Course{},
		&models.CourseSchedule{},
		&models.Enrollment{},
		&models.Attendance{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizSubmission{},
	))

	database.Database = database.DbInstance{Db: db}
	config.AppConfig = &config.Config{
		MeetLinkBase: "https://meet.jit.si",
		SaltRound:    4,
		JWTKey:       "test-secret",
	}

	return db
}

func createTeacherWithCourse(t *testing.T, db *gorm.DB, courseName string, day int, start, end string) (models.User, models.Course) {
	t.Helper()

	teacher := models.User{
		FirstName: "Ada",
		LastName:  "Teacher",
		Email:     courseName + "-teacher@example.com",
		Password:  "irrelevant",
		Role:      "teacher",
	}
	require.NoError(t, db.Create(&teacher).Error)

	course := models.Course{
		Name:      courseName,
		TeacherID: teacher.ID,
	}
	require.NoError(t, db.Create(&course).Error)

	schedule := models.CourseSchedule{
		CourseID:  course.ID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
	}
	require.NoError(t, db.Create(&schedule).Error)

	return teacher, course
}

func TestCheckScheduleConflictsOverlap(t *testing.T) {
	db := setupTestDB(t)
	teacher, _ := createTeacherWithCourse(t, db, "Algebra", 1, "09:00:00", "10:00:00")

	candidates := []courseValidator.ScheduleInput{
		{DayOfWeek: 1, StartTime: "09:30", EndTime: "10:30"},
	}

	conflict, message := checkScheduleConflicts(db, teacher.ID, candidates, 0)
	assert.True(t, conflict)
	assert.Equal(t, `Schedule conflict on Monday with course "Algebra" (09:00:00-10:00:00)`, message)
}

func TestCheckScheduleConflictsAbutting(t *testing.T) {
	db := setupTestDB(t)
	teacher, _ := createTeacherWithCourse(t, db, "Algebra", 1, "09:00:00", "10:00:00")

	// Back-to-back slots are allowed
	candidates := []courseValidator.ScheduleInput{
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00"},
	}

	conflict, message := checkScheduleConflicts(db, teacher.ID, candidates, 0)
	assert.False(t, conflict)
	assert.Empty(t, message)
}

func TestCheckScheduleConflictsDifferentDay(t *testing.T) {
	db := setupTestDB(t)
	teacher, _ := createTeacherWithCourse(t, db, "Algebra", 1, "09:00:00", "10:00:00")

	candidates := []courseValidator.ScheduleInput{
		{DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"},
	}

	conflict, _ := checkScheduleConflicts(db, teacher.ID, candidates, 0)
	assert.False(t, conflict)
}

func TestCheckScheduleConflictsSundayAlias(t *testing.T) {
	db := setupTestDB(t)
	teacher, _ := createTeacherWithCourse(t, db, "Weekend Lab", 7, "09:00:00", "10:00:00")

	// Sunday stored as 7 must collide with a candidate using 0
	candidates := []courseValidator.ScheduleInput{
		{DayOfWeek: 0, StartTime: "09:30", EndTime: "10:30"},
	}

	conflict, _ := checkScheduleConflicts(db, teacher.ID, candidates, 0)
	assert.True(t, conflict)
}

func TestCheckScheduleConflictsExcludesOwnCourse(t *testing.T) {
	db := setupTestDB(t)
	teacher, course := createTeacherWithCourse(t, db, "Algebra", 1, "09:00:00", "10:00:00")

	// Replacing a course's own slots must not collide with those slots
	candidates := []courseValidator.ScheduleInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
	}

	conflict, _ := checkScheduleConflicts(db, teacher.ID, candidates, course.ID)
	assert.False(t, conflict)

	// But it still collides when another course owns the slot
	conflict, _ = checkScheduleConflicts(db, teacher.ID, candidates, 0)
	assert.True(t, conflict)
}

func TestCheckScheduleConflictsOtherTeacher(t *testing.T) {
	db := setupTestDB(t)
	createTeacherWithCourse(t, db, "Algebra", 1, "09:00:00", "10:00:00")

	other := models.User{
		FirstName: "Bo",
		LastName:  "Other",
		Email:     "other-teacher@example.com",
		Password:  "irrelevant",
		Role:      "teacher",
	}
	require.NoError(t, db.Create(&other).Error)

	// Another teacher's identical slot is not a conflict
	candidates := []courseValidator.ScheduleInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
	}

	conflict, _ := checkScheduleConflicts(db, other.ID, candidates, 0)
	assert.False(t, conflict)
}

func TestCheckScheduleConflictsIgnoresDeleted(t *testing.T) {
	db := setupTestDB(t)
	teacher, course := createTeacherWithCourse(t, db, "Algebra", 1, "09:00:00", "10:00:00")

	require.NoError(t, db.Where("course_id = ?", course.ID).Delete(&models.CourseSchedule{}).Error)

	candidates := []courseValidator.ScheduleInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
	}

	conflict, _ := checkScheduleConflicts(db, teacher.ID, candidates, 0)
	assert.False(t, conflict)
}
