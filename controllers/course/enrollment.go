package courseController

import (
	"log"
	"strconv"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// MaxActiveEnrollments caps how many courses a student can take at once
const MaxActiveEnrollments = 5

// EnrollInCourse enrolls the calling student. A previously dropped
// enrollment for the same course is reactivated instead of duplicated.
func EnrollInCourse(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	db := database.Database.Db

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil || courseID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID!", nil)
	}

	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var activeCount int64
	if err := db.Model(&models.Enrollment{}).
		Where("student_id = ? AND status = ?", studentID, "active").
		Count(&activeCount).Error; err != nil {
		log.Printf("Error counting enrollments: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
	}
	if activeCount >= MaxActiveEnrollments {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You can be enrolled in at most 5 active courses!", nil)
	}

	var existing models.Enrollment
	if err := db.Where("student_id = ? AND course_id = ?", studentID, course.ID).First(&existing).Error; err == nil {
		if existing.Status == "active" {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "You are already enrolled in this course!", nil)
		}

		// Reactivate the dropped enrollment
		if err := db.Model(&existing).Updates(map[string]interface{}{
			"status":      "active",
			"enrolled_at": time.Now(),
			"dropped_at":  nil,
		}).Error; err != nil {
			log.Printf("Error reactivating enrollment: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
		}

		sendEnrollmentMail(studentID, course.Name)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment reactivated!", existing)
	}

	enrollment := models.Enrollment{
		StudentID:  studentID,
		CourseID:   course.ID,
		Status:     "active",
		EnrolledAt: time.Now(),
	}
	if err := db.Create(&enrollment).Error; err != nil {
		log.Printf("Error creating enrollment: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
	}

	sendEnrollmentMail(studentID, course.Name)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully!", enrollment)
}

func sendEnrollmentMail(studentID uint, courseName string) {
	var student models.User
	if err := database.Database.Db.First(&student, studentID).Error; err == nil {
		utils.SendEnrollmentEmail(student.Email, student.FirstName, courseName)
	}
}

// DropCourse marks the enrollment dropped; the row stays for re-enrollment
func DropCourse(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	db := database.Database.Db

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil || courseID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID!", nil)
	}

	var enrollment models.Enrollment
	if err := db.Where("student_id = ? AND course_id = ? AND status = ?", studentID, courseID, "active").
		First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "You are not enrolled in this course!", nil)
	}

	now := time.Now()
	if err := db.Model(&enrollment).Updates(map[string]interface{}{
		"status":     "dropped",
		"dropped_at": now,
	}).Error; err != nil {
		log.Printf("Error dropping course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to drop course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course dropped!", nil)
}

// ListEnrollments is the paginated enrollment report across the teacher's
// courses, filterable by status and searchable by student or course name
func ListEnrollments(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := db.Model(&models.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Joins("JOIN users ON users.id = enrollments.student_id").
		Where("courses.teacher_id = ? AND courses.deleted_at IS NULL", teacherID)

	if status := c.Query("status"); status != "" {
		query = query.Where("enrollments.status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"users.first_name LIKE ? OR users.last_name LIKE ? OR users.email LIKE ? OR courses.name LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Error counting enrollments: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	var enrollments []models.Enrollment
	if err := query.Preload("Student").Preload("Course").
		Order("enrollments.enrolled_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&enrollments).Error; err != nil {
		log.Printf("Error fetching enrollments: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	rows := make([]fiber.Map, 0, len(enrollments))
	for _, e := range enrollments {
		rows = append(rows, fiber.Map{
			"enrollmentId": e.ID,
			"studentId":    e.StudentID,
			"studentName":  e.Student.FirstName + " " + e.Student.LastName,
			"email":        e.Student.Email,
			"rollNumber":   e.Student.RollNumber,
			"courseId":     e.CourseID,
			"courseName":   e.Course.Name,
			"status":       e.Status,
			"enrolledAt":   e.EnrolledAt,
			"droppedAt":    e.DroppedAt,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched!", fiber.Map{
		"enrollments": rows,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// GetCourseEnrollments lists students enrolled in a course the teacher owns
func GetCourseEnrollments(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil || courseID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID!", nil)
	}

	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if course.TeacherID != teacherID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this course!", nil)
	}

	var enrollments []models.Enrollment
	if err := db.Preload("Student").
		Where("course_id = ? AND status = ?", course.ID, "active").
		Order("enrolled_at").
		Find(&enrollments).Error; err != nil {
		log.Printf("Error fetching enrollments: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	students := make([]fiber.Map, 0, len(enrollments))
	for _, e := range enrollments {
		students = append(students, fiber.Map{
			"enrollmentId": e.ID,
			"studentId":    e.StudentID,
			"firstName":    e.Student.FirstName,
			"lastName":     e.Student.LastName,
			"email":        e.Student.Email,
			"rollNumber":   e.Student.RollNumber,
			"progress":     e.Progress,
			"enrolledAt":   e.EnrolledAt,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched!", students)
}
