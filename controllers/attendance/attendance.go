package attendanceController

import (
	"io"
	"log"
	"strconv"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	attendanceValidator "lms/validators/attendance"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

func readFaceImage(c *fiber.Ctx) ([]byte, string, error) {
	fileHeader, err := c.FormFile("faceImage")
	if err != nil {
		fileHeader, err = c.FormFile("image")
	}
	if err != nil {
		return nil, "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}

	return data, fileHeader.Filename, nil
}

// resolveSchedule maps the client session identifier to a stored schedule
// row of the course, if any
func resolveSchedule(db *gorm.DB, courseID uint, sessionID string) *models.CourseSchedule {
	raw := utils.ResolveSessionID(sessionID)
	if raw == "" {
		return nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return nil
	}

	var schedule models.CourseSchedule
	if err := db.Where("id = ? AND course_id = ?", id, courseID).First(&schedule).Error; err != nil {
		return nil
	}
	return &schedule
}

// MarkAttendance checks the student in for today's session. The check-in is
// face gated and idempotent: repeating it returns the existing record and
// the meeting link again.
func MarkAttendance(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedAttendance").(*attendanceValidator.MarkAttendanceRequest)
	db := database.Database.Db

	var enrollment models.Enrollment
	if err := db.Where("student_id = ? AND course_id = ? AND status = ?", studentID, reqData.CourseID, "active").
		First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	var student models.User
	if err := db.First(&student, studentID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	if len(student.FaceEmbedding) == 0 {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "No face enrolled. Please update your profile picture first!", nil)
	}

	image, filename, err := readFaceImage(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Face image is required!", nil)
	}

	verifyResult, err := utils.VerifyFace(image, filename, student.FaceEmbedding)
	if err != nil {
		log.Printf("Face service error during attendance: %v", err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Face service is unavailable, please try again later!", nil)
	}
	log.Printf("Attendance face check for student %d: match=%v similarity=%.3f confidence=%.3f",
		studentID, verifyResult.IsMatch, verifyResult.Similarity, verifyResult.Confidence)
	if !utils.FaceMatchAccepted(verifyResult) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Face does not match. Attendance not marked!", nil)
	}

	schedule := resolveSchedule(db, reqData.CourseID, reqData.SessionID)

	meetLink := ""
	if schedule != nil {
		if utils.NeedsLinkRegeneration(schedule.MeetLink) {
			link := utils.CourseMeetLink(schedule.CourseID)
			if err := db.Model(schedule).Update("meet_link", link).Error; err != nil {
				log.Printf("Error persisting meet link for schedule %d: %v", schedule.ID, err)
			}
			schedule.MeetLink = link
		}
		meetLink = schedule.MeetLink
	} else {
		meetLink = utils.CourseMeetLink(reqData.CourseID)
	}

	// One record per student and session per day
	startOfDay := now.BeginningOfDay()
	endOfDay := now.EndOfDay()
	query := db.Where("student_id = ? AND course_id = ? AND date BETWEEN ? AND ?",
		studentID, reqData.CourseID, startOfDay, endOfDay)
	if schedule != nil {
		query = query.Where("schedule_id = ?", schedule.ID)
	} else {
		query = query.Where("schedule_id IS NULL")
	}

	var existing models.Attendance
	if err := query.First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Attendance already marked!", fiber.Map{
			"attendance": existing,
			"meetLink":   meetLink,
		})
	}

	attendance := models.Attendance{
		StudentID: studentID,
		CourseID:  reqData.CourseID,
		Date:      time.Now(),
		Status:    "Present",
	}
	if schedule != nil {
		attendance.ScheduleID = &schedule.ID
	}
	if err := db.Create(&attendance).Error; err != nil {
		log.Printf("Error creating attendance: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark attendance!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Attendance marked!", fiber.Map{
		"attendance": attendance,
		"meetLink":   meetLink,
	})
}

// GetStudentAttendance returns the calling student's history, newest first,
// with per-course totals
func GetStudentAttendance(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	db := database.Database.Db

	query := db.Preload("Course").Where("student_id = ?", studentID)
	if courseIDStr := c.Query("courseId"); courseIDStr != "" {
		if courseID, err := strconv.Atoi(courseIDStr); err == nil && courseID > 0 {
			query = query.Where("course_id = ?", courseID)
		}
	}

	var records []models.Attendance
	if err := query.Order("date DESC").Find(&records).Error; err != nil {
		log.Printf("Error fetching attendance: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attendance!", nil)
	}

	result := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		result = append(result, fiber.Map{
			"id":         r.ID,
			"courseId":   r.CourseID,
			"courseName": r.Course.Name,
			"date":       r.Date,
			"status":     r.Status,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attendance fetched!", result)
}

// GetCourseAttendance lists attendance for a course the teacher owns,
// optionally narrowed to one day
func GetCourseAttendance(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	courseID, err := strconv.Atoi(c.Params("courseId"))
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

	query := db.Preload("Student").Where("course_id = ?", course.ID)
	if dateStr := c.Query("date"); dateStr != "" {
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid date, expected YYYY-MM-DD!", nil)
		}
		query = query.Where("date BETWEEN ? AND ?", now.New(day).BeginningOfDay(), now.New(day).EndOfDay())
	}

	var records []models.Attendance
	if err := query.Order("date DESC").Find(&records).Error; err != nil {
		log.Printf("Error fetching attendance: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attendance!", nil)
	}

	result := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		result = append(result, fiber.Map{
			"id":         r.ID,
			"studentId":  r.StudentID,
			"firstName":  r.Student.FirstName,
			"lastName":   r.Student.LastName,
			"rollNumber": r.Student.RollNumber,
			"date":       r.Date,
			"status":     r.Status,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attendance fetched!", result)
}

// GetTeacherAttendanceHistory is the dashboard feed of recent check-ins
// across the teacher's courses
func GetTeacherAttendanceHistory(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	var records []models.Attendance
	err := db.Preload("Student").Preload("Course").
		Joins("JOIN courses ON courses.id = attendances.course_id").
		Where("courses.teacher_id = ? AND courses.deleted_at IS NULL", teacherID).
		Order("attendances.date DESC").
		Limit(50).
		Find(&records).Error
	if err != nil {
		log.Printf("Error fetching attendance history: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attendance history!", nil)
	}

	result := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		result = append(result, fiber.Map{
			"id":         r.ID,
			"studentId":  r.StudentID,
			"firstName":  r.Student.FirstName,
			"lastName":   r.Student.LastName,
			"rollNumber": r.Student.RollNumber,
			"courseId":   r.CourseID,
			"courseName": r.Course.Name,
			"date":       r.Date,
			"status":     r.Status,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attendance history fetched!", result)
}
