package dashboardController

import (
	"io"
	"log"
	"strconv"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

type monthBucket struct {
	Month       string `json:"month"`
	Enrollments int64  `json:"enrollments"`
}

type todaySession struct {
	ID         string `json:"id"`
	ScheduleID uint   `json:"scheduleId"`
	CourseID   uint   `json:"courseId"`
	CourseName string `json:"courseName"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Topic      string `json:"topic"`
	Status     string `json:"status"`
	MeetLink   string `json:"meetLink,omitempty"`
}

// todaySessions builds the remaining sessions of today for a set of course
// IDs, tagged live or upcoming. Sessions already past their end are dropped.
func todaySessions(db *gorm.DB, courseIDs []uint, includeLinks bool) []todaySession {
	result := make([]todaySession, 0)
	if len(courseIDs) == 0 {
		return result
	}

	nowTime := time.Now()
	dayValues := utils.TodayDayValues(nowTime.Weekday())
	nowMinutes := utils.NowMinutes(nowTime)

	var schedules []models.CourseSchedule
	err := db.Preload("Course").
		Where("course_id IN ? AND day_of_week IN ?", courseIDs, dayValues).
		Order("start_time").
		Find(&schedules).Error
	if err != nil {
		log.Printf("Error fetching today's sessions: %v", err)
		return result
	}

	for _, s := range schedules {
		start := utils.MinutesOrZero(s.StartTime)
		end := utils.MinutesOrZero(s.EndTime)
		if nowMinutes > end {
			continue
		}

		status := utils.SessionStatus(nowMinutes, start, end)
		session := todaySession{
			ID:         "weekly-" + strconv.FormatUint(uint64(s.ID), 10),
			ScheduleID: s.ID,
			CourseID:   s.CourseID,
			CourseName: s.Course.Name,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			Topic:      s.Topic,
			Status:     status,
		}
		if includeLinks && status == utils.StatusLiveNow {
			link := s.MeetLink
			if utils.NeedsLinkRegeneration(link) {
				link = utils.CourseMeetLink(s.CourseID)
				if err := db.Model(&models.CourseSchedule{}).Where("id = ?", s.ID).
					Update("meet_link", link).Error; err != nil {
					log.Printf("Error persisting meet link for schedule %d: %v", s.ID, err)
				}
			}
			session.MeetLink = link
		}
		result = append(result, session)
	}

	return result
}

// GetTeacherStats is the teacher dashboard: headline counts, a six month
// enrollment trend, course status distribution, recent check-ins and
// today's schedule
func GetTeacherStats(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	var courses []models.Course
	if err := db.Where("teacher_id = ?", teacherID).Find(&courses).Error; err != nil {
		log.Printf("Error fetching teacher courses: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch dashboard!", nil)
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	var totalStudents, totalQuizzes, totalSubmissions int64
	if len(courseIDs) > 0 {
		db.Model(&models.Enrollment{}).
			Where("course_id IN ? AND status = ?", courseIDs, "active").
			Distinct("student_id").Count(&totalStudents)
	}
	db.Model(&models.Quiz{}).Where("created_by = ?", teacherID).Count(&totalQuizzes)
	db.Model(&models.QuizSubmission{}).
		Joins("JOIN quizzes ON quizzes.id = quiz_submissions.quiz_id").
		Where("quizzes.created_by = ? AND quizzes.deleted_at IS NULL", teacherID).
		Count(&totalSubmissions)

	// Enrollment trend over the last six months
	trend := make([]monthBucket, 0, 6)
	for i := 5; i >= 0; i-- {
		monthStart := now.New(time.Now().AddDate(0, -i, 0)).BeginningOfMonth()
		monthEnd := now.New(monthStart).EndOfMonth()

		var count int64
		if len(courseIDs) > 0 {
			db.Model(&models.Enrollment{}).
				Where("course_id IN ? AND enrolled_at BETWEEN ? AND ?", courseIDs, monthStart, monthEnd).
				Count(&count)
		}
		trend = append(trend, monthBucket{Month: monthStart.Format("Jan"), Enrollments: count})
	}

	// Per-course active enrollment distribution
	distribution := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		var count int64
		db.Model(&models.Enrollment{}).
			Where("course_id = ? AND status = ?", course.ID, "active").Count(&count)
		distribution = append(distribution, fiber.Map{
			"courseId":   course.ID,
			"courseName": course.Name,
			"students":   count,
		})
	}

	// Recent check-ins
	recent := make([]fiber.Map, 0)
	if len(courseIDs) > 0 {
		var records []models.Attendance
		if err := db.Preload("Student").Preload("Course").
			Where("course_id IN ?", courseIDs).
			Order("date DESC").Limit(10).Find(&records).Error; err == nil {
			for _, r := range records {
				recent = append(recent, fiber.Map{
					"studentName": r.Student.FirstName + " " + r.Student.LastName,
					"courseName":  r.Course.Name,
					"date":        r.Date,
					"status":      r.Status,
				})
			}
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched!", fiber.Map{
		"stats": fiber.Map{
			"totalCourses":     len(courses),
			"totalStudents":    totalStudents,
			"totalQuizzes":     totalQuizzes,
			"totalSubmissions": totalSubmissions,
		},
		"enrollmentTrend":    trend,
		"courseDistribution": distribution,
		"recentActivity":     recent,
		"todaySchedule":      todaySessions(db, courseIDs, true),
	})
}

// GetStudentDashboard is the student home: headline stats, average quiz
// grade, today's remaining sessions and the next quiz deadlines
func GetStudentDashboard(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	db := database.Database.Db

	var enrollments []models.Enrollment
	if err := db.Where("student_id = ? AND status = ?", studentID, "active").
		Find(&enrollments).Error; err != nil {
		log.Printf("Error fetching enrollments: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch dashboard!", nil)
	}

	courseIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}

	var attendanceCount, completedCount int64
	db.Model(&models.Attendance{}).Where("student_id = ?", studentID).Count(&attendanceCount)
	db.Model(&models.Enrollment{}).
		Where("student_id = ? AND status = ?", studentID, "completed").Count(&completedCount)

	// Average grade as a percentage across graded submissions
	var submissions []models.QuizSubmission
	db.Preload("Quiz").Where("student_id = ?", studentID).Find(&submissions)

	var gradeSum float64
	graded := 0
	for _, s := range submissions {
		if s.Quiz.TotalMarks > 0 {
			gradeSum += s.Score / s.Quiz.TotalMarks * 100
			graded++
		}
	}
	averageGrade := 0.0
	if graded > 0 {
		averageGrade = gradeSum / float64(graded)
	}

	// Next deadlines: published quizzes not yet submitted, soonest first
	deadlines := make([]fiber.Map, 0)
	if len(courseIDs) > 0 {
		var quizzes []models.Quiz
		err := db.Preload("Course").
			Joins("LEFT JOIN quiz_submissions ON quiz_submissions.quiz_id = quizzes.id AND quiz_submissions.student_id = ? AND quiz_submissions.deleted_at IS NULL", studentID).
			Where("quizzes.course_id IN ? AND quizzes.status = ? AND quizzes.deadline > ?", courseIDs, "published", time.Now()).
			Where("quiz_submissions.id IS NULL").
			Order("quizzes.deadline").
			Limit(5).
			Find(&quizzes).Error
		if err != nil {
			log.Printf("Error fetching deadlines: %v", err)
		}
		for _, quiz := range quizzes {
			daysLeft := int(time.Until(quiz.Deadline).Hours() / 24)
			if daysLeft < 0 {
				daysLeft = 0
			}
			deadlines = append(deadlines, fiber.Map{
				"quizId":     quiz.ID,
				"title":      quiz.Title,
				"courseName": quiz.Course.Name,
				"deadline":   quiz.Deadline,
				"daysLeft":   daysLeft,
			})
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched!", fiber.Map{
		"stats": fiber.Map{
			"enrolledCourses":  len(enrollments),
			"completedCourses": completedCount,
			"classesAttended":  attendanceCount,
			"quizzesTaken":     len(submissions),
			"averageGrade":     averageGrade,
		},
		"todaySchedule":     todaySessions(db, courseIDs, true),
		"upcomingDeadlines": deadlines,
	})
}

// VerifyTeacherFace is the dashboard pre-flight check before starting a
// lecture: it only reports whether the capture matches
func VerifyTeacherFace(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	var teacher models.User
	if err := db.First(&teacher, teacherID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	if len(teacher.FaceEmbedding) == 0 {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "No face enrolled. Please update your profile picture first!", nil)
	}

	fileHeader, err := c.FormFile("faceImage")
	if err != nil {
		fileHeader, err = c.FormFile("image")
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Face image is required!", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Face image is required!", nil)
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Face image is required!", nil)
	}

	verifyResult, err := utils.VerifyFace(image, fileHeader.Filename, teacher.FaceEmbedding)
	if err != nil {
		log.Printf("Face service error during verification: %v", err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Face service is unavailable, please try again later!", nil)
	}

	if !utils.FaceMatchAccepted(verifyResult) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Face verification failed!", fiber.Map{
			"verified":   false,
			"similarity": verifyResult.Similarity,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Face verified!", fiber.Map{
		"verified":   true,
		"similarity": verifyResult.Similarity,
	})
}
