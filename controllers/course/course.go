package courseController

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func marshalCategories(categories []string) datatypes.JSON {
	if len(categories) == 0 {
		return nil
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return nil
	}
	return data
}

func CreateCourse(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	db := database.Database.Db

	if len(reqData.Schedules) > 0 {
		if conflict, message := checkScheduleConflicts(db, teacherID, reqData.Schedules, 0); conflict {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, message, nil)
		}
	}

	course := models.Course{
		Name:          reqData.Name,
		Description:   reqData.Description,
		Categories:    marshalCategories(reqData.Categories),
		Curriculum:    reqData.Curriculum,
		TotalSessions: reqData.TotalSessions,
		TeacherID:     teacherID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&course).Error; err != nil {
			return err
		}
		for _, s := range reqData.Schedules {
			schedule := models.CourseSchedule{
				CourseID:  course.ID,
				DayOfWeek: normalizeDay(s.DayOfWeek),
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Topic:     s.Topic,
				MeetLink:  utils.GenerateMeetLink(),
			}
			if err := tx.Create(&schedule).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error creating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	db.Preload("Schedules").First(&course, course.ID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created!", course)
}

var errScheduleConflict = errors.New("schedule conflict")

// UpdateCourse updates course fields. When schedules are present in the
// request the old slots are replaced wholesale: the new set is conflict
// checked against the teacher's other courses and swapped in, both inside
// the same transaction.
func UpdateCourse(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedCourseUpdate").(*courseValidator.UpdateCourseRequest)
	db := database.Database.Db

	courseID, _ := strconv.Atoi(c.Params("id"))

	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if course.TeacherID != teacherID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this course!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Name != "" {
		updates["name"] = reqData.Name
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Categories != nil {
		updates["categories"] = marshalCategories(reqData.Categories)
	}
	if reqData.Curriculum != nil {
		updates["curriculum"] = *reqData.Curriculum
	}
	if reqData.TotalSessions > 0 {
		updates["total_sessions"] = reqData.TotalSessions
	}

	var conflictMessage string
	err := db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&course).Updates(updates).Error; err != nil {
				return err
			}
		}
		if reqData.Schedules != nil {
			if conflict, message := checkScheduleConflicts(tx, teacherID, *reqData.Schedules, course.ID); conflict {
				conflictMessage = message
				return errScheduleConflict
			}
			if err := tx.Where("course_id = ?", course.ID).Delete(&models.CourseSchedule{}).Error; err != nil {
				return err
			}
			for _, s := range *reqData.Schedules {
				schedule := models.CourseSchedule{
					CourseID:  course.ID,
					DayOfWeek: normalizeDay(s.DayOfWeek),
					StartTime: s.StartTime,
					EndTime:   s.EndTime,
					Topic:     s.Topic,
					MeetLink:  utils.GenerateMeetLink(),
				}
				if err := tx.Create(&schedule).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if errors.Is(err, errScheduleConflict) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, conflictMessage, nil)
	}
	if err != nil {
		log.Printf("Error updating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	db.Preload("Schedules").First(&course, course.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated!", course)
}

// DeleteCourse removes a course with its schedules and active enrollments
func DeleteCourse(c *fiber.Ctx) error {
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

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.CourseSchedule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}

		var quizIDs []uint
		if err := tx.Model(&models.Quiz{}).Where("course_id = ?", course.ID).
			Pluck("id", &quizIDs).Error; err != nil {
			return err
		}
		if len(quizIDs) > 0 {
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizQuestion{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizSubmission{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", quizIDs).Delete(&models.Quiz{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&course).Error
	})
	if err != nil {
		log.Printf("Error deleting course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted!", nil)
}

// GetCourses is the public catalog with search, category and teacher filters
func GetCourses(c *fiber.Ctx) error {
	filter := courseValidator.ParseFilter(c)
	db := database.Database.Db

	query := db.Model(&models.Course{}).Preload("Teacher").Preload("Schedules")
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if filter.Category != "" {
		query = query.Where("categories LIKE ?", "%\""+filter.Category+"\"%")
	}
	if filter.Teacher != 0 {
		query = query.Where("teacher_id = ?", filter.Teacher)
	}

	// Schedule filters: day of week and a wall-clock window. Times are
	// stored zero-padded, so string comparison orders correctly.
	if filter.DaySet || filter.From != "" || filter.To != "" {
		sub := db.Model(&models.CourseSchedule{}).
			Select("course_id").
			Where("deleted_at IS NULL")
		if filter.DaySet {
			day := filter.Day
			if day == 0 {
				day = 7
			}
			if day == 7 {
				sub = sub.Where("day_of_week IN ?", []int{0, 7})
			} else {
				sub = sub.Where("day_of_week = ?", day)
			}
		}
		if filter.From != "" {
			sub = sub.Where("end_time > ?", filter.From)
		}
		if filter.To != "" {
			sub = sub.Where("start_time < ?", filter.To)
		}
		query = query.Where("id IN (?)", sub)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Error counting courses: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	var courses []models.Course
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&courses).Error; err != nil {
		log.Printf("Error fetching courses: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched!", fiber.Map{
		"courses": courses,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

func GetCourseByID(c *fiber.Ctx) error {
	db := database.Database.Db

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil || courseID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID!", nil)
	}

	var course models.Course
	if err := db.Preload("Teacher").Preload("Schedules").First(&course, courseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var enrolledCount int64
	db.Model(&models.Enrollment{}).Where("course_id = ? AND status = ?", course.ID, "active").Count(&enrolledCount)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched!", fiber.Map{
		"course":        course,
		"enrolledCount": enrolledCount,
	})
}

// GetTeacherCourses lists the calling teacher's courses with enrollment counts
func GetTeacherCourses(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	var courses []models.Course
	if err := db.Preload("Schedules").Where("teacher_id = ?", teacherID).
		Order("created_at DESC").Find(&courses).Error; err != nil {
		log.Printf("Error fetching teacher courses: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		var enrolledCount int64
		db.Model(&models.Enrollment{}).Where("course_id = ? AND status = ?", course.ID, "active").Count(&enrolledCount)
		result = append(result, fiber.Map{
			"course":        course,
			"enrolledCount": enrolledCount,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched!", result)
}

// GetStudentCourses lists the calling student's active enrollments
func GetStudentCourses(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	db := database.Database.Db

	var enrollments []models.Enrollment
	if err := db.Preload("Course").Preload("Course.Teacher").Preload("Course.Schedules").
		Where("student_id = ? AND status = ?", studentID, "active").
		Find(&enrollments).Error; err != nil {
		log.Printf("Error fetching student courses: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched!", enrollments)
}

type sessionView struct {
	ID         string `json:"id"`
	ScheduleID uint   `json:"scheduleId"`
	CourseID   uint   `json:"courseId"`
	CourseName string `json:"courseName"`
	Day        string `json:"day"`
	DayOfWeek  int    `json:"dayOfWeek"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Topic      string `json:"topic"`
	Status     string `json:"status"`
	MeetLink   string `json:"meetLink,omitempty"`
}

// GetStudentClassSchedule returns the full weekly timetable across the
// student's active enrollments
func GetStudentClassSchedule(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	db := database.Database.Db

	var schedules []models.CourseSchedule
	err := db.Preload("Course").
		Joins("JOIN enrollments ON enrollments.course_id = course_schedules.course_id").
		Where("enrollments.student_id = ? AND enrollments.status = ? AND enrollments.deleted_at IS NULL", studentID, "active").
		Order("course_schedules.day_of_week, course_schedules.start_time").
		Find(&schedules).Error
	if err != nil {
		log.Printf("Error fetching class schedule: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch class schedule!", nil)
	}

	result := make([]sessionView, 0, len(schedules))
	for _, s := range schedules {
		result = append(result, sessionView{
			ID:         "weekly-" + strconv.FormatUint(uint64(s.ID), 10),
			ScheduleID: s.ID,
			CourseID:   s.CourseID,
			CourseName: s.Course.Name,
			Day:        utils.DayName(s.DayOfWeek),
			DayOfWeek:  s.DayOfWeek,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			Topic:      s.Topic,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Class schedule fetched!", result)
}

// GetTodayClasses returns today's not-yet-finished sessions for the student,
// tagged live or upcoming. Meeting links are included only for live sessions.
func GetTodayClasses(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	db := database.Database.Db

	now := time.Now()
	dayValues := utils.TodayDayValues(now.Weekday())
	nowMinutes := utils.NowMinutes(now)

	var schedules []models.CourseSchedule
	err := db.Preload("Course").
		Joins("JOIN enrollments ON enrollments.course_id = course_schedules.course_id").
		Where("enrollments.student_id = ? AND enrollments.status = ? AND enrollments.deleted_at IS NULL", studentID, "active").
		Where("course_schedules.day_of_week IN ?", dayValues).
		Order("course_schedules.start_time").
		Find(&schedules).Error
	if err != nil {
		log.Printf("Error fetching today's classes: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch today's classes!", nil)
	}

	result := make([]sessionView, 0, len(schedules))
	for _, s := range schedules {
		start := utils.MinutesOrZero(s.StartTime)
		end := utils.MinutesOrZero(s.EndTime)
		if nowMinutes > end {
			continue
		}

		status := utils.SessionStatus(nowMinutes, start, end)
		view := sessionView{
			ID:         "weekly-" + strconv.FormatUint(uint64(s.ID), 10),
			ScheduleID: s.ID,
			CourseID:   s.CourseID,
			CourseName: s.Course.Name,
			Day:        utils.DayName(s.DayOfWeek),
			DayOfWeek:  s.DayOfWeek,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			Topic:      s.Topic,
			Status:     status,
		}
		if status == utils.StatusLiveNow {
			view.MeetLink = ensureMeetLink(db, &s)
		}
		result = append(result, view)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Today's classes fetched!", result)
}

// ensureMeetLink returns a usable room link for the schedule, repairing the
// stored one when it is missing or points at a dead calendar integration
func ensureMeetLink(db *gorm.DB, schedule *models.CourseSchedule) string {
	if !utils.NeedsLinkRegeneration(schedule.MeetLink) {
		return schedule.MeetLink
	}

	link := utils.CourseMeetLink(schedule.CourseID)
	if err := db.Model(schedule).Update("meet_link", link).Error; err != nil {
		log.Printf("Error persisting meet link for schedule %d: %v", schedule.ID, err)
	}
	schedule.MeetLink = link
	return link
}
