package courseController

import (
	"fmt"
	"log"
	"strconv"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type scheduleRow struct {
	DayOfWeek  int
	StartTime  string
	EndTime    string
	CourseName string
}

// checkScheduleConflicts compares candidate slots against every schedule the
// teacher already runs, excluding excludeCourseID (0 means exclude nothing).
// A database failure reports a conflict rather than letting a bad slot
// through.
func checkScheduleConflicts(db *gorm.DB, teacherID uint, candidates []courseValidator.ScheduleInput, excludeCourseID uint) (bool, string) {
	query := db.Table("course_schedules").
		Select("course_schedules.day_of_week, course_schedules.start_time, course_schedules.end_time, courses.name AS course_name").
		Joins("JOIN courses ON courses.id = course_schedules.course_id").
		Where("courses.teacher_id = ?", teacherID).
		Where("course_schedules.deleted_at IS NULL").
		Where("courses.deleted_at IS NULL")
	if excludeCourseID != 0 {
		query = query.Where("courses.id <> ?", excludeCourseID)
	}

	var existing []scheduleRow
	if err := query.Scan(&existing).Error; err != nil {
		log.Printf("Error checking schedule conflicts: %v", err)
		return true, "Error checking schedule conflicts"
	}

	for _, candidate := range candidates {
		candStart, err := utils.ToMinutes(candidate.StartTime)
		if err != nil {
			return true, "Error checking schedule conflicts"
		}
		candEnd, err := utils.ToMinutes(candidate.EndTime)
		if err != nil {
			return true, "Error checking schedule conflicts"
		}

		for _, row := range existing {
			if !sameDay(candidate.DayOfWeek, row.DayOfWeek) {
				continue
			}
			rowStart := utils.MinutesOrZero(row.StartTime)
			rowEnd := utils.MinutesOrZero(row.EndTime)
			if utils.IsOverlap(candStart, candEnd, rowStart, rowEnd) {
				return true, fmt.Sprintf("Schedule conflict on %s with course %q (%s-%s)",
					utils.DayName(candidate.DayOfWeek), row.CourseName, row.StartTime, row.EndTime)
			}
		}
	}

	return false, ""
}

// normalizeDay folds the 0 alias for Sunday into the stored 1-7 range
func normalizeDay(day int) int {
	if day == 0 {
		return 7
	}
	return day
}

// sameDay treats 0 and 7 as the same day (Sunday)
func sameDay(a, b int) bool {
	if a == 0 {
		a = 7
	}
	if b == 0 {
		b = 7
	}
	return a == b
}

// AddScheduleToCourse appends one slot to an existing course after a
// conflict check against the teacher's other slots
func AddScheduleToCourse(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedSchedule").(*courseValidator.AddScheduleRequest)
	db := database.Database.Db

	courseID, _ := strconv.Atoi(c.Params("id"))

	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if course.TeacherID != teacherID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this course!", nil)
	}

	candidate := courseValidator.ScheduleInput(*reqData)
	if conflict, message := checkScheduleConflicts(db, teacherID, []courseValidator.ScheduleInput{candidate}, 0); conflict {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, message, nil)
	}

	schedule := models.CourseSchedule{
		CourseID:  course.ID,
		DayOfWeek: normalizeDay(reqData.DayOfWeek),
		StartTime: reqData.StartTime,
		EndTime:   reqData.EndTime,
		Topic:     reqData.Topic,
		MeetLink:  utils.GenerateMeetLink(),
	}
	if err := db.Create(&schedule).Error; err != nil {
		log.Printf("Error creating schedule: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add schedule!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Schedule added!", schedule)
}

// RemoveSchedule deletes one slot from a course the teacher owns
func RemoveSchedule(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	scheduleID, err := strconv.Atoi(c.Params("scheduleId"))
	if err != nil || scheduleID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid schedule ID!", nil)
	}

	var schedule models.CourseSchedule
	if err := db.Preload("Course").First(&schedule, scheduleID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Schedule not found!", nil)
	}
	if schedule.Course.TeacherID != teacherID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this course!", nil)
	}

	if err := db.Delete(&schedule).Error; err != nil {
		log.Printf("Error deleting schedule: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to remove schedule!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Schedule removed!", nil)
}
