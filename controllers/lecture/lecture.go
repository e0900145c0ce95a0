package lectureController

import (
	"io"
	"log"
	"strconv"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
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

// StartLecture verifies the teacher's face, mints a fresh room for the
// lecture and persists it on the session when one is identified
func StartLecture(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	courseID, err := strconv.Atoi(c.FormValue("courseId"))
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

	var teacher models.User
	if err := db.First(&teacher, teacherID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	if len(teacher.FaceEmbedding) == 0 {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "No face enrolled. Please update your profile picture first!", nil)
	}

	image, filename, err := readFaceImage(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Face image is required!", nil)
	}

	verifyResult, err := utils.VerifyFace(image, filename, teacher.FaceEmbedding)
	if err != nil {
		log.Printf("Face service error during lecture start: %v", err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Face service is unavailable, please try again later!", nil)
	}
	log.Printf("Lecture face check for teacher %d: match=%v similarity=%.3f confidence=%.3f",
		teacherID, verifyResult.IsMatch, verifyResult.Similarity, verifyResult.Confidence)
	if !utils.FaceMatchAccepted(verifyResult) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Face verification failed!", nil)
	}

	meetLink := utils.LectureMeetLink(course.ID)

	// Persist the fresh room on the session being started, if identified
	if sessionID := c.FormValue("scheduleId"); sessionID != "" {
		raw := utils.ResolveSessionID(sessionID)
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			var schedule models.CourseSchedule
			if err := db.Where("id = ? AND course_id = ?", id, course.ID).First(&schedule).Error; err == nil {
				if err := db.Model(&schedule).Update("meet_link", meetLink).Error; err != nil {
					log.Printf("Error persisting lecture link for schedule %d: %v", schedule.ID, err)
				}
			}
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lecture started!", fiber.Map{
		"courseId": course.ID,
		"meetLink": meetLink,
	})
}
