package quizController

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	quizValidator "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const defaultMarksPerQuestion = 1.0

func marshalOptions(options []string) ([]byte, error) {
	return json.Marshal(options)
}

// refreshTotals recomputes question count and total marks after any change
// to the question set
func refreshTotals(db *gorm.DB, quiz *models.Quiz) error {
	var count int64
	if err := db.Model(&models.QuizQuestion{}).Where("quiz_id = ?", quiz.ID).Count(&count).Error; err != nil {
		return err
	}
	return db.Model(quiz).Updates(map[string]interface{}{
		"total_questions": count,
		"total_marks":     float64(count) * quiz.MarksPerQuestion,
	}).Error
}

func hasSubmissions(db *gorm.DB, quizID uint) bool {
	var count int64
	db.Model(&models.QuizSubmission{}).Where("quiz_id = ?", quizID).Count(&count)
	return count > 0
}

func loadOwnedQuiz(c *fiber.Ctx, db *gorm.DB) (*models.Quiz, error) {
	teacherID := c.Locals("userId").(uint)

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil || quizID <= 0 {
		return nil, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz ID!", nil)
	}

	var quiz models.Quiz
	if err := db.First(&quiz, quizID).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}
	if quiz.CreatedBy != teacherID {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this quiz!", nil)
	}

	return &quiz, nil
}

func CreateQuiz(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedQuiz").(*quizValidator.CreateQuizRequest)
	db := database.Database.Db

	var course models.Course
	if err := db.First(&course, reqData.CourseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if course.TeacherID != teacherID {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this course!", nil)
	}

	marksPerQuestion := reqData.MarksPerQuestion
	if marksPerQuestion == 0 {
		marksPerQuestion = defaultMarksPerQuestion
	}
	status := reqData.Status
	if status == "" {
		status = "draft"
	}

	quiz := models.Quiz{
		Title:            reqData.Title,
		CourseID:         course.ID,
		TimeLimitMinutes: reqData.TimeLimitMinutes,
		MarksPerQuestion: marksPerQuestion,
		TotalQuestions:   len(reqData.Questions),
		TotalMarks:       float64(len(reqData.Questions)) * marksPerQuestion,
		Deadline:         reqData.Deadline,
		Status:           status,
		CreatedBy:        teacherID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quiz).Error; err != nil {
			return err
		}
		for i, q := range reqData.Questions {
			options, err := marshalOptions(q.Options)
			if err != nil {
				return err
			}
			question := models.QuizQuestion{
				QuizID:             quiz.ID,
				QuestionText:       q.QuestionText,
				Options:            options,
				CorrectOptionIndex: q.CorrectOptionIndex,
				OrderIndex:         i,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error creating quiz: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz created!", quiz)
}

// GetTeacherQuizzes lists quizzes for the teacher's courses with submission
// counts
func GetTeacherQuizzes(c *fiber.Ctx) error {
	teacherID := c.Locals("userId").(uint)
	db := database.Database.Db

	var quizzes []models.Quiz
	if err := db.Where("created_by = ?", teacherID).Order("created_at DESC").Find(&quizzes).Error; err != nil {
		log.Printf("Error fetching quizzes: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quizzes!", nil)
	}

	result := make([]fiber.Map, 0, len(quizzes))
	for _, quiz := range quizzes {
		var submissionCount int64
		db.Model(&models.QuizSubmission{}).Where("quiz_id = ?", quiz.ID).Count(&submissionCount)
		result = append(result, fiber.Map{
			"quiz":            quiz,
			"submissionCount": submissionCount,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quizzes fetched!", result)
}

// GetStudentQuizzes lists published quizzes across the student's active
// enrollments, with the student's own submission state
func GetStudentQuizzes(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	db := database.Database.Db

	var quizzes []models.Quiz
	err := db.
		Joins("JOIN enrollments ON enrollments.course_id = quizzes.course_id").
		Where("enrollments.student_id = ? AND enrollments.status = ? AND enrollments.deleted_at IS NULL", studentID, "active").
		Where("quizzes.status <> ?", "draft").
		Order("quizzes.deadline").
		Find(&quizzes).Error
	if err != nil {
		log.Printf("Error fetching quizzes: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quizzes!", nil)
	}

	result := make([]fiber.Map, 0, len(quizzes))
	for _, quiz := range quizzes {
		var submission models.QuizSubmission
		submitted := db.Where("quiz_id = ? AND student_id = ?", quiz.ID, studentID).
			First(&submission).Error == nil

		entry := fiber.Map{
			"quiz":      quiz,
			"submitted": submitted,
		}
		if submitted {
			entry["score"] = submission.Score
			entry["submittedAt"] = submission.SubmittedAt
		}
		result = append(result, entry)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quizzes fetched!", result)
}

// GetQuizByID returns the quiz with its questions. Correct answers are
// stripped unless the caller is the owning teacher.
func GetQuizByID(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	role := c.Locals("role").(string)
	db := database.Database.Db

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil || quizID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz ID!", nil)
	}

	var quiz models.Quiz
	if err := db.First(&quiz, quizID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	isOwner := role == "teacher" && quiz.CreatedBy == userID
	if !isOwner {
		// Students see published quizzes of their enrolled courses only
		var enrollment models.Enrollment
		if err := db.Where("student_id = ? AND course_id = ? AND status = ?", userID, quiz.CourseID, "active").
			First(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
		}
		if quiz.Status == "draft" {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
		}
		var submission models.QuizSubmission
		if err := db.Where("quiz_id = ? AND student_id = ?", quiz.ID, userID).
			First(&submission).Error; err == nil {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "You have already submitted this quiz!", nil)
		}
		if time.Now().After(quiz.Deadline) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Quiz deadline has passed!", nil)
		}
	}

	var questions []models.QuizQuestion
	if err := db.Where("quiz_id = ?", quiz.ID).Order("order_index").Find(&questions).Error; err != nil {
		log.Printf("Error fetching questions: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quiz!", nil)
	}

	questionViews := make([]fiber.Map, 0, len(questions))
	for _, q := range questions {
		view := fiber.Map{
			"id":           q.ID,
			"questionText": q.QuestionText,
			"options":      q.Options,
			"orderIndex":   q.OrderIndex,
		}
		if isOwner {
			view["correctOptionIndex"] = q.CorrectOptionIndex
		}
		questionViews = append(questionViews, view)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched!", fiber.Map{
		"quiz":      quiz,
		"questions": questionViews,
	})
}

func UpdateQuiz(c *fiber.Ctx) error {
	reqData := c.Locals("validatedQuizUpdate").(*quizValidator.UpdateQuizRequest)
	db := database.Database.Db

	quiz, err := loadOwnedQuiz(c, db)
	if quiz == nil {
		return err
	}

	// Once students have submitted, the only allowed change is closing
	if hasSubmissions(db, quiz.ID) {
		if reqData.Title != "" || reqData.TimeLimitMinutes != 0 ||
			reqData.MarksPerQuestion != 0 || reqData.Deadline != nil ||
			(reqData.Status != "" && reqData.Status != "closed") {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Quiz cannot be edited after students have submitted!", nil)
		}
	}

	updates := map[string]interface{}{}
	if reqData.Title != "" {
		updates["title"] = reqData.Title
	}
	if reqData.TimeLimitMinutes > 0 {
		updates["time_limit_minutes"] = reqData.TimeLimitMinutes
	}
	if reqData.MarksPerQuestion > 0 {
		updates["marks_per_question"] = reqData.MarksPerQuestion
		updates["total_marks"] = float64(quiz.TotalQuestions) * reqData.MarksPerQuestion
	}
	if reqData.Deadline != nil {
		updates["deadline"] = *reqData.Deadline
	}
	if reqData.Status != "" {
		updates["status"] = reqData.Status
	}

	if len(updates) > 0 {
		if err := db.Model(quiz).Updates(updates).Error; err != nil {
			log.Printf("Error updating quiz: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update quiz!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz updated!", quiz)
}

func DeleteQuiz(c *fiber.Ctx) error {
	db := database.Database.Db

	quiz, err := loadOwnedQuiz(c, db)
	if quiz == nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.QuizQuestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.QuizSubmission{}).Error; err != nil {
			return err
		}
		return tx.Delete(quiz).Error
	})
	if err != nil {
		log.Printf("Error deleting quiz: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz deleted!", nil)
}

func AddQuestion(c *fiber.Ctx) error {
	reqData := c.Locals("validatedQuestion").(*quizValidator.AddQuestionRequest)
	db := database.Database.Db

	quiz, err := loadOwnedQuiz(c, db)
	if quiz == nil {
		return err
	}

	if hasSubmissions(db, quiz.ID) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Quiz cannot be edited after students have submitted!", nil)
	}
	if quiz.TotalQuestions >= quizValidator.MaxQuestions {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A quiz can have at most 50 questions!", nil)
	}

	options, err := marshalOptions(reqData.Options)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid options!", nil)
	}

	question := models.QuizQuestion{
		QuizID:             quiz.ID,
		QuestionText:       reqData.QuestionText,
		Options:            options,
		CorrectOptionIndex: reqData.CorrectOptionIndex,
		OrderIndex:         quiz.TotalQuestions,
	}
	if err := db.Create(&question).Error; err != nil {
		log.Printf("Error adding question: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add question!", nil)
	}

	if err := refreshTotals(db, quiz); err != nil {
		log.Printf("Error refreshing quiz totals: %v", err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question added!", question)
}

func UpdateQuestion(c *fiber.Ctx) error {
	reqData := c.Locals("validatedQuestionUpdate").(*quizValidator.UpdateQuestionRequest)
	db := database.Database.Db

	quiz, err := loadOwnedQuiz(c, db)
	if quiz == nil {
		return err
	}

	if hasSubmissions(db, quiz.ID) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Quiz cannot be edited after students have submitted!", nil)
	}

	questionID, convErr := strconv.Atoi(c.Params("questionId"))
	if convErr != nil || questionID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid question ID!", nil)
	}

	var question models.QuizQuestion
	if err := db.Where("id = ? AND quiz_id = ?", questionID, quiz.ID).First(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.QuestionText != "" {
		updates["question_text"] = reqData.QuestionText
	}
	if len(reqData.Options) > 0 {
		options, err := marshalOptions(reqData.Options)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid options!", nil)
		}
		updates["options"] = options
	}
	if reqData.CorrectOptionIndex != nil {
		updates["correct_option_index"] = *reqData.CorrectOptionIndex
	}

	if len(updates) > 0 {
		if err := db.Model(&question).Updates(updates).Error; err != nil {
			log.Printf("Error updating question: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update question!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question updated!", question)
}

func RemoveQuestion(c *fiber.Ctx) error {
	db := database.Database.Db

	quiz, err := loadOwnedQuiz(c, db)
	if quiz == nil {
		return err
	}

	if hasSubmissions(db, quiz.ID) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Quiz cannot be edited after students have submitted!", nil)
	}
	if quiz.TotalQuestions <= quizValidator.MinQuestions {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A quiz must keep at least 1 question!", nil)
	}

	questionID, convErr := strconv.Atoi(c.Params("questionId"))
	if convErr != nil || questionID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid question ID!", nil)
	}

	result := db.Where("id = ? AND quiz_id = ?", questionID, quiz.ID).Delete(&models.QuizQuestion{})
	if result.Error != nil {
		log.Printf("Error removing question: %v", result.Error)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to remove question!", nil)
	}
	if result.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}

	// Close the gap so order indexes stay contiguous
	var remaining []models.QuizQuestion
	if err := db.Where("quiz_id = ?", quiz.ID).Order("order_index").Find(&remaining).Error; err == nil {
		for i, q := range remaining {
			if q.OrderIndex != i {
				db.Model(&models.QuizQuestion{}).Where("id = ?", q.ID).Update("order_index", i)
			}
		}
	}

	if err := refreshTotals(db, quiz); err != nil {
		log.Printf("Error refreshing quiz totals: %v", err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question removed!", nil)
}

// SubmitQuiz grades the student's answers. One submission per quiz; answers
// to unknown questions are ignored, unanswered questions score zero.
func SubmitQuiz(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedSubmission").(*quizValidator.SubmitQuizRequest)
	db := database.Database.Db

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil || quizID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz ID!", nil)
	}

	var quiz models.Quiz
	if err := db.First(&quiz, quizID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	var enrollment models.Enrollment
	if err := db.Where("student_id = ? AND course_id = ? AND status = ?", studentID, quiz.CourseID, "active").
		First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	if quiz.Status != "published" {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Quiz is not open for submissions!", nil)
	}
	if time.Now().After(quiz.Deadline) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Quiz deadline has passed!", nil)
	}

	var existing models.QuizSubmission
	if err := db.Where("quiz_id = ? AND student_id = ?", quiz.ID, studentID).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You have already submitted this quiz!", nil)
	}

	var questions []models.QuizQuestion
	if err := db.Where("quiz_id = ?", quiz.ID).Find(&questions).Error; err != nil {
		log.Printf("Error fetching questions: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit quiz!", nil)
	}

	correctByID := make(map[uint]int, len(questions))
	for _, q := range questions {
		correctByID[q.ID] = q.CorrectOptionIndex
	}

	// Answers to unknown questions are ignored; unanswered questions score zero
	correct := 0
	evaluation := make([]fiber.Map, 0, len(reqData.Answers))
	for _, answer := range reqData.Answers {
		expected, known := correctByID[answer.QuestionID]
		isCorrect := known && expected == answer.SelectedIndex
		if isCorrect {
			correct++
		}
		if known {
			evaluation = append(evaluation, fiber.Map{
				"questionId":    answer.QuestionID,
				"selectedIndex": answer.SelectedIndex,
				"correctIndex":  expected,
				"correct":       isCorrect,
			})
		}
	}
	score := float64(correct) * quiz.MarksPerQuestion

	answers, err := json.Marshal(reqData.Answers)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid answers!", nil)
	}

	submission := models.QuizSubmission{
		QuizID:      quiz.ID,
		StudentID:   studentID,
		Answers:     answers,
		Score:       score,
		SubmittedAt: time.Now(),
	}
	if err := db.Create(&submission).Error; err != nil {
		log.Printf("Error creating submission: %v", err)
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You have already submitted this quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz submitted!", fiber.Map{
		"score":      score,
		"totalMarks": quiz.TotalMarks,
		"correct":    correct,
		"questions":  len(questions),
		"evaluation": evaluation,
	})
}

// GetSubmissionResult returns the student's graded submission
func GetSubmissionResult(c *fiber.Ctx) error {
	studentID := c.Locals("userId").(uint)
	db := database.Database.Db

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil || quizID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz ID!", nil)
	}

	var submission models.QuizSubmission
	if err := db.Preload("Quiz").Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		First(&submission).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Submission not found!", nil)
	}

	// Re-grade the stored answers so the result shows per-question outcomes
	var questions []models.QuizQuestion
	if err := db.Where("quiz_id = ?", submission.QuizID).Order("order_index").Find(&questions).Error; err != nil {
		log.Printf("Error fetching questions: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submission!", nil)
	}

	var answers []quizValidator.AnswerInput
	if err := json.Unmarshal(submission.Answers, &answers); err != nil {
		log.Printf("Error decoding stored answers for submission %d: %v", submission.ID, err)
	}
	selectedByID := make(map[uint]int, len(answers))
	for _, a := range answers {
		selectedByID[a.QuestionID] = a.SelectedIndex
	}

	evaluation := make([]fiber.Map, 0, len(questions))
	for _, q := range questions {
		selected, answered := selectedByID[q.ID]
		entry := fiber.Map{
			"questionId":   q.ID,
			"questionText": q.QuestionText,
			"options":      q.Options,
			"correctIndex": q.CorrectOptionIndex,
			"answered":     answered,
			"correct":      answered && selected == q.CorrectOptionIndex,
		}
		if answered {
			entry["selectedIndex"] = selected
		}
		evaluation = append(evaluation, entry)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission fetched!", fiber.Map{
		"quizId":      submission.QuizID,
		"quizTitle":   submission.Quiz.Title,
		"score":       submission.Score,
		"totalMarks":  submission.Quiz.TotalMarks,
		"evaluation":  evaluation,
		"submittedAt": submission.SubmittedAt,
	})
}

// GetQuizSubmissions lists all submissions for a quiz the teacher owns
func GetQuizSubmissions(c *fiber.Ctx) error {
	db := database.Database.Db

	quiz, err := loadOwnedQuiz(c, db)
	if quiz == nil {
		return err
	}

	var submissions []models.QuizSubmission
	if err := db.Preload("Student").Where("quiz_id = ?", quiz.ID).
		Order("submitted_at").Find(&submissions).Error; err != nil {
		log.Printf("Error fetching submissions: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submissions!", nil)
	}

	result := make([]fiber.Map, 0, len(submissions))
	for _, s := range submissions {
		result = append(result, fiber.Map{
			"studentId":   s.StudentID,
			"firstName":   s.Student.FirstName,
			"lastName":    s.Student.LastName,
			"rollNumber":  s.Student.RollNumber,
			"score":       s.Score,
			"submittedAt": s.SubmittedAt,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submissions fetched!", fiber.Map{
		"quiz":        quiz,
		"submissions": result,
	})
}
