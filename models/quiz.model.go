package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	gorm.Model
	Title            string    `json:"title" gorm:"default:'Untitled Quiz'"`
	CourseID         uint      `json:"course_id" gorm:"index;not null"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	TotalQuestions   int       `json:"total_questions"`
	MarksPerQuestion float64   `json:"marks_per_question"`
	TotalMarks       float64   `json:"total_marks"`
	Deadline         time.Time `json:"deadline"`
	Status           string    `json:"status" gorm:"default:'draft'"` // draft, published, closed
	CreatedBy        uint      `json:"created_by" gorm:"index;not null"`
	Course           Course    `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Teacher          User      `json:"-" gorm:"foreignKey:CreatedBy"`
}

type QuizQuestion struct {
	gorm.Model
	QuizID             uint           `json:"quiz_id" gorm:"index;not null"`
	QuestionText       string         `json:"question_text" gorm:"not null"`
	Options            datatypes.JSON `json:"options" gorm:"not null"` // array of option strings
	CorrectOptionIndex int            `json:"correct_option_index"`
	OrderIndex         int            `json:"order_index"`
	Quiz               Quiz           `json:"-" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

type QuizSubmission struct {
	gorm.Model
	QuizID      uint           `json:"quiz_id" gorm:"uniqueIndex:idx_quiz_student;not null"`
	StudentID   uint           `json:"student_id" gorm:"uniqueIndex:idx_quiz_student;not null"`
	Answers     datatypes.JSON `json:"answers" gorm:"not null"` // [{questionId, selectedIndex}]
	Score       float64        `json:"score"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Quiz        Quiz           `json:"-" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	Student     User           `json:"-" gorm:"foreignKey:StudentID"`
}
