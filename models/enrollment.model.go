package models

import (
	"time"

	"gorm.io/gorm"
)

type Enrollment struct {
	gorm.Model
	StudentID  uint       `json:"student_id" gorm:"uniqueIndex:idx_student_course;not null"`
	CourseID   uint       `json:"course_id" gorm:"uniqueIndex:idx_student_course;not null"`
	Status     string     `json:"status" gorm:"default:'active'"` // active, dropped, completed
	Progress   int        `json:"progress" gorm:"default:0"`
	EnrolledAt time.Time  `json:"enrolled_at"`
	DroppedAt  *time.Time `json:"dropped_at"`
	Student    User       `json:"-" gorm:"foreignKey:StudentID"`
	Course     Course     `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}
