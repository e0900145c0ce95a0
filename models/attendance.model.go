package models

import (
	"time"

	"gorm.io/gorm"
)

type Attendance struct {
	gorm.Model
	StudentID  uint            `json:"student_id" gorm:"index;not null"`
	CourseID   uint            `json:"course_id" gorm:"index;not null"`
	ScheduleID *uint           `json:"schedule_id" gorm:"index"` // nil for ad-hoc sessions
	Date       time.Time       `json:"date"`
	Status     string          `json:"status" gorm:"default:'Present'"` // Present, Absent, Late
	Student    User            `json:"-" gorm:"foreignKey:StudentID"`
	Course     Course          `json:"-" gorm:"foreignKey:CourseID"`
	Schedule   *CourseSchedule `json:"-" gorm:"foreignKey:ScheduleID"`
}
