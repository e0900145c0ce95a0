package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	gorm.Model
	Name          string           `json:"name" gorm:"not null"`
	Description   string           `json:"description"`
	Categories    datatypes.JSON   `json:"categories"` // array of tag strings
	Curriculum    string           `json:"curriculum"`
	TotalSessions int              `json:"total_sessions"`
	TeacherID     uint             `json:"teacher_id" gorm:"index;not null"`
	Teacher       User             `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Schedules     []CourseSchedule `json:"schedules,omitempty" gorm:"foreignKey:CourseID"`
}

// CourseSchedule is one recurring weekly slot of a course.
// DayOfWeek is stored 1-7 (Monday..Sunday); Sunday is additionally matched
// as 0 when comparing against the platform weekday.
type CourseSchedule struct {
	gorm.Model
	CourseID  uint   `json:"course_id" gorm:"index;not null"`
	DayOfWeek int    `json:"day_of_week" gorm:"not null"`
	StartTime string `json:"start_time" gorm:"not null"` // "HH:MM:SS" wall clock
	EndTime   string `json:"end_time" gorm:"not null"`
	Topic     string `json:"topic" gorm:"default:'Regular Class'"`
	MeetLink  string `json:"meet_link"`
	Course    Course `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}
