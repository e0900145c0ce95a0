package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email          string  `json:"email" gorm:"unique;not null"`
	Password       string  `json:"-" gorm:"not null"`
	Role           string  `json:"role" gorm:"default:'student'"` // student, teacher
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	RollNumber     *string `json:"roll_number" gorm:"unique"` // students only
	ProfilePicture string  `json:"profile_picture" gorm:"default:''"`
	// 512-float vector produced by the face service, opaque to us
	FaceEmbedding            datatypes.JSON `json:"-"`
	IsActive                 bool           `json:"is_active" gorm:"default:true"`
	EmailVerificationToken   string         `json:"-"`
	EmailVerificationExpires *time.Time     `json:"-"`
	PasswordResetToken       string         `json:"-"`
	PasswordResetExpires     *time.Time     `json:"-"`
}

type UserSession struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	RefreshToken string    `json:"-" gorm:"index;not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
	User         User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
