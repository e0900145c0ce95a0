package utils

import (
	"log"
	"time"

	"lms/database"
	"lms/models"

	"github.com/robfig/cron/v3"
)

// InitializeSchedulers starts the background maintenance jobs
func InitializeSchedulers() {
	log.Println("[SCHEDULER] Initializing background jobs...")

	c := cron.New()

	// Close quizzes whose deadline has passed
	c.AddFunc("@hourly", func() {
		CloseExpiredQuizzes()
	})

	// Purge expired refresh sessions once a day
	c.AddFunc("@daily", func() {
		PurgeExpiredSessions()
	})

	c.Start()
	log.Println("[SCHEDULER] Background jobs started")
}

// CloseExpiredQuizzes moves published quizzes past their deadline to closed
func CloseExpiredQuizzes() {
	db := database.Database.Db

	result := db.Model(&models.Quiz{}).
		Where("status = ? AND deadline < ?", "published", time.Now()).
		Update("status", "closed")
	if result.Error != nil {
		log.Printf("[SCHEDULER] Error closing expired quizzes: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("[SCHEDULER] Closed %d expired quizzes", result.RowsAffected)
	}
}

// PurgeExpiredSessions deletes refresh sessions past their expiry
func PurgeExpiredSessions() {
	db := database.Database.Db

	result := db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&models.UserSession{})
	if result.Error != nil {
		log.Printf("[SCHEDULER] Error purging expired sessions: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("[SCHEDULER] Purged %d expired sessions", result.RowsAffected)
	}
}
