package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"lms/config"
	"lms/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GenerateRollNumber builds a roll number like "RN250042"
func GenerateRollNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	year := time.Now().Year() % 100
	return fmt.Sprintf("RN%02d%04d", year, n.Int64()), nil
}

// GenerateUniqueRollNumber retries until the roll number is unused
func GenerateUniqueRollNumber(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		rollNumber, err := GenerateRollNumber()
		if err != nil {
			return "", err
		}

		var count int64
		if err := db.Model(&models.User{}).Where("roll_number = ?", rollNumber).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return rollNumber, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique roll number")
}

// GenerateSecureToken returns a 64-char hex token for email verification
// and password reset links
func GenerateSecureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken hashes a one-time token before it is stored
func HashToken(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), config.AppConfig.SaltRound)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareToken checks a plain token against its stored hash
func CompareToken(hashedToken, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(token)) == nil
}

// HashPassword hashes a user password with the configured cost
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), config.AppConfig.SaltRound)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword checks a plain password against its stored hash
func ComparePassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
