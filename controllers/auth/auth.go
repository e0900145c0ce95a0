package authController

import (
	"encoding/json"
	"io"
	"log"
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	authValidator "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// generateTokens mints an access/refresh pair and records the refresh session
func generateTokens(db *gorm.DB, user *models.User) (*tokenPair, error) {
	accessToken, err := middleware.GenerateJWT(user.ID, user.Email, user.Role, middleware.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := middleware.GenerateJWT(user.ID, user.Email, user.Role, middleware.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	session := models.UserSession{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(middleware.RefreshTokenTTL),
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, err
	}

	return &tokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// readFaceImage pulls the uploaded face image out of the multipart form
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

func Register(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRegister").(*authValidator.RegisterRequest)
	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := utils.HashPassword(reqData.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		FirstName: reqData.FirstName,
		LastName:  reqData.LastName,
		Email:     reqData.Email,
		Password:  hashedPassword,
		Role:      reqData.Role,
		IsActive:  true,
	}

	// Students get a roll number
	if reqData.Role == "student" {
		rollNumber, err := utils.GenerateUniqueRollNumber(db)
		if err != nil {
			log.Printf("Error generating roll number: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
		}
		newUser.RollNumber = &rollNumber
	}

	// Face enrollment is part of signup
	image, filename, err := readFaceImage(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Face image is required!", nil)
	}
	detectResult, err := utils.DetectFace(image, filename)
	if err != nil {
		log.Printf("Face service error during registration: %v", err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Face service is unavailable, please try again later!", nil)
	}
	if !detectResult.Success || len(detectResult.Embedding) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "No face detected in the uploaded image!", nil)
	}

	embedding, err := json.Marshal(detectResult.Embedding)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
	}
	newUser.FaceEmbedding = embedding

	// Email verification token, stored hashed
	verificationToken, err := utils.GenerateSecureToken()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
	}
	hashedToken, err := utils.HashToken(verificationToken)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
	}
	expires := time.Now().Add(24 * time.Hour)
	newUser.EmailVerificationToken = hashedToken
	newUser.EmailVerificationExpires = &expires

	if err := db.Create(&newUser).Error; err != nil {
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
	}

	utils.SendVerificationEmail(newUser.Email, newUser.FirstName, newUser.ID, verificationToken)

	tokens, err := generateTokens(db, &newUser)
	if err != nil {
		log.Printf("Error generating tokens: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Registration successful! Please verify your email.", fiber.Map{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"user": fiber.Map{
			"id":         newUser.ID,
			"email":      newUser.Email,
			"role":       newUser.Role,
			"rollNumber": newUser.RollNumber,
		},
	})
}

func Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	db := database.Database.Db

	var user models.User
	lookup := db
	if reqData.Email != "" {
		lookup = lookup.Where("email = ?", reqData.Email)
	} else {
		lookup = lookup.Where("roll_number = ?", reqData.RollNumber)
	}
	if err := lookup.First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	if !user.IsActive {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Account is deactivated!", nil)
	}

	// Face and password are alternative factors: a request carrying a face
	// image authenticates against the stored embedding, anything else against
	// the password
	var faceVerification fiber.Map
	if image, filename, imgErr := readFaceImage(c); imgErr == nil {
		if len(user.FaceEmbedding) == 0 {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "No face enrolled. Please update your profile picture first!", nil)
		}
		verifyResult, err := utils.VerifyFace(image, filename, user.FaceEmbedding)
		if err != nil {
			log.Printf("Face service error during login: %v", err)
			return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Face service is unavailable, please try again later!", nil)
		}
		log.Printf("Face login for user %d: match=%v similarity=%.3f confidence=%.3f",
			user.ID, verifyResult.IsMatch, verifyResult.Similarity, verifyResult.Confidence)
		if !utils.FaceMatchAccepted(verifyResult) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Face verification failed!", nil)
		}
		faceVerification = fiber.Map{
			"verified":   true,
			"similarity": verifyResult.Similarity,
			"confidence": verifyResult.Confidence,
		}
	} else if !utils.ComparePassword(user.Password, reqData.Password) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	tokens, err := generateTokens(db, &user)
	if err != nil {
		log.Printf("Error generating tokens: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to login!", nil)
	}

	data := fiber.Map{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"user": fiber.Map{
			"id":             user.ID,
			"email":          user.Email,
			"firstName":      user.FirstName,
			"lastName":       user.LastName,
			"role":           user.Role,
			"rollNumber":     user.RollNumber,
			"profilePicture": utils.GetFileURL(user.ProfilePicture),
			"faceEnrolled":   len(user.FaceEmbedding) > 0,
		},
	}
	if faceVerification != nil {
		data["faceVerification"] = faceVerification
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful!", data)
}

// RefreshToken rotates the refresh session: the presented token is retired
// and a new pair is issued
func RefreshToken(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRefresh").(*authValidator.RefreshTokenRequest)
	db := database.Database.Db

	var session models.UserSession
	if err := db.Where("refresh_token = ?", reqData.RefreshToken).First(&session).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid refresh token!", nil)
	}

	if time.Now().After(session.ExpiresAt) {
		db.Unscoped().Delete(&session)
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Refresh token expired!", nil)
	}

	var user models.User
	if err := db.First(&user, session.UserID).Error; err != nil || !user.IsActive {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid refresh token!", nil)
	}

	if err := db.Unscoped().Delete(&session).Error; err != nil {
		log.Printf("Error rotating refresh session: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to refresh token!", nil)
	}

	tokens, err := generateTokens(db, &user)
	if err != nil {
		log.Printf("Error generating tokens: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to refresh token!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Token refreshed!", tokens)
}

func Logout(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	db := database.Database.Db

	reqData := new(authValidator.RefreshTokenRequest)
	if err := c.BodyParser(reqData); err == nil && reqData.RefreshToken != "" {
		db.Unscoped().Where("user_id = ? AND refresh_token = ?", userID, reqData.RefreshToken).Delete(&models.UserSession{})
	} else {
		db.Unscoped().Where("user_id = ?", userID).Delete(&models.UserSession{})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged out!", nil)
}

func GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	db := database.Database.Db

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched!", fiber.Map{
		"id":             user.ID,
		"email":          user.Email,
		"firstName":      user.FirstName,
		"lastName":       user.LastName,
		"role":           user.Role,
		"rollNumber":     user.RollNumber,
		"profilePicture": utils.GetFileURL(user.ProfilePicture),
		"faceEnrolled":   len(user.FaceEmbedding) > 0,
		"emailVerified":  user.EmailVerificationToken == "",
		"createdAt":      user.CreatedAt,
	})
}

func VerifyEmail(c *fiber.Ctx) error {
	reqData := c.Locals("validatedVerifyEmail").(*authValidator.VerifyEmailRequest)
	db := database.Database.Db

	var user models.User
	if err := db.First(&user, reqData.UserID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid verification link!", nil)
	}

	if user.EmailVerificationToken == "" {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Email already verified!", nil)
	}

	if user.EmailVerificationExpires == nil || time.Now().After(*user.EmailVerificationExpires) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Verification link has expired!", nil)
	}

	if !utils.CompareToken(user.EmailVerificationToken, reqData.Token) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid verification link!", nil)
	}

	updates := map[string]interface{}{
		"email_verification_token":   "",
		"email_verification_expires": nil,
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Error verifying email: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify email!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Email verified!", nil)
}

func ResendVerification(c *fiber.Ctx) error {
	reqData := c.Locals("validatedResendVerification").(*authValidator.ResendVerificationRequest)
	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		// Do not reveal whether the address exists
		return middleware.JsonResponse(c, fiber.StatusOK, true, "If the account exists, a verification email has been sent.", nil)
	}

	if user.EmailVerificationToken == "" {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Email already verified!", nil)
	}

	verificationToken, err := utils.GenerateSecureToken()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}
	hashedToken, err := utils.HashToken(verificationToken)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	expires := time.Now().Add(24 * time.Hour)
	if err := db.Model(&user).Updates(map[string]interface{}{
		"email_verification_token":   hashedToken,
		"email_verification_expires": expires,
	}).Error; err != nil {
		log.Printf("Error storing verification token: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	utils.SendVerificationEmail(user.Email, user.FirstName, user.ID, verificationToken)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "If the account exists, a verification email has been sent.", nil)
}

func ForgotPassword(c *fiber.Ctx) error {
	reqData := c.Locals("validatedForgotPassword").(*authValidator.ForgotPasswordRequest)
	db := database.Database.Db

	// Always respond 200 so the endpoint cannot be used to probe accounts
	response := func() error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "If the account exists, a reset email has been sent.", nil)
	}

	var user models.User
	if err := db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		return response()
	}

	resetToken, err := utils.GenerateSecureToken()
	if err != nil {
		log.Printf("Error generating reset token: %v", err)
		return response()
	}
	hashedToken, err := utils.HashToken(resetToken)
	if err != nil {
		log.Printf("Error hashing reset token: %v", err)
		return response()
	}

	expires := time.Now().Add(time.Hour)
	if err := db.Model(&user).Updates(map[string]interface{}{
		"password_reset_token":   hashedToken,
		"password_reset_expires": expires,
	}).Error; err != nil {
		log.Printf("Error storing reset token: %v", err)
		return response()
	}

	utils.SendPasswordResetEmail(user.Email, user.FirstName, user.ID, resetToken)

	return response()
}

func ResetPassword(c *fiber.Ctx) error {
	reqData := c.Locals("validatedResetPassword").(*authValidator.ResetPasswordRequest)
	db := database.Database.Db

	var user models.User
	if err := db.First(&user, reqData.UserID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid or expired reset link!", nil)
	}

	if user.PasswordResetToken == "" || user.PasswordResetExpires == nil || time.Now().After(*user.PasswordResetExpires) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid or expired reset link!", nil)
	}

	if !utils.CompareToken(user.PasswordResetToken, reqData.Token) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid or expired reset link!", nil)
	}

	hashedPassword, err := utils.HashPassword(reqData.NewPassword)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reset password!", nil)
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"password":               hashedPassword,
		"password_reset_token":   "",
		"password_reset_expires": nil,
	}).Error; err != nil {
		log.Printf("Error resetting password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reset password!", nil)
	}

	// Kill every active session so stolen tokens stop working
	db.Unscoped().Where("user_id = ?", user.ID).Delete(&models.UserSession{})

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password reset successful!", nil)
}

func ChangePassword(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedChangePassword").(*authValidator.ChangePasswordRequest)
	db := database.Database.Db

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	if !utils.ComparePassword(user.Password, reqData.CurrentPassword) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Current password is incorrect!", nil)
	}

	hashedPassword, err := utils.HashPassword(reqData.NewPassword)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to change password!", nil)
	}

	if err := db.Model(&user).Update("password", hashedPassword).Error; err != nil {
		log.Printf("Error changing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to change password!", nil)
	}

	// Existing sessions are invalidated; the client must log in again
	db.Unscoped().Where("user_id = ?", user.ID).Delete(&models.UserSession{})

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed! Please log in again.", nil)
}
