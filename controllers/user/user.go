package userController

import (
	"encoding/json"
	"errors"
	"io"
	"log"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfilePicture saves the uploaded picture and refreshes the user's
// face enrollment from it. Face extraction failing does not fail the upload;
// the user keeps their previous embedding.
func UpdateProfilePicture(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	db := database.Database.Db

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	fileHeader, err := c.FormFile("profilePicture")
	if err != nil {
		fileHeader, err = c.FormFile("image")
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Profile picture is required!", nil)
	}

	filePath, err := utils.SaveUploadedFile(fileHeader, config.AppConfig.UploadDir)
	if errors.Is(err, utils.ErrUnsupportedImageType) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only JPG, PNG or WEBP images are allowed!", nil)
	}
	if err != nil {
		log.Printf("Error saving profile picture: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save profile picture!", nil)
	}

	updates := map[string]interface{}{"profile_picture": filePath}

	// Refresh the face enrollment from the new picture
	file, err := fileHeader.Open()
	if err == nil {
		image, readErr := io.ReadAll(file)
		file.Close()
		if readErr == nil {
			detectResult, detectErr := utils.DetectFace(image, fileHeader.Filename)
			if detectErr != nil {
				log.Printf("Face service error during profile update: %v", detectErr)
			} else if detectResult.Success && len(detectResult.Embedding) > 0 {
				if embedding, marshalErr := json.Marshal(detectResult.Embedding); marshalErr == nil {
					updates["face_embedding"] = embedding
				}
			} else {
				log.Printf("No face detected in profile picture for user %d", userID)
			}
		}
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Error updating profile: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}

	_, faceUpdated := updates["face_embedding"]

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile picture updated!", fiber.Map{
		"profilePicture": utils.GetFileURL(filePath),
		"faceUpdated":    faceUpdated,
	})
}

// UpdateProfile updates basic profile fields
func UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	db := database.Database.Db

	reqData := new(struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.FirstName != "" {
		updates["first_name"] = reqData.FirstName
	}
	if reqData.LastName != "" {
		updates["last_name"] = reqData.LastName
	}
	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}

	if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		log.Printf("Error updating profile: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated!", nil)
}
