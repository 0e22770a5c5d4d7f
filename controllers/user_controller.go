// File: /controllers/user_controller.go
package controllers

import (
	"net/http"

	"eldtrip-api/models"
	"eldtrip-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	db *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var user models.User
	if err := uc.db.First(&user, "id = ?", userID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "User not found")
		return
	}

	user.Password = ""
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	CarrierName   *string `json:"carrier_name"`
	LicenseNumber *string `json:"license_number"`
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := uc.db.First(&user, "id = ?", userID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "User not found")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.CarrierName != nil {
		updates["carrier_name"] = *req.CarrierName
	}
	if req.LicenseNumber != nil {
		updates["license_number"] = *req.LicenseNumber
	}

	if len(updates) > 0 {
		if err := uc.db.Model(&user).Updates(updates).Error; err != nil {
			utils.SendError(c, http.StatusInternalServerError, "Failed to update profile")
			return
		}
	}

	user.Password = ""
	utils.SendSuccess(c, "Profile updated", user)
}
