package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jakejheack/hanapp/internal/common"
	"github.com/jakejheack/hanapp/internal/models"
	"gorm.io/gorm"
)

func (h *Handler) GetUserByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid user id")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40401, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{
		"id":                  user.ID,
		"full_name":           user.FullName,
		"role":                user.Role,
		"profile_picture_url": user.ProfilePictureURL,
		"address_details":     user.AddressDetails,
		"average_rating":      user.AverageRating,
		"review_count":        user.ReviewCount,
		"is_available":        user.IsAvailable,
		"is_verified":         user.IsVerified,
	})
}

type updateAvailabilityReq struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// UpdateAvailability flips the doer's matching flag. The locator and
// the coordinator both read it, so a doer going offline stops showing
// up in searches immediately.
func (h *Handler) UpdateAvailability(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req updateAvailabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "is_available required")
		return
	}

	res := h.DB.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ? AND role = ? AND is_deleted = ?", uid, models.RoleDoer, false).
		Update("is_available", *req.IsAvailable)
	if res.Error != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	if res.RowsAffected == 0 {
		common.Fail(c, http.StatusNotFound, 40402, "doer not found")
		return
	}

	common.OK(c, gin.H{"id": uid, "is_available": *req.IsAvailable})
}
