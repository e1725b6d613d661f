package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/middleware"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
	"github.com/Fredric505/taller-api/utils"
)

// UploadDevicePhoto handles POST /api/v1/repairs/:id/photos/:slot - attaches
// a device photo to a repair. Slot is "received" (device at intake) or
// "delivered" (device at handover). Re-uploading a slot replaces the photo.
func UploadDevicePhoto(c *gin.Context) {
	tenant, _, err := middleware.GetTenant(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not resolve the current user",
			},
		})
		return
	}

	repairID, ok := parseIDParam(c)
	if !ok {
		return
	}

	slot := c.Param("slot")
	if !services.ValidPhotoSlot(slot) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Photo slot must be received or delivered",
			},
		})
		return
	}

	db := config.GetDB()
	var repair models.Repair
	if err := db.Where("id = ? AND workshop_id = ?", repairID, tenant.WorkshopID).First(&repair).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Repair not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "A photo file is required",
			},
		})
		return
	}

	if err := utils.ValidateImageFile(fileHeader); err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid photo file",
			},
		})
		return
	}

	photoKey, err := services.GetPhotoService().UploadDevicePhoto(repair.ID, slot, fileHeader)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	column := "photo_received_key"
	if slot == services.PhotoSlotDelivered {
		column = "photo_delivered_key"
	}
	if err := db.Model(&repair).Update(column, photoKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to attach photo to repair",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"repair_id": repair.ID,
			"slot":      slot,
			"photo_key": photoKey,
		},
	})
}

// GetDevicePhotoURL handles GET /api/v1/repairs/:id/photos/:slot - returns a
// short-lived presigned URL for the photo in the given slot
func GetDevicePhotoURL(c *gin.Context) {
	tenant, _, err := middleware.GetTenant(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not resolve the current user",
			},
		})
		return
	}

	repairID, ok := parseIDParam(c)
	if !ok {
		return
	}

	slot := c.Param("slot")
	if !services.ValidPhotoSlot(slot) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Photo slot must be received or delivered",
			},
		})
		return
	}

	db := config.GetDB()
	var repair models.Repair
	if err := db.Where("id = ? AND workshop_id = ?", repairID, tenant.WorkshopID).First(&repair).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Repair not found",
			},
		})
		return
	}

	photoKey := repair.PhotoReceivedKey
	if slot == services.PhotoSlotDelivered {
		photoKey = repair.PhotoDeliveredKey
	}
	if photoKey == nil || *photoKey == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "No photo uploaded for this slot",
			},
		})
		return
	}

	url, err := services.GetPhotoService().GetPhotoURL(*photoKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"repair_id": repair.ID,
			"slot":      slot,
			"url":       url,
		},
	})
}
