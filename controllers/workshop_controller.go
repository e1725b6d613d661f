package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
)

const trialDays = 7

// RegisterWorkshopRequest represents the request body for signing up a
// workshop. The owner signs up in Auth0 first, then registers here.
type RegisterWorkshopRequest struct {
	Name         string  `json:"name" binding:"required"`
	Email        *string `json:"email"`
	Whatsapp     *string `json:"whatsapp"`
	OwnerAuth0ID string  `json:"owner_auth0_id" binding:"required"`
	OwnerEmail   string  `json:"owner_email" binding:"required,email"`
	OwnerName    string  `json:"owner_name" binding:"required"`
}

// UpdateSubscriptionRequest represents the request body for the superadmin
// subscription update
type UpdateSubscriptionRequest struct {
	SubscriptionStatus string     `json:"subscription_status" binding:"required"`
	PaidUntil          *time.Time `json:"paid_until"`
}

// RegisterWorkshop handles POST /api/v1/workshops/register - creates a
// workshop on a free trial together with its owner profile. This is the
// only unauthenticated write endpoint.
func RegisterWorkshop(c *gin.Context) {
	var req RegisterWorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	trialEndsAt := time.Now().AddDate(0, 0, trialDays)
	workshop := models.Workshop{
		Name:               req.Name,
		Email:              req.Email,
		Whatsapp:           req.Whatsapp,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEndsAt,
	}

	db := config.GetDB()
	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&workshop).Error; err != nil {
			return err
		}
		owner := models.User{
			Auth0ID:    req.OwnerAuth0ID,
			Email:      req.OwnerEmail,
			Name:       req.OwnerName,
			Role:       models.RoleOwner,
			WorkshopID: &workshop.ID,
		}
		return tx.Create(&owner).Error
	})
	if txErr != nil {
		errMsg := strings.ToLower(txErr.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_EXISTS",
					"message": "A user with this Auth0 ID or email already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to register workshop",
			},
		})
		return
	}

	notifier := services.GetNotificationService()
	registered := workshop
	go notifier.NotifyWorkshopRegistered(&registered)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    workshop,
	})
}

// ListWorkshops handles GET /api/v1/admin/workshops - lists every tenant.
// Routed behind RequireSuperadmin.
func ListWorkshops(c *gin.Context) {
	db := config.GetDB()
	var workshops []models.Workshop
	if err := db.Order("created_at ASC").Find(&workshops).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list workshops",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    workshops,
	})
}

// UpdateWorkshopSubscription handles PUT /api/v1/admin/workshops/:id/subscription -
// activates, extends or expires a tenant after an out-of-band payment.
// Routed behind RequireSuperadmin.
func UpdateWorkshopSubscription(c *gin.Context) {
	workshopID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	switch req.SubscriptionStatus {
	case models.SubscriptionTrial, models.SubscriptionActive, models.SubscriptionExpired:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Subscription status must be trial, active or expired",
			},
		})
		return
	}

	if req.SubscriptionStatus == models.SubscriptionActive && req.PaidUntil == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "paid_until is required when activating a subscription",
			},
		})
		return
	}

	db := config.GetDB()
	var workshop models.Workshop
	if err := db.First(&workshop, workshopID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Workshop not found",
			},
		})
		return
	}

	updates := map[string]interface{}{
		"subscription_status": req.SubscriptionStatus,
	}
	if req.PaidUntil != nil {
		updates["paid_until"] = *req.PaidUntil
	}

	if err := db.Model(&workshop).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update subscription",
			},
		})
		return
	}

	if err := db.First(&workshop, workshop.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load workshop details",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    workshop,
	})
}
