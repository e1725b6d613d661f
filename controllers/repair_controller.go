package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/middleware"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
)

// CreateRepairRequest represents the request body for registering a repair
type CreateRepairRequest struct {
	CustomerName      string   `json:"customer_name" binding:"required"`
	CustomerPhone     string   `json:"customer_phone" binding:"required"`
	DeviceBrand       string   `json:"device_brand" binding:"required"`
	DeviceModel       string   `json:"device_model" binding:"required"`
	DeviceIMEI        *string  `json:"device_imei"`
	RepairDescription *string  `json:"repair_description"`
	Currency          string   `json:"currency"`
	EstimatedPrice    float64  `json:"estimated_price" binding:"required,gt=0"`
	Deposit           *float64 `json:"deposit"`
	WarrantyDays      *int     `json:"warranty_days"`
}

// UpdateRepairRequest represents the request body for editing intake data.
// Status, pricing outcome and assignment are not editable here; those change
// only through the advance endpoint.
type UpdateRepairRequest struct {
	CustomerName      *string  `json:"customer_name"`
	CustomerPhone     *string  `json:"customer_phone"`
	DeviceBrand       *string  `json:"device_brand"`
	DeviceModel       *string  `json:"device_model"`
	DeviceIMEI        *string  `json:"device_imei"`
	RepairDescription *string  `json:"repair_description"`
	TechnicalNotes    *string  `json:"technical_notes"`
	EstimatedPrice    *float64 `json:"estimated_price"`
	Deposit           *float64 `json:"deposit"`
	WarrantyDays      *int     `json:"warranty_days"`
}

// AdvanceRepairRequest represents the request body for a status transition.
// ExpectedStatus is the status the caller last saw; the transition is
// rejected with a conflict when someone else moved the repair first.
type AdvanceRepairRequest struct {
	ExpectedStatus string   `json:"expected_status" binding:"required"`
	TargetStatus   string   `json:"target_status" binding:"required"`
	FailureReason  string   `json:"failure_reason"`
	FinalPrice     *float64 `json:"final_price"`
	PartsCost      *float64 `json:"parts_cost"`
	AssignToOwner  bool     `json:"assign_to_owner"`
	EmployeeID     *uint    `json:"employee_id"`
}

// CreateRepair handles POST /api/v1/repairs - registers a device for repair
func CreateRepair(c *gin.Context) {
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

	var req CreateRepairRequest
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

	currency := req.Currency
	if currency == "" {
		currency = models.CurrencyNIO
	}
	if currency != models.CurrencyNIO && currency != models.CurrencyUSD {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Currency must be NIO or USD",
			},
		})
		return
	}

	repair := models.Repair{
		WorkshopID:        tenant.WorkshopID,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		DeviceBrand:       req.DeviceBrand,
		DeviceModel:       req.DeviceModel,
		DeviceIMEI:        req.DeviceIMEI,
		RepairDescription: req.RepairDescription,
		Status:            models.StatusReceived,
		Currency:          currency,
		EstimatedPrice:    req.EstimatedPrice,
		Deposit:           req.Deposit,
		WarrantyDays:      req.WarrantyDays,
		CreatedByID:       tenant.ActorID,
	}

	db := config.GetDB()
	if err := db.Create(&repair).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create repair",
			},
		})
		return
	}

	if err := db.Preload("CreatedBy").First(&repair, repair.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load repair details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    repair,
	})
}

// ListRepairs handles GET /api/v1/repairs - lists the workshop's repairs.
// Admins see everything; employees see only repairs they registered or
// delivered. An optional status query parameter filters by current status.
func ListRepairs(c *gin.Context) {
	tenant, user, err := middleware.GetTenant(c)
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

	db := config.GetDB()
	query := db.Where("workshop_id = ?", tenant.WorkshopID)

	if !user.IsAdmin() {
		query = query.Where("created_by_id = ? OR technician_id = ?", tenant.ActorID, tenant.ActorID)
	}

	if status := c.Query("status"); status != "" {
		if !models.IsValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Unknown repair status: " + status,
				},
			})
			return
		}
		query = query.Where("status = ?", status)
	}

	var repairs []models.Repair
	if err := query.Preload("CreatedBy").Preload("Technician").Order("created_at DESC").Find(&repairs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list repairs",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    repairs,
	})
}

// GetRepair handles GET /api/v1/repairs/:id - fetches a single repair
func GetRepair(c *gin.Context) {
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

	db := config.GetDB()
	var repair models.Repair
	if err := db.Where("id = ? AND workshop_id = ?", repairID, tenant.WorkshopID).
		Preload("CreatedBy").Preload("Technician").
		First(&repair).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Repair not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    repair,
	})
}

// UpdateRepair handles PUT /api/v1/repairs/:id - edits intake fields.
// Terminal repairs are frozen and cannot be edited.
func UpdateRepair(c *gin.Context) {
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

	var req UpdateRepairRequest
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

	if models.IsTerminalStatus(repair.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REPAIR_FINALIZED",
				"message": "Delivered and failed repairs cannot be edited",
			},
		})
		return
	}

	updates := make(map[string]interface{})
	if req.CustomerName != nil {
		updates["customer_name"] = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		updates["customer_phone"] = *req.CustomerPhone
	}
	if req.DeviceBrand != nil {
		updates["device_brand"] = *req.DeviceBrand
	}
	if req.DeviceModel != nil {
		updates["device_model"] = *req.DeviceModel
	}
	if req.DeviceIMEI != nil {
		updates["device_imei"] = *req.DeviceIMEI
	}
	if req.RepairDescription != nil {
		updates["repair_description"] = *req.RepairDescription
	}
	if req.TechnicalNotes != nil {
		updates["technical_notes"] = *req.TechnicalNotes
	}
	if req.EstimatedPrice != nil {
		if *req.EstimatedPrice <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Estimated price must be positive",
				},
			})
			return
		}
		updates["estimated_price"] = *req.EstimatedPrice
	}
	if req.Deposit != nil {
		updates["deposit"] = *req.Deposit
	}
	if req.WarrantyDays != nil {
		updates["warranty_days"] = *req.WarrantyDays
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    repair,
		})
		return
	}

	if err := db.Model(&repair).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update repair",
			},
		})
		return
	}

	if err := db.Preload("CreatedBy").Preload("Technician").First(&repair, repair.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load repair details",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    repair,
	})
}

// AdvanceRepairStatus handles POST /api/v1/repairs/:id/advance - moves a
// repair through its lifecycle. Delivering records the technician's earning
// in the same transaction; reaching a terminal state notifies the workshop.
func AdvanceRepairStatus(c *gin.Context) {
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

	var req AdvanceRepairRequest
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

	var assignee services.Assignee
	if req.AssignToOwner {
		assignee = services.OwnerAssignee()
	} else if req.EmployeeID != nil {
		assignee = services.EmployeeAssignee(*req.EmployeeID)
	}

	repair, err := services.GetLifecycleService().Advance(tenant, repairID, req.ExpectedStatus, req.TargetStatus, services.TransitionContext{
		FailureReason: req.FailureReason,
		FinalPrice:    req.FinalPrice,
		PartsCost:     req.PartsCost,
		Assignee:      assignee,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if models.IsTerminalStatus(repair.Status) {
		notifyRepairFinalized(tenant.WorkshopID, repair)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    repair,
	})
}

// DeleteRepair handles DELETE /api/v1/repairs/:id - soft-deletes a repair.
// Routed behind RequireAdmin.
func DeleteRepair(c *gin.Context) {
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

	if err := db.Delete(&repair).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete repair",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Repair deleted",
		},
	})
}

// notifyRepairFinalized sends the terminal-state Telegram notification.
// Sent in the background so a slow Telegram API never delays the response.
func notifyRepairFinalized(workshopID uint, repair *models.Repair) {
	db := config.GetDB()
	var workshop models.Workshop
	if err := db.First(&workshop, workshopID).Error; err != nil {
		return
	}

	notifier := services.GetNotificationService()
	repairCopy := *repair
	go func() {
		if repairCopy.Status == models.StatusDelivered {
			notifier.NotifyRepairDelivered(&workshop, &repairCopy)
		} else {
			notifier.NotifyRepairFailed(&workshop, &repairCopy)
		}
	}()
}

// parseIDParam reads the :id path parameter; on bad input it writes the
// error response and returns false.
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid id parameter",
			},
		})
		return 0, false
	}
	return uint(id), true
}
