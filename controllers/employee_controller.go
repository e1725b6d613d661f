package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/middleware"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
)

// CreateEmployeeRequest represents the request body for hiring a technician.
// The login identity is created first in Auth0; this endpoint links it to
// the workshop's payroll.
type CreateEmployeeRequest struct {
	Auth0ID        string  `json:"auth0_id" binding:"required"`
	Email          string  `json:"email" binding:"required,email"`
	Name           string  `json:"name" binding:"required"`
	CommissionRate float64 `json:"commission_rate" binding:"gte=0,lte=100"`
	BaseSalary     float64 `json:"base_salary" binding:"gte=0"`
}

// UpdateEmployeeRequest represents the request body for changing pay terms
type UpdateEmployeeRequest struct {
	CommissionRate *float64 `json:"commission_rate"`
	BaseSalary     *float64 `json:"base_salary"`
}

// CreateEmployee handles POST /api/v1/employees - hires a technician.
// Creates the workshop-scoped user profile and the payroll record in one
// transaction. Routed behind RequireAdmin.
func CreateEmployee(c *gin.Context) {
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

	var req CreateEmployeeRequest
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
	workshopID := tenant.WorkshopID

	var employee models.Employee
	txErr := db.Transaction(func(tx *gorm.DB) error {
		user := models.User{
			Auth0ID:    req.Auth0ID,
			Email:      req.Email,
			Name:       req.Name,
			Role:       models.RoleEmployee,
			WorkshopID: &workshopID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		employee = models.Employee{
			WorkshopID:     workshopID,
			UserID:         user.ID,
			CommissionRate: req.CommissionRate,
			BaseSalary:     req.BaseSalary,
			IsActive:       true,
			HiredAt:        time.Now(),
		}
		return tx.Create(&employee).Error
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
				"message": "Failed to create employee",
			},
		})
		return
	}

	if err := db.Preload("User").First(&employee, employee.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load employee details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    employee,
	})
}

// ListEmployees handles GET /api/v1/employees - lists the workshop's
// technicians. Inactive ones are included unless active=true is passed.
// Routed behind RequireAdmin.
func ListEmployees(c *gin.Context) {
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

	db := config.GetDB()
	query := db.Where("workshop_id = ?", tenant.WorkshopID)
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var employees []models.Employee
	if err := query.Preload("User").Order("created_at ASC").Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list employees",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    employees,
	})
}

// UpdateEmployee handles PUT /api/v1/employees/:id - changes pay terms.
// Rate changes apply to future deliveries only; recorded commissions keep
// the rate in force when the repair was delivered. Routed behind
// RequireAdmin.
func UpdateEmployee(c *gin.Context) {
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

	employeeID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateEmployeeRequest
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
	var employee models.Employee
	if err := db.Where("id = ? AND workshop_id = ?", employeeID, tenant.WorkshopID).First(&employee).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Employee not found",
			},
		})
		return
	}

	updates := make(map[string]interface{})
	if req.CommissionRate != nil {
		if *req.CommissionRate < 0 || *req.CommissionRate > 100 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Commission rate must be between 0 and 100",
				},
			})
			return
		}
		updates["commission_rate"] = *req.CommissionRate
	}
	if req.BaseSalary != nil {
		if *req.BaseSalary < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Base salary cannot be negative",
				},
			})
			return
		}
		updates["base_salary"] = *req.BaseSalary
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    employee,
		})
		return
	}

	if err := db.Model(&employee).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update employee",
			},
		})
		return
	}

	services.GetPayrollService().InvalidateCache(tenant.WorkshopID, employee.ID)

	if err := db.Preload("User").First(&employee, employee.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load employee details",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    employee,
	})
}

// DeactivateEmployee handles DELETE /api/v1/employees/:id - takes a
// technician off active duty. The payroll history stays; the employee can
// no longer be assigned deliveries. Routed behind RequireAdmin.
func DeactivateEmployee(c *gin.Context) {
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

	employeeID, ok := parseIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var employee models.Employee
	if err := db.Where("id = ? AND workshop_id = ?", employeeID, tenant.WorkshopID).First(&employee).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Employee not found",
			},
		})
		return
	}

	if err := db.Model(&employee).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to deactivate employee",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Employee deactivated",
		},
	})
}
