package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/middleware"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
)

// CreateLoanRequest represents the request body for registering a cash
// advance to an employee
type CreateLoanRequest struct {
	EmployeeID  uint    `json:"employee_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description *string `json:"description"`
}

// CreateLoan handles POST /api/v1/loans - registers a cash advance.
// Routed behind RequireAdmin.
func CreateLoan(c *gin.Context) {
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

	var req CreateLoanRequest
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
	if err := db.Where("id = ? AND workshop_id = ?", req.EmployeeID, tenant.WorkshopID).First(&employee).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Employee not found",
			},
		})
		return
	}

	loan := models.EmployeeLoan{
		WorkshopID:  tenant.WorkshopID,
		EmployeeID:  employee.ID,
		Amount:      req.Amount,
		Description: req.Description,
		LoanDate:    time.Now(),
		IsPaid:      false,
		CreatedByID: tenant.ActorID,
	}

	if err := db.Create(&loan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create loan",
			},
		})
		return
	}

	services.GetPayrollService().InvalidateCache(tenant.WorkshopID, employee.ID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    loan,
	})
}

// ListLoans handles GET /api/v1/loans - lists the workshop's loans, newest
// first. Optional employee_id and unpaid=true query filters. Routed behind
// RequireAdmin.
func ListLoans(c *gin.Context) {
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
	if employeeID := c.Query("employee_id"); employeeID != "" {
		query = query.Where("employee_id = ?", employeeID)
	}
	if c.Query("unpaid") == "true" {
		query = query.Where("is_paid = ?", false)
	}

	var loans []models.EmployeeLoan
	if err := query.Preload("Employee").Preload("Employee.User").Order("loan_date DESC").Find(&loans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list loans",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    loans,
	})
}

// MarkLoanPaid handles POST /api/v1/loans/:id/pay - settles a loan.
// Paying is one-way; a settled loan never reverts to unpaid. Routed behind
// RequireAdmin.
func MarkLoanPaid(c *gin.Context) {
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

	loanID, ok := parseIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var loan models.EmployeeLoan
	if err := db.Where("id = ? AND workshop_id = ?", loanID, tenant.WorkshopID).First(&loan).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Loan not found",
			},
		})
		return
	}

	if loan.IsPaid {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ALREADY_PAID",
				"message": "This loan has already been settled",
			},
		})
		return
	}

	now := time.Now()
	if err := db.Model(&loan).Updates(map[string]interface{}{
		"is_paid": true,
		"paid_at": now,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to mark loan as paid",
			},
		})
		return
	}

	services.GetPayrollService().InvalidateCache(tenant.WorkshopID, loan.EmployeeID)

	loan.IsPaid = true
	loan.PaidAt = &now
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    loan,
	})
}
