package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/middleware"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
)

// ListMyEarnings handles GET /api/v1/earnings - lists the acting
// technician's commission entries for a period, newest first. Defaults to
// the current biweekly window.
func ListMyEarnings(c *gin.Context) {
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
	var employee models.Employee
	if err := db.Where("user_id = ? AND workshop_id = ?", tenant.ActorID, tenant.WorkshopID).First(&employee).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "No payroll record for the current user",
			},
		})
		return
	}

	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	var earnings []models.EarningRecord
	if err := db.Where("workshop_id = ? AND employee_id = ? AND earnings_date BETWEEN ? AND ?",
		tenant.WorkshopID, employee.ID, start, end).
		Order("earnings_date DESC").Find(&earnings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list earnings",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    earnings,
	})
}

// GetPeriodSummary handles GET /api/v1/earnings/summary - the pay stub for
// a period: base half, commissions, loan deductions and net pay. Admins may
// pass employee_id to inspect any technician; employees get their own.
func GetPeriodSummary(c *gin.Context) {
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
	var employee models.Employee

	if raw := c.Query("employee_id"); raw != "" {
		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Only admins can view other employees' pay",
				},
			})
			return
		}
		employeeID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid employee_id parameter",
				},
			})
			return
		}
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
	} else {
		if err := db.Where("user_id = ? AND workshop_id = ?", tenant.ActorID, tenant.WorkshopID).First(&employee).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "No payroll record for the current user",
				},
			})
			return
		}
	}

	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	summary, err := services.GetPayrollService().ComputePeriodEarnings(tenant, employee.ID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"employee_id":  employee.ID,
			"period_start": start.Format("2006-01-02"),
			"period_end":   end.Format("2006-01-02"),
			"summary":      summary,
		},
	})
}

// GetEmployeeProfitability handles GET /api/v1/employees/:id/profitability -
// tells the owner whether a technician's commissions this month cover the
// biweekly base they are owed. Routed behind RequireAdmin.
func GetEmployeeProfitability(c *gin.Context) {
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

	monthStart, monthEnd := services.MonthPeriod(time.Now())
	coversBase, err := services.GetPayrollService().CoversBase(tenant, employee.ID, monthStart, monthEnd)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"employee_id": employee.ID,
			"month_start": monthStart.Format("2006-01-02"),
			"month_end":   monthEnd.Format("2006-01-02"),
			"covers_base": coversBase,
		},
	})
}

// parsePeriod reads optional start/end query parameters (YYYY-MM-DD). When
// absent the current biweekly window applies. On bad input it writes the
// error response and returns false.
func parsePeriod(c *gin.Context) (time.Time, time.Time, bool) {
	start, end := services.BiweeklyPeriod(time.Now())

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "start must be a YYYY-MM-DD date",
				},
			})
			return time.Time{}, time.Time{}, false
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "end must be a YYYY-MM-DD date",
				},
			})
			return time.Time{}, time.Time{}, false
		}
		// extend to the last instant of the end day so BETWEEN is inclusive
		end = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 0, parsed.Location())
	}

	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "end must not be before start",
			},
		})
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}
