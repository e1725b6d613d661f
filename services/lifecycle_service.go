package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/models"
)

// TransitionContext carries the fields a target status may require: a failure
// reason for failed, and pricing plus an assignee for delivered.
type TransitionContext struct {
	FailureReason string
	FinalPrice    *float64
	PartsCost     *float64
	Assignee      Assignee
}

// LifecycleService owns the repair status field. All status changes go through
// Advance; nothing else writes status, completed_at, final_price, parts_cost,
// technician_id or failure_reason.
type LifecycleService interface {
	// Advance moves a repair to the target status. expectedStatus is the status
	// the caller last observed; if the stored status differs the call fails
	// with a ConflictError and nothing changes. Either the repair reaches the
	// target with all required side fields set, or it is left untouched.
	Advance(tenant Tenant, repairID uint, expectedStatus, targetStatus string, tc TransitionContext) (*models.Repair, error)
}

// RepairLifecycleService implements LifecycleService against the application
// database, delegating earning creation to the payroll service.
type RepairLifecycleService struct{}

var lifecycleServiceInstance LifecycleService

// InitLifecycleService initializes the lifecycle service
func InitLifecycleService() LifecycleService {
	lifecycleServiceInstance = &RepairLifecycleService{}
	return lifecycleServiceInstance
}

// GetLifecycleService returns the initialized lifecycle service instance
func GetLifecycleService() LifecycleService {
	return lifecycleServiceInstance
}

// SetLifecycleService sets the lifecycle service instance (primarily for testing)
func SetLifecycleService(service LifecycleService) {
	lifecycleServiceInstance = service
}

// Advance performs one status transition inside a single database transaction.
// The delivered transition writes the repair and its earning record together,
// so a storage failure on either leaves the repair unchanged.
func (s *RepairLifecycleService) Advance(tenant Tenant, repairID uint, expectedStatus, targetStatus string, tc TransitionContext) (*models.Repair, error) {
	db := config.GetDB()

	err := db.Transaction(func(tx *gorm.DB) error {
		var repair models.Repair
		if err := tx.Where("id = ? AND workshop_id = ?", repairID, tenant.WorkshopID).First(&repair).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "repair", ID: repairID}
			}
			return &StorageError{Op: "load repair", Err: err}
		}

		if repair.Status != expectedStatus {
			return &ConflictError{Expected: expectedStatus, Actual: repair.Status}
		}
		if !models.CanTransition(repair.Status, targetStatus) {
			return &InvalidTransitionError{From: repair.Status, To: targetStatus}
		}

		now := time.Now()
		updates := map[string]interface{}{"status": targetStatus}

		switch targetStatus {
		case models.StatusFailed:
			if strings.TrimSpace(tc.FailureReason) == "" {
				return &ValidationError{Field: "failure_reason", Message: "a failure reason is required to mark a repair as failed"}
			}
			updates["failure_reason"] = tc.FailureReason
			updates["completed_at"] = now

		case models.StatusDelivered:
			if tc.FinalPrice == nil {
				return &ValidationError{Field: "final_price", Message: "final price is required to deliver a repair"}
			}
			if tc.PartsCost == nil {
				return &ValidationError{Field: "parts_cost", Message: "parts cost is required to deliver a repair"}
			}
			if tc.Assignee.IsZero() {
				return &ValidationError{Field: "assignee", Message: "an assignee is required to deliver a repair"}
			}

			updates["final_price"] = *tc.FinalPrice
			updates["parts_cost"] = *tc.PartsCost
			updates["completed_at"] = now

			if tc.Assignee.IsOwner() {
				// The owner did the repair themselves: no commission
				updates["technician_id"] = tenant.ActorID
			} else {
				employeeID, _ := tc.Assignee.Employee()
				var employee models.Employee
				if err := tx.Where("id = ? AND workshop_id = ?", employeeID, tenant.WorkshopID).First(&employee).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return &NotFoundError{Resource: "employee", ID: employeeID}
					}
					return &StorageError{Op: "load employee", Err: err}
				}
				if !employee.IsActive {
					return &InactiveAssigneeError{EmployeeID: employee.ID}
				}

				updates["technician_id"] = employee.UserID

				if _, err := GetPayrollService().RecordEarning(tx, tenant, &employee, &repair, *tc.FinalPrice, *tc.PartsCost); err != nil {
					return err
				}
			}
		}

		if err := tx.Model(&models.Repair{}).Where("id = ?", repair.ID).Updates(updates).Error; err != nil {
			return &StorageError{Op: "update repair", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated models.Repair
	if err := db.Preload("Technician").Where("id = ?", repairID).First(&updated).Error; err != nil {
		return nil, &StorageError{Op: "reload repair", Err: err}
	}
	return &updated, nil
}
