package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/models"
)

// setupServiceTestDB creates an in-memory database with all domain models
// migrated and installs it as the application database.
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Workshop{},
		&models.User{},
		&models.Employee{},
		&models.Repair{},
		&models.EarningRecord{},
		&models.EmployeeLoan{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	InitPayrollService(nil)
	InitLifecycleService()

	return db
}

func createTestWorkshop(t *testing.T, db *gorm.DB, name string) *models.Workshop {
	t.Helper()
	workshop := &models.Workshop{
		Name:               name,
		SubscriptionStatus: models.SubscriptionActive,
	}
	if err := db.Create(workshop).Error; err != nil {
		t.Fatalf("Failed to create test workshop: %v", err)
	}
	return workshop
}

func createTestUser(t *testing.T, db *gorm.DB, workshopID uint, auth0ID, role string) *models.User {
	t.Helper()
	user := &models.User{
		Auth0ID:    auth0ID,
		Name:       "Test " + role,
		Email:      auth0ID + "@example.com",
		Role:       role,
		WorkshopID: &workshopID,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestEmployee(t *testing.T, db *gorm.DB, workshopID, userID uint, rate, baseSalary float64) *models.Employee {
	t.Helper()
	employee := &models.Employee{
		WorkshopID:     workshopID,
		UserID:         userID,
		CommissionRate: rate,
		BaseSalary:     baseSalary,
		IsActive:       true,
		HiredAt:        time.Now(),
	}
	if err := db.Create(employee).Error; err != nil {
		t.Fatalf("Failed to create test employee: %v", err)
	}
	return employee
}

func createTestRepair(t *testing.T, db *gorm.DB, workshopID, createdByID uint, status string) *models.Repair {
	t.Helper()
	repair := &models.Repair{
		WorkshopID:     workshopID,
		CustomerName:   "Maria Lopez",
		CustomerPhone:  "+50588881234",
		DeviceBrand:    "Samsung",
		DeviceModel:    "Galaxy S21",
		Status:         status,
		Currency:       models.CurrencyNIO,
		EstimatedPrice: 500,
		CreatedByID:    createdByID,
	}
	if err := db.Create(repair).Error; err != nil {
		t.Fatalf("Failed to create test repair: %v", err)
	}
	return repair
}

func createTestEarning(t *testing.T, db *gorm.DB, workshopID, employeeID, repairID uint, date time.Time, gross, parts, commission float64) *models.EarningRecord {
	t.Helper()
	record := &models.EarningRecord{
		WorkshopID:       workshopID,
		EmployeeID:       employeeID,
		RepairID:         repairID,
		EarningsDate:     date,
		GrossIncome:      gross,
		PartsCost:        parts,
		NetProfit:        gross - parts,
		CommissionEarned: commission,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("Failed to create test earning: %v", err)
	}
	return record
}

func createTestLoan(t *testing.T, db *gorm.DB, workshopID, employeeID, createdByID uint, amount float64, date time.Time, paid bool) *models.EmployeeLoan {
	t.Helper()
	loan := &models.EmployeeLoan{
		WorkshopID:  workshopID,
		EmployeeID:  employeeID,
		Amount:      amount,
		LoanDate:    date,
		IsPaid:      paid,
		CreatedByID: createdByID,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("Failed to create test loan: %v", err)
	}
	return loan
}

func floatPtr(f float64) *float64 {
	return &f
}
