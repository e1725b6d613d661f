package controllers

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
)

// setupDomainTestDB opens an in-memory database with the full schema and
// wires it plus the domain services into the package globals.
func setupDomainTestDB(t *testing.T) *gorm.DB {
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
	services.InitPayrollService(nil)
	services.InitLifecycleService()
	services.SetNotificationService(services.NoopNotificationService{})

	return db
}

// mockTenantMiddleware simulates EnsureValidToken plus ResolveUser: it puts
// the acting user into the context the way the real middleware chain does.
func mockTenantMiddleware(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.Auth0ID)
		c.Set("current_user", user)
		c.Next()
	}
}

func createWorkshopFixture(t *testing.T, db *gorm.DB, name string) *models.Workshop {
	trialEndsAt := time.Now().AddDate(0, 0, trialDays)
	workshop := models.Workshop{
		Name:               name,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEndsAt,
	}
	if err := db.Create(&workshop).Error; err != nil {
		t.Fatalf("Failed to create workshop fixture: %v", err)
	}
	return &workshop
}

func createUserFixture(t *testing.T, db *gorm.DB, workshopID uint, auth0ID, role string) *models.User {
	user := models.User{
		Auth0ID:    auth0ID,
		Name:       "User " + auth0ID,
		Email:      auth0ID + "@example.com",
		Role:       role,
		WorkshopID: &workshopID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user fixture: %v", err)
	}
	return &user
}

func createEmployeeFixture(t *testing.T, db *gorm.DB, workshopID, userID uint, rate, baseSalary float64) *models.Employee {
	employee := models.Employee{
		WorkshopID:     workshopID,
		UserID:         userID,
		CommissionRate: rate,
		BaseSalary:     baseSalary,
		IsActive:       true,
		HiredAt:        time.Now(),
	}
	if err := db.Create(&employee).Error; err != nil {
		t.Fatalf("Failed to create employee fixture: %v", err)
	}
	return &employee
}

func createRepairFixture(t *testing.T, db *gorm.DB, workshopID, createdByID uint, status string) *models.Repair {
	repair := models.Repair{
		WorkshopID:     workshopID,
		CustomerName:   "Maria Lopez",
		CustomerPhone:  "+50588881234",
		DeviceBrand:    "Samsung",
		DeviceModel:    "Galaxy A54",
		Status:         status,
		Currency:       models.CurrencyNIO,
		EstimatedPrice: 800,
		CreatedByID:    createdByID,
	}
	if err := db.Create(&repair).Error; err != nil {
		t.Fatalf("Failed to create repair fixture: %v", err)
	}
	return &repair
}
