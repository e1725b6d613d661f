package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/controllers"
	"github.com/Fredric505/taller-api/middleware"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
	"github.com/Fredric505/taller-api/tests/testutil"
)

// RepairFlowIntegrationTestSuite exercises the repair lifecycle end to end:
// intake, status advancement, commission recording and payroll summaries,
// all through the HTTP layer with a real database.
type RepairFlowIntegrationTestSuite struct {
	suite.Suite
	db  *gorm.DB
	cfg *config.Config
}

// SetupSuite runs once before all tests
func (suite *RepairFlowIntegrationTestSuite) SetupSuite() {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Set test environment variables
	testutil.MustSetTestEnvironment(suite.T())
	os.Setenv("AUTH0_DOMAIN", "test.auth0.com")
	os.Setenv("AUTH0_AUDIENCE", "https://api.test.com")
	os.Setenv("PORT", "8080")
	// Mock AWS S3 credentials for testing
	os.Setenv("AWS_REGION", "us-east-1")
	os.Setenv("AWS_S3_BUCKET", "test-bucket")
	os.Setenv("AWS_ACCESS_KEY_ID", "test-key")
	os.Setenv("AWS_SECRET_ACCESS_KEY", "test-secret")

	// Load configuration
	cfg, err := config.Load()
	suite.NoError(err)
	suite.cfg = cfg
}

// SetupTest runs before each test
func (suite *RepairFlowIntegrationTestSuite) SetupTest() {
	// Create in-memory database for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)
	suite.db = db

	// Auto-migrate models
	err = db.AutoMigrate(
		&models.Workshop{},
		&models.User{},
		&models.Employee{},
		&models.Repair{},
		&models.EarningRecord{},
		&models.EmployeeLoan{},
	)
	suite.NoError(err)

	// Set the database in config
	config.SetDB(db)

	// Initialize services without external backends
	services.InitPayrollService(nil)
	services.InitLifecycleService()
	services.SetNotificationService(services.NoopNotificationService{})
}

// TearDownTest runs after each test
func (suite *RepairFlowIntegrationTestSuite) TearDownTest() {
	// Clean up database
	sqlDB, err := suite.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// mockAuthMiddleware simulates the JWT and user-resolution middleware for a
// known user
func (suite *RepairFlowIntegrationTestSuite) mockAuthMiddleware(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.Auth0ID)
		c.Set("access_token", "mock-token")
		c.Set("current_user", user)
		c.Next()
	}
}

// workshopRouter wires the workshop-scoped routes for one authenticated user
func (suite *RepairFlowIntegrationTestSuite) workshopRouter(user *models.User) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(suite.mockAuthMiddleware(user))
	{
		v1.POST("/repairs", controllers.CreateRepair)
		v1.GET("/repairs", controllers.ListRepairs)
		v1.GET("/repairs/:id", controllers.GetRepair)
		v1.PUT("/repairs/:id", controllers.UpdateRepair)
		v1.POST("/repairs/:id/advance", controllers.AdvanceRepairStatus)
		v1.GET("/earnings", controllers.ListMyEarnings)
		v1.GET("/earnings/summary", controllers.GetPeriodSummary)
		v1.POST("/loans", middleware.RequireAdmin(), controllers.CreateLoan)
		v1.POST("/loans/:id/pay", middleware.RequireAdmin(), controllers.MarkLoanPaid)
	}
	return router
}

func (suite *RepairFlowIntegrationTestSuite) createWorkshop() models.Workshop {
	trialEnd := time.Now().Add(7 * 24 * time.Hour)
	workshop := models.Workshop{
		Name:               "Taller Central",
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEnd,
	}
	suite.NoError(suite.db.Create(&workshop).Error)
	return workshop
}

func (suite *RepairFlowIntegrationTestSuite) createOwner(workshopID uint) models.User {
	owner := models.User{
		Auth0ID:    fmt.Sprintf("auth0|owner-%d", workshopID),
		Name:       "Carlos Mendoza",
		Email:      fmt.Sprintf("owner%d@taller.test", workshopID),
		Role:       models.RoleOwner,
		WorkshopID: &workshopID,
	}
	suite.NoError(suite.db.Create(&owner).Error)
	return owner
}

func (suite *RepairFlowIntegrationTestSuite) createEmployee(workshopID uint, rate, baseSalary float64) (models.User, models.Employee) {
	user := models.User{
		Auth0ID:    fmt.Sprintf("auth0|tech-%d-%0.f", workshopID, rate),
		Name:       "Jose Martinez",
		Email:      fmt.Sprintf("tech%d-%0.f@taller.test", workshopID, rate),
		Role:       models.RoleEmployee,
		WorkshopID: &workshopID,
	}
	suite.NoError(suite.db.Create(&user).Error)
	employee := models.Employee{
		WorkshopID:     workshopID,
		UserID:         user.ID,
		CommissionRate: rate,
		BaseSalary:     baseSalary,
		IsActive:       true,
		HiredAt:        time.Now(),
	}
	suite.NoError(suite.db.Create(&employee).Error)
	return user, employee
}

func (suite *RepairFlowIntegrationTestSuite) doJSON(router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		suite.NoError(err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

// TestRepairWorkflow_IntakeToDelivered walks one repair through the full
// happy path and checks the commission ledger afterwards.
func (suite *RepairFlowIntegrationTestSuite) TestRepairWorkflow_IntakeToDelivered() {
	workshop := suite.createWorkshop()
	owner := suite.createOwner(workshop.ID)
	techUser, employee := suite.createEmployee(workshop.ID, 10, 6000)

	ownerRouter := suite.workshopRouter(&owner)

	// Step 1: register the repair
	w, created := suite.doJSON(ownerRouter, http.MethodPost, "/api/v1/repairs", map[string]interface{}{
		"customer_name":   "Maria Lopez",
		"customer_phone":  "+505 8888 1234",
		"device_brand":    "Samsung",
		"device_model":    "Galaxy A54",
		"estimated_price": 800,
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.True(suite.T(), created["success"].(bool))

	repairData := created["data"].(map[string]interface{})
	repairID := int(repairData["id"].(float64))
	assert.Equal(suite.T(), "received", repairData["status"])
	assert.Equal(suite.T(), "NIO", repairData["currency"])

	// Step 2: advance received -> in_progress -> ready
	w, _ = suite.doJSON(ownerRouter, http.MethodPost, fmt.Sprintf("/api/v1/repairs/%d/advance", repairID), map[string]interface{}{
		"expected_status": "received",
		"target_status":   "in_progress",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, _ = suite.doJSON(ownerRouter, http.MethodPost, fmt.Sprintf("/api/v1/repairs/%d/advance", repairID), map[string]interface{}{
		"expected_status": "in_progress",
		"target_status":   "ready",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	// Step 3: deliver with pricing and the technician who did the work
	w, delivered := suite.doJSON(ownerRouter, http.MethodPost, fmt.Sprintf("/api/v1/repairs/%d/advance", repairID), map[string]interface{}{
		"expected_status": "ready",
		"target_status":   "delivered",
		"final_price":     750,
		"parts_cost":      200,
		"employee_id":     employee.ID,
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	deliveredData := delivered["data"].(map[string]interface{})
	assert.Equal(suite.T(), "delivered", deliveredData["status"])
	assert.Equal(suite.T(), float64(techUser.ID), deliveredData["technician_id"])
	assert.NotNil(suite.T(), deliveredData["completed_at"])

	// Step 4: the commission ledger has exactly one entry for the repair;
	// (750 - 200) * 10% = 55
	var earnings []models.EarningRecord
	suite.NoError(suite.db.Where("repair_id = ?", repairID).Find(&earnings).Error)
	assert.Len(suite.T(), earnings, 1)
	assert.Equal(suite.T(), employee.ID, earnings[0].EmployeeID)
	assert.InDelta(suite.T(), 550.0, earnings[0].NetProfit, 0.001)
	assert.InDelta(suite.T(), 55.0, earnings[0].CommissionEarned, 0.001)

	// Step 5: the technician sees the commission in the current period
	techRouter := suite.workshopRouter(&techUser)
	w, earningsResp := suite.doJSON(techRouter, http.MethodGet, "/api/v1/earnings", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), earningsResp["data"].([]interface{}), 1)

	// Step 6: the period summary reflects half the base plus the commission
	w, summaryResp := suite.doJSON(techRouter, http.MethodGet, "/api/v1/earnings/summary", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	summary := summaryResp["data"].(map[string]interface{})["summary"].(map[string]interface{})
	assert.InDelta(suite.T(), 55.0, summary["total_commission"].(float64), 0.001)
	assert.InDelta(suite.T(), 3055.0, summary["net_pay"].(float64), 0.001)
	assert.Equal(suite.T(), float64(1), summary["repairs_count"])
}

// TestRepairWorkflow_FailedRepair checks that a repair can drop out of the
// pipeline with a reason and produces no earnings
func (suite *RepairFlowIntegrationTestSuite) TestRepairWorkflow_FailedRepair() {
	workshop := suite.createWorkshop()
	owner := suite.createOwner(workshop.ID)
	router := suite.workshopRouter(&owner)

	_, created := suite.doJSON(router, http.MethodPost, "/api/v1/repairs", map[string]interface{}{
		"customer_name":   "Pedro Ruiz",
		"customer_phone":  "+505 7777 9999",
		"device_brand":    "Xiaomi",
		"device_model":    "Redmi Note 12",
		"estimated_price": 500,
	})
	repairID := int(created["data"].(map[string]interface{})["id"].(float64))

	w, failed := suite.doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/repairs/%d/advance", repairID), map[string]interface{}{
		"expected_status": "received",
		"target_status":   "failed",
		"failure_reason":  "El cliente no aprobó el presupuesto",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	failedData := failed["data"].(map[string]interface{})
	assert.Equal(suite.T(), "failed", failedData["status"])
	assert.Equal(suite.T(), "El cliente no aprobó el presupuesto", failedData["failure_reason"])

	var count int64
	suite.db.Model(&models.EarningRecord{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

// TestRepairWorkflow_InvalidTransition verifies stage skipping is rejected
func (suite *RepairFlowIntegrationTestSuite) TestRepairWorkflow_InvalidTransition() {
	workshop := suite.createWorkshop()
	owner := suite.createOwner(workshop.ID)
	router := suite.workshopRouter(&owner)

	_, created := suite.doJSON(router, http.MethodPost, "/api/v1/repairs", map[string]interface{}{
		"customer_name":   "Ana Castillo",
		"customer_phone":  "+505 5555 4321",
		"device_brand":    "Apple",
		"device_model":    "iPhone 13",
		"estimated_price": 1200,
	})
	repairID := int(created["data"].(map[string]interface{})["id"].(float64))

	w, response := suite.doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/repairs/%d/advance", repairID), map[string]interface{}{
		"expected_status": "received",
		"target_status":   "delivered",
		"final_price":     1200,
		"parts_cost":      300,
		"assign_to_owner": true,
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	errorData := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "INVALID_TRANSITION", errorData["code"])

	// The repair did not move
	var repair models.Repair
	suite.NoError(suite.db.First(&repair, repairID).Error)
	assert.Equal(suite.T(), "received", repair.Status)
}

// TestRepairWorkflow_StaleExpectedStatus simulates two operators racing on
// the same repair
func (suite *RepairFlowIntegrationTestSuite) TestRepairWorkflow_StaleExpectedStatus() {
	workshop := suite.createWorkshop()
	owner := suite.createOwner(workshop.ID)
	router := suite.workshopRouter(&owner)

	_, created := suite.doJSON(router, http.MethodPost, "/api/v1/repairs", map[string]interface{}{
		"customer_name":   "Luis Garcia",
		"customer_phone":  "+505 8123 7788",
		"device_brand":    "Motorola",
		"device_model":    "Moto G84",
		"estimated_price": 600,
	})
	repairID := int(created["data"].(map[string]interface{})["id"].(float64))

	// First operator wins
	w, _ := suite.doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/repairs/%d/advance", repairID), map[string]interface{}{
		"expected_status": "received",
		"target_status":   "in_progress",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	// Second operator still thinks the repair is in received
	w, response := suite.doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/repairs/%d/advance", repairID), map[string]interface{}{
		"expected_status": "received",
		"target_status":   "in_progress",
	})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	errorData := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "CONFLICT", errorData["code"])
}

// TestRepairVisibility_EmployeeScope verifies an employee only lists repairs
// they created or were assigned
func (suite *RepairFlowIntegrationTestSuite) TestRepairVisibility_EmployeeScope() {
	workshop := suite.createWorkshop()
	owner := suite.createOwner(workshop.ID)
	techUser, _ := suite.createEmployee(workshop.ID, 10, 5000)

	repairs := []models.Repair{
		{WorkshopID: workshop.ID, CustomerName: "A", CustomerPhone: "1", DeviceBrand: "Samsung", DeviceModel: "S21", Status: models.StatusReceived, Currency: models.CurrencyNIO, EstimatedPrice: 100, CreatedByID: owner.ID},
		{WorkshopID: workshop.ID, CustomerName: "B", CustomerPhone: "2", DeviceBrand: "Apple", DeviceModel: "SE", Status: models.StatusReceived, Currency: models.CurrencyNIO, EstimatedPrice: 200, CreatedByID: techUser.ID},
		{WorkshopID: workshop.ID, CustomerName: "C", CustomerPhone: "3", DeviceBrand: "Xiaomi", DeviceModel: "12T", Status: models.StatusDelivered, Currency: models.CurrencyNIO, EstimatedPrice: 300, CreatedByID: owner.ID, TechnicianID: &techUser.ID},
	}
	for i := range repairs {
		suite.NoError(suite.db.Create(&repairs[i]).Error)
	}

	// Owner sees everything
	w, ownerList := suite.doJSON(suite.workshopRouter(&owner), http.MethodGet, "/api/v1/repairs", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), ownerList["data"].([]interface{}), 3)

	// Employee sees their own intake plus the assigned repair
	w, techList := suite.doJSON(suite.workshopRouter(&techUser), http.MethodGet, "/api/v1/repairs", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), techList["data"].([]interface{}), 2)
}

// TestTenantIsolation_CrossWorkshopAccess verifies one workshop can never
// read another workshop's repairs
func (suite *RepairFlowIntegrationTestSuite) TestTenantIsolation_CrossWorkshopAccess() {
	workshopA := suite.createWorkshop()
	workshopB := suite.createWorkshop()
	ownerA := suite.createOwner(workshopA.ID)
	ownerB := suite.createOwner(workshopB.ID)

	_, created := suite.doJSON(suite.workshopRouter(&ownerA), http.MethodPost, "/api/v1/repairs", map[string]interface{}{
		"customer_name":   "Cliente A",
		"customer_phone":  "+505 8400 0001",
		"device_brand":    "Samsung",
		"device_model":    "A14",
		"estimated_price": 350,
	})
	repairID := int(created["data"].(map[string]interface{})["id"].(float64))

	w, response := suite.doJSON(suite.workshopRouter(&ownerB), http.MethodGet, fmt.Sprintf("/api/v1/repairs/%d", repairID), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	errorData := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "NOT_FOUND", errorData["code"])
}

// TestSubscriptionGate_ExpiredWorkshop verifies the subscription middleware
// blocks gated routes once the trial lapses
func (suite *RepairFlowIntegrationTestSuite) TestSubscriptionGate_ExpiredWorkshop() {
	expired := time.Now().Add(-24 * time.Hour)
	workshop := models.Workshop{
		Name:               "Taller Vencido",
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &expired,
	}
	suite.NoError(suite.db.Create(&workshop).Error)
	owner := suite.createOwner(workshop.ID)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(suite.mockAuthMiddleware(&owner), middleware.RequireSubscription())
	v1.GET("/repairs", controllers.ListRepairs)

	w, response := suite.doJSON(router, http.MethodGet, "/api/v1/repairs", nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	errorData := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "SUBSCRIPTION_EXPIRED", errorData["code"])
}

// TestLoanWorkflow_DeductionAndRepayment verifies an unpaid loan reduces the
// period net pay and drops out once marked paid
func (suite *RepairFlowIntegrationTestSuite) TestLoanWorkflow_DeductionAndRepayment() {
	workshop := suite.createWorkshop()
	owner := suite.createOwner(workshop.ID)
	techUser, employee := suite.createEmployee(workshop.ID, 10, 6000)

	ownerRouter := suite.workshopRouter(&owner)
	techRouter := suite.workshopRouter(&techUser)

	// Owner hands out a cash advance
	w, created := suite.doJSON(ownerRouter, http.MethodPost, "/api/v1/loans", map[string]interface{}{
		"employee_id": employee.ID,
		"amount":      500,
		"description": "Adelanto de quincena",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	loanID := int(created["data"].(map[string]interface{})["id"].(float64))

	// The loan is deducted in full from the period pay
	w, summaryResp := suite.doJSON(techRouter, http.MethodGet, "/api/v1/earnings/summary", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	summary := summaryResp["data"].(map[string]interface{})["summary"].(map[string]interface{})
	assert.InDelta(suite.T(), 500.0, summary["total_loans"].(float64), 0.001)
	assert.InDelta(suite.T(), 2500.0, summary["net_pay"].(float64), 0.001)

	// Mark the loan paid; the deduction disappears
	w, _ = suite.doJSON(ownerRouter, http.MethodPost, fmt.Sprintf("/api/v1/loans/%d/pay", loanID), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, summaryResp = suite.doJSON(techRouter, http.MethodGet, "/api/v1/earnings/summary", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	summary = summaryResp["data"].(map[string]interface{})["summary"].(map[string]interface{})
	assert.InDelta(suite.T(), 0.0, summary["total_loans"].(float64), 0.001)
	assert.InDelta(suite.T(), 3000.0, summary["net_pay"].(float64), 0.001)

	// Paying twice is rejected
	w, response := suite.doJSON(ownerRouter, http.MethodPost, fmt.Sprintf("/api/v1/loans/%d/pay", loanID), nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "ALREADY_PAID", errorData["code"])
}

// TestLoanWorkflow_EmployeeCannotManageLoans verifies loan routes stay
// admin-only
func (suite *RepairFlowIntegrationTestSuite) TestLoanWorkflow_EmployeeCannotManageLoans() {
	workshop := suite.createWorkshop()
	techUser, employee := suite.createEmployee(workshop.ID, 10, 5000)

	w, response := suite.doJSON(suite.workshopRouter(&techUser), http.MethodPost, "/api/v1/loans", map[string]interface{}{
		"employee_id": employee.ID,
		"amount":      300,
	})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	errorData := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "FORBIDDEN", errorData["code"])
}

// TestWorkshopRegistration_StartsTrial covers the public signup route
func (suite *RepairFlowIntegrationTestSuite) TestWorkshopRegistration_StartsTrial() {
	router := gin.New()
	router.POST("/api/v1/workshops/register", controllers.RegisterWorkshop)

	w, response := suite.doJSON(router, http.MethodPost, "/api/v1/workshops/register", map[string]interface{}{
		"name":           "Celulares Juanito",
		"owner_auth0_id": "auth0|juanito",
		"owner_email":    "juanito@taller.test",
		"owner_name":     "Juan Obregon",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	data := response["data"].(map[string]interface{})
	assert.Equal(suite.T(), "trial", data["subscription_status"])
	assert.NotNil(suite.T(), data["trial_ends_at"])

	// The owner login was provisioned inside the same transaction
	var owner models.User
	suite.NoError(suite.db.Where("auth0_id = ?", "auth0|juanito").First(&owner).Error)
	assert.Equal(suite.T(), models.RoleOwner, owner.Role)
	assert.NotNil(suite.T(), owner.WorkshopID)
}

// TestRepairFlowIntegrationSuite runs the test suite
func TestRepairFlowIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RepairFlowIntegrationTestSuite))
}
