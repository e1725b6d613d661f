package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/models"
)

const (
	// payrollCachePrefix namespaces cached period summaries in Redis
	payrollCachePrefix = "payroll:"
	// payrollCacheTTL bounds staleness of a cached summary
	payrollCacheTTL = 5 * time.Minute
)

// PeriodSummary is the read-only result of a pay-period computation
type PeriodSummary struct {
	TotalCommission float64 `json:"total_commission"`
	TotalLoans      float64 `json:"total_loans"`
	BaseSalary      float64 `json:"base_salary"` // half the monthly base, matching the biweekly cycle
	NetPay          float64 `json:"net_pay"`     // base + commission - loans, may be negative
	RepairsCount    int     `json:"repairs_count"`
	TotalNetProfit  float64 `json:"total_net_profit"`
}

// PayrollService derives per-employee earnings from delivered repairs, unpaid
// loans and the employee's compensation terms.
type PayrollService interface {
	// RecordEarning writes one immutable commission ledger entry for a repair.
	// It runs on the caller's transaction so the repair update and the earning
	// insert commit or roll back together.
	RecordEarning(tx *gorm.DB, tenant Tenant, employee *models.Employee, repair *models.Repair, finalPrice, partsCost float64) (*models.EarningRecord, error)

	// ComputePeriodEarnings aggregates earnings within [periodStart, periodEnd]
	// plus every unpaid loan into a pay figure for the employee.
	ComputePeriodEarnings(tenant Tenant, employeeID uint, periodStart, periodEnd time.Time) (*PeriodSummary, error)

	// CoversBase reports whether the employee's commission over the month
	// window reaches half their monthly base salary. Advisory only.
	CoversBase(tenant Tenant, employeeID uint, monthStart, monthEnd time.Time) (bool, error)

	// InvalidateCache drops cached summaries for an employee after a write
	// that changes their earnings or loans.
	InvalidateCache(workshopID, employeeID uint)
}

// DBPayrollService implements PayrollService against the application database,
// with an optional Redis cache in front of period computations.
type DBPayrollService struct {
	cache *redis.Client
}

var payrollServiceInstance PayrollService

// InitPayrollService initializes the payroll service. The cache client may be
// nil, in which case every computation goes to the database.
func InitPayrollService(cache *redis.Client) PayrollService {
	payrollServiceInstance = &DBPayrollService{cache: cache}
	return payrollServiceInstance
}

// GetPayrollService returns the initialized payroll service instance
func GetPayrollService() PayrollService {
	return payrollServiceInstance
}

// SetPayrollService sets the payroll service instance (primarily for testing)
func SetPayrollService(service PayrollService) {
	payrollServiceInstance = service
}

// NewPayrollCache creates the Redis client for payroll caching, or nil when
// no REDIS_ADDR is configured.
func NewPayrollCache(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

// RecordEarning computes net profit and commission for a delivered repair and
// inserts the ledger entry on the caller's transaction.
func (s *DBPayrollService) RecordEarning(tx *gorm.DB, tenant Tenant, employee *models.Employee, repair *models.Repair, finalPrice, partsCost float64) (*models.EarningRecord, error) {
	netProfit := decimal.NewFromFloat(finalPrice).Sub(decimal.NewFromFloat(partsCost))
	commission := netProfit.Mul(decimal.NewFromFloat(employee.CommissionRate)).Div(decimal.NewFromInt(100))

	record := &models.EarningRecord{
		WorkshopID:       tenant.WorkshopID,
		EmployeeID:       employee.ID,
		RepairID:         repair.ID,
		EarningsDate:     time.Now(),
		GrossIncome:      finalPrice,
		PartsCost:        partsCost,
		NetProfit:        netProfit.InexactFloat64(),
		CommissionEarned: commission.InexactFloat64(),
	}

	if err := tx.Create(record).Error; err != nil {
		return nil, &StorageError{Op: "insert earning", Err: err}
	}

	s.InvalidateCache(tenant.WorkshopID, employee.ID)
	return record, nil
}

// ComputePeriodEarnings aggregates the employee's commission ledger and unpaid
// loans into a pay figure. Loans are deliberately not period-scoped: any
// outstanding loan is deducted from whichever period is computed.
func (s *DBPayrollService) ComputePeriodEarnings(tenant Tenant, employeeID uint, periodStart, periodEnd time.Time) (*PeriodSummary, error) {
	cacheKey := s.cacheKey(tenant.WorkshopID, employeeID, periodStart, periodEnd)
	if cached := s.cacheGet(cacheKey); cached != nil {
		return cached, nil
	}

	db := config.GetDB()

	var employee models.Employee
	if err := db.Where("id = ? AND workshop_id = ?", employeeID, tenant.WorkshopID).First(&employee).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "employee", ID: employeeID}
		}
		return nil, &StorageError{Op: "load employee", Err: err}
	}

	var earnings []models.EarningRecord
	if err := db.Where("workshop_id = ? AND employee_id = ? AND earnings_date >= ? AND earnings_date <= ?",
		tenant.WorkshopID, employeeID, periodStart, periodEnd).Find(&earnings).Error; err != nil {
		return nil, &StorageError{Op: "list earnings", Err: err}
	}

	var loans []models.EmployeeLoan
	if err := db.Where("workshop_id = ? AND employee_id = ? AND is_paid = ?",
		tenant.WorkshopID, employeeID, false).Find(&loans).Error; err != nil {
		return nil, &StorageError{Op: "list loans", Err: err}
	}

	totalCommission := decimal.Zero
	totalNetProfit := decimal.Zero
	for _, e := range earnings {
		totalCommission = totalCommission.Add(decimal.NewFromFloat(e.CommissionEarned))
		totalNetProfit = totalNetProfit.Add(decimal.NewFromFloat(e.NetProfit))
	}

	totalLoans := decimal.Zero
	for _, l := range loans {
		totalLoans = totalLoans.Add(decimal.NewFromFloat(l.Amount))
	}

	// The standard pay period is a half month, so the monthly base is halved
	baseSalary := decimal.NewFromFloat(employee.BaseSalary).Div(decimal.NewFromInt(2))
	netPay := baseSalary.Add(totalCommission).Sub(totalLoans)

	summary := &PeriodSummary{
		TotalCommission: totalCommission.InexactFloat64(),
		TotalLoans:      totalLoans.InexactFloat64(),
		BaseSalary:      baseSalary.InexactFloat64(),
		NetPay:          netPay.InexactFloat64(),
		RepairsCount:    len(earnings),
		TotalNetProfit:  totalNetProfit.InexactFloat64(),
	}

	s.cacheSet(cacheKey, summary)
	return summary, nil
}

// CoversBase compares the month's commission against half the monthly base
func (s *DBPayrollService) CoversBase(tenant Tenant, employeeID uint, monthStart, monthEnd time.Time) (bool, error) {
	summary, err := s.ComputePeriodEarnings(tenant, employeeID, monthStart, monthEnd)
	if err != nil {
		return false, err
	}
	commission := decimal.NewFromFloat(summary.TotalCommission)
	halfBase := decimal.NewFromFloat(summary.BaseSalary)
	return commission.GreaterThanOrEqual(halfBase), nil
}

// InvalidateCache drops every cached period summary for the employee
func (s *DBPayrollService) InvalidateCache(workshopID, employeeID uint) {
	if s.cache == nil {
		return
	}
	ctx := context.Background()
	pattern := fmt.Sprintf("%s%d:%d:*", payrollCachePrefix, workshopID, employeeID)
	keys, err := s.cache.Keys(ctx, pattern).Result()
	if err != nil {
		log.Debugf("payroll cache invalidation failed: %v", err)
		return
	}
	if len(keys) > 0 {
		if err := s.cache.Del(ctx, keys...).Err(); err != nil {
			log.Debugf("payroll cache delete failed: %v", err)
		}
	}
}

func (s *DBPayrollService) cacheKey(workshopID, employeeID uint, start, end time.Time) string {
	return fmt.Sprintf("%s%d:%d:%s:%s", payrollCachePrefix, workshopID, employeeID,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func (s *DBPayrollService) cacheGet(key string) *PeriodSummary {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil
	}
	var summary PeriodSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil
	}
	return &summary
}

func (s *DBPayrollService) cacheSet(key string, summary *PeriodSummary) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(context.Background(), key, data, payrollCacheTTL).Err(); err != nil {
		log.Debugf("payroll cache set failed: %v", err)
	}
}

// BiweeklyPeriod returns the standard pay window containing the given time:
// day 1 through 15, or day 16 through the end of the month.
func BiweeklyPeriod(now time.Time) (time.Time, time.Time) {
	year, month, _ := now.Date()
	loc := now.Location()
	if now.Day() <= 15 {
		start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		end := time.Date(year, month, 15, 23, 59, 59, 0, loc)
		return start, end
	}
	start := time.Date(year, month, 16, 0, 0, 0, 0, loc)
	end := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).Add(-time.Second)
	return start, end
}

// MonthPeriod returns the calendar-month window containing the given time
func MonthPeriod(now time.Time) (time.Time, time.Time) {
	year, month, _ := now.Date()
	loc := now.Location()
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).Add(-time.Second)
	return start, end
}
