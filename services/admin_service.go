package services

import (
	"context"

	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardStats are the headline numbers on the admin dashboard.
type DashboardStats struct {
	TotalUsers     int64           `json:"total_users"` // customers + tailors
	TotalCustomers int64           `json:"total_customers"`
	TotalTailors   int64           `json:"total_tailors"`
	TotalOrders    int64           `json:"total_orders"`
	PendingOrders  int64           `json:"pending_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"` // sum of order totals
	OpenDisputes   int64           `json:"open_disputes"`
}

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{}

	counts := []struct {
		model interface{}
		where string
		args  []interface{}
		dst   *int64
	}{
		{&models.CustomerProfile{}, "", nil, &stats.TotalCustomers},
		{&models.TailorProfile{}, "", nil, &stats.TotalTailors},
		{&models.Order{}, "", nil, &stats.TotalOrders},
		{&models.Order{}, "status = ?", []interface{}{models.OrderStatusPending}, &stats.PendingOrders},
		{&models.Dispute{}, "status = ?", []interface{}{models.DisputeStatusOpen}, &stats.OpenDisputes},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	stats.TotalUsers = stats.TotalCustomers + stats.TotalTailors

	var revenue struct {
		Total decimal.Decimal
	}
	if err := db.Model(&models.Order{}).Select("COALESCE(SUM(total_amount), 0) AS total").Scan(&revenue).Error; err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue.Total
	return stats, nil
}
