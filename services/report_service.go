package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/models"
	"gorm.io/gorm"
)

const noSupplier = "No supplier"

type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

type BillingStats struct {
	Period              string                     `json:"period"`
	From                time.Time                  `json:"from"`
	To                  time.Time                  `json:"to"`
	TotalRevenue        decimal.Decimal            `json:"total_revenue"`
	PaidCount           int                        `json:"paid_count"`
	PendingRevenue      decimal.Decimal            `json:"pending_revenue"`
	PendingCount        int                        `json:"pending_count"`
	TotalCost           decimal.Decimal            `json:"total_cost"`
	GrossProfit         decimal.Decimal            `json:"gross_profit"`
	ProfitMargin        decimal.Decimal            `json:"profit_margin"`
	OrderCount          int                        `json:"order_count"`
	SalesByCategory     map[string]decimal.Decimal `json:"sales_by_category"`
	CostByCategory      map[string]decimal.Decimal `json:"cost_by_category"`
	TotalPurchases      decimal.Decimal            `json:"total_purchases"`
	PurchasesBySupplier map[string]decimal.Decimal `json:"purchases_by_supplier"`
}

// PeriodRange returns the calendar range containing now. Weeks start on
// Sunday; unknown periods fall back to the current day.
func PeriodRange(period string, now time.Time) (string, time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var from, to time.Time
	switch period {
	case "week":
		from = startOfDay.AddDate(0, 0, -int(now.Weekday()))
		to = from.AddDate(0, 0, 7)
	case "month":
		from = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		to = from.AddDate(0, 1, 0)
	case "year":
		from = time.Date(y, 1, 1, 0, 0, 0, 0, loc)
		to = from.AddDate(1, 0, 0)
	default:
		period = "day"
		from = startOfDay
		to = from.AddDate(0, 0, 1)
	}
	return period, from, to.Add(-time.Nanosecond)
}

// BillingStats summarises revenue, cost and purchases for the period.
// Revenue counts PAID orders; orders neither paid nor cancelled are pending.
// Cost and category sales cover PAID and SERVED orders since their goods
// have left the stock.
func (s *ReportService) BillingStats(ctx context.Context, period string) (*BillingStats, error) {
	period, from, to := PeriodRange(period, s.now())
	db := s.db.WithContext(ctx)

	stats := &BillingStats{
		Period:              period,
		From:                from,
		To:                  to,
		TotalRevenue:        decimal.Zero,
		PendingRevenue:      decimal.Zero,
		TotalCost:           decimal.Zero,
		TotalPurchases:      decimal.Zero,
		SalesByCategory:     map[string]decimal.Decimal{},
		CostByCategory:      map[string]decimal.Decimal{},
		PurchasesBySupplier: map[string]decimal.Decimal{},
	}

	var orders []models.Order
	err := db.
		Preload("OrderItems.MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("status <> ? AND created_at BETWEEN ? AND ?", models.OrderCancelled, from, to).
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.NewInternal("load orders for stats", err)
	}

	for _, o := range orders {
		if o.Status == models.OrderPaid {
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
			stats.PaidCount++
		} else {
			stats.PendingRevenue = stats.PendingRevenue.Add(o.TotalAmount)
			stats.PendingCount++
		}

		if o.Status != models.OrderPaid && o.Status != models.OrderServed {
			continue
		}
		stats.OrderCount++
		for _, item := range o.OrderItems {
			qty := decimal.NewFromInt(int64(item.Quantity))
			cat := item.MenuItem.Category
			revenue := item.Price.Mul(qty)
			cost := item.MenuItem.CostPrice.Mul(qty)
			stats.SalesByCategory[cat] = stats.SalesByCategory[cat].Add(revenue)
			stats.CostByCategory[cat] = stats.CostByCategory[cat].Add(cost)
			stats.TotalCost = stats.TotalCost.Add(cost)
		}
	}

	stats.GrossProfit = stats.TotalRevenue.Sub(stats.TotalCost)
	stats.ProfitMargin = decimal.Zero
	if stats.TotalRevenue.IsPositive() {
		stats.ProfitMargin = stats.GrossProfit.Div(stats.TotalRevenue).Mul(decimal.NewFromInt(100)).Round(2)
	}

	var purchases []models.StockMovement
	err = db.Preload("Supplier").
		Where("type = ? AND created_at BETWEEN ? AND ?", models.MovementEntry, from, to).
		Find(&purchases).Error
	if err != nil {
		return nil, apperrors.NewInternal("load purchases for stats", err)
	}
	for _, m := range purchases {
		if m.PurchasePrice == nil {
			continue
		}
		qty := m.Quantity
		if qty < 0 {
			qty = -qty
		}
		value := m.PurchasePrice.Mul(decimal.NewFromInt(int64(qty)))
		name := noSupplier
		if m.Supplier != nil {
			name = m.Supplier.Name
		}
		stats.PurchasesBySupplier[name] = stats.PurchasesBySupplier[name].Add(value)
		stats.TotalPurchases = stats.TotalPurchases.Add(value)
	}

	return stats, nil
}
