package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

// AdminController serves the back-office dashboard and reports.
type AdminController struct {
	DB      *gorm.DB
	Reports *services.ReportService
	Orders  *services.OrderService
}

func NewAdminController(db *gorm.DB, reports *services.ReportService, orders *services.OrderService) *AdminController {
	return &AdminController{DB: db, Reports: reports, Orders: orders}
}

type dashboardStats struct {
	TodayOrders    int64                        `json:"today_orders"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	TablesByStatus map[models.TableStatus]int64 `json:"tables_by_status"`
	LowStockItems  int64                        `json:"low_stock_items"`
}

// GetDashboardStats counts today's orders per status, tables per stored
// status and items at or below their minimum stock.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	db := ac.DB.WithContext(c.Request.Context())
	_, from, to := services.PeriodRange("day", time.Now())

	stats := dashboardStats{
		OrdersByStatus: map[models.OrderStatus]int64{},
		TablesByStatus: map[models.TableStatus]int64{},
	}

	var orderRows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("status").
		Scan(&orderRows).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	for _, r := range orderRows {
		stats.OrdersByStatus[r.Status] = r.Count
		stats.TodayOrders += r.Count
	}

	var tableRows []struct {
		Status models.TableStatus
		Count  int64
	}
	if err := db.Model(&models.Table{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&tableRows).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	for _, r := range tableRows {
		stats.TablesByStatus[r.Status] = r.Count
	}

	if err := db.Model(&models.MenuItem{}).
		Where("stock_quantity IS NOT NULL AND stock_quantity <= min_stock").
		Count(&stats.LowStockItems).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// GetBillingStats returns revenue, cost and purchases for ?period=day|week|month|year.
func (ac *AdminController) GetBillingStats(c *gin.Context) {
	stats, err := ac.Reports.BillingStats(c.Request.Context(), c.DefaultQuery("period", "day"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Billing stats", stats)
}

func (ac *AdminController) ExportBillingPDF(c *gin.Context) {
	stats, err := ac.Reports.BillingStats(c.Request.Context(), c.DefaultQuery("period", "day"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteBillingPDF(&buf, stats); err != nil {
		utils.ErrorLogger.Errorf("Failed to render billing report: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("billing-%s-%s.pdf", stats.Period, stats.From.Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// GetOrderHistory lists orders with the same filters as the orders endpoint.
func (ac *AdminController) GetOrderHistory(c *gin.Context) {
	filter, err := orderFilterFromQuery(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	orders, err := ac.Orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order history", orders)
}
