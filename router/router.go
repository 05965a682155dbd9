package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/cafe-pos/controllers"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/middlewares"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps carries everything the HTTP layer needs. Redis is optional and only
// used by the health check.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Hub      *kds.Hub
	Recorder *kds.Recorder

	Tables  *services.TableService
	Orders  *services.OrderService
	Menu    *services.MenuService
	Stock   *services.StockService
	Catalog *services.CatalogService
	Reports *services.ReportService

	CORSOrigin   string
	RateLimitRPS float64
	// APILimiter and LoginLimiter are created from RateLimitRPS when nil.
	APILimiter   *middlewares.RateLimiter
	LoginLimiter *middlewares.RateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	controllers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))

	if d.APILimiter == nil && d.RateLimitRPS > 0 {
		d.APILimiter = middlewares.NewRateLimiter(rate.Limit(d.RateLimitRPS), int(d.RateLimitRPS*2))
	}
	if d.LoginLimiter == nil {
		d.LoginLimiter = middlewares.NewStrictRateLimiter()
	}

	userCtrl := controllers.NewUserController(d.DB)
	tableCtrl := controllers.NewTableController(d.Tables)
	orderCtrl := controllers.NewOrderController(d.Orders)
	receiptCtrl := controllers.NewReceiptController(d.Orders)
	menuCtrl := controllers.NewMenuController(d.Menu)
	stockCtrl := controllers.NewStockController(d.Stock)
	catalogCtrl := controllers.NewCatalogController(d.Catalog)
	adminCtrl := controllers.NewAdminController(d.DB, d.Reports, d.Orders)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", healthHandler(d))

	api := r.Group("/api")
	if d.APILimiter != nil {
		api.Use(d.APILimiter.RateLimit())
	}
	api.POST("/auth/login", d.LoginLimiter.RateLimit(), userCtrl.Login)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := api.Group("")
	auth.Use(middlewares.AuthMiddleware())

	adminOnly := middlewares.RequireRole(models.RoleAdmin)
	frontOfHouse := middlewares.RequireRole(models.RoleAdmin, models.RoleStaff)
	anyStaff := middlewares.RequireRole(models.RoleAdmin, models.RoleStaff, models.RoleKitchen)

	auth.POST("/auth/logout", userCtrl.Logout)
	auth.GET("/auth/profile", userCtrl.GetProfile)
	auth.GET("/users", adminOnly, userCtrl.GetAllUsers)
	auth.POST("/users", adminOnly, userCtrl.CreateUser)

	// TABLES
	auth.GET("/tables", anyStaff, tableCtrl.GetAllTables)
	auth.GET("/tables/:table_id", anyStaff, tableCtrl.GetTableByID)
	auth.POST("/tables", adminOnly, tableCtrl.CreateTable)
	auth.PUT("/tables/:table_id", adminOnly, tableCtrl.UpdateTable)
	auth.PATCH("/tables/:table_id/status", frontOfHouse, tableCtrl.UpdateTableStatus)
	auth.DELETE("/tables/:table_id", adminOnly, tableCtrl.DeleteTable)

	// ORDERS
	auth.POST("/orders", frontOfHouse, orderCtrl.CreateOrder)
	auth.GET("/orders", anyStaff, orderCtrl.GetAllOrders)
	auth.GET("/orders/active", anyStaff, orderCtrl.GetActiveOrders)
	auth.GET("/orders/:order_id", anyStaff, orderCtrl.GetOrderByID)
	auth.PATCH("/orders/:order_id/status", anyStaff, orderCtrl.UpdateOrderStatus)
	auth.GET("/orders/:order_id/receipt", frontOfHouse,
		middlewares.DocumentLoggerMiddleware("receipt"), receiptCtrl.GenerateReceipt)

	// MENU
	auth.GET("/menu", anyStaff, menuCtrl.GetAllMenus)
	auth.GET("/menu/:menu_id", anyStaff, menuCtrl.GetMenuByID)
	auth.POST("/menu", adminOnly, menuCtrl.CreateMenu)
	auth.PUT("/menu/:menu_id", adminOnly, menuCtrl.UpdateMenu)
	auth.DELETE("/menu/:menu_id", adminOnly, menuCtrl.DeleteMenu)

	// STOCK
	auth.POST("/stock/movements", adminOnly, stockCtrl.RecordMovement)
	auth.GET("/stock/movements", frontOfHouse, stockCtrl.ListMovements)
	auth.GET("/stock/low", anyStaff, stockCtrl.GetLowStock)
	auth.GET("/stock/reconcile/:menu_item_id", adminOnly, stockCtrl.Reconcile)

	// CATALOG
	auth.GET("/locations", anyStaff, catalogCtrl.GetLocations)
	auth.POST("/locations", adminOnly, catalogCtrl.CreateLocation)
	auth.PUT("/locations/:location_id", adminOnly, catalogCtrl.UpdateLocation)
	auth.DELETE("/locations/:location_id", adminOnly, catalogCtrl.DeleteLocation)
	auth.GET("/suppliers", adminOnly, catalogCtrl.GetSuppliers)
	auth.POST("/suppliers", adminOnly, catalogCtrl.CreateSupplier)
	auth.DELETE("/suppliers/:supplier_id", adminOnly, catalogCtrl.DeleteSupplier)
	auth.GET("/brands", anyStaff, catalogCtrl.GetBrands)
	auth.POST("/brands", adminOnly, catalogCtrl.CreateBrand)
	auth.DELETE("/brands/:brand_id", adminOnly, catalogCtrl.DeleteBrand)

	// REPORTS
	auth.GET("/reports/dashboard", adminOnly, adminCtrl.GetDashboardStats)
	auth.GET("/reports/billing", adminOnly, adminCtrl.GetBillingStats)
	auth.GET("/reports/billing/pdf", adminOnly,
		middlewares.DocumentLoggerMiddleware("billing"), adminCtrl.ExportBillingPDF)
	auth.GET("/reports/orders", adminOnly, adminCtrl.GetOrderHistory)

	if d.Recorder != nil {
		notificationCtrl := controllers.NewNotificationController(d.Recorder)
		auth.GET("/events/recent", anyStaff, notificationCtrl.GetRecentEvents)
	}

	// WebSocket endpoint dengan middleware khusus
	if d.Hub != nil {
		kdsCtrl := controllers.NewKDSController(d.Hub)
		r.GET("/ws", middlewares.WebSocketAuthMiddleware(), kdsCtrl.Handle)
	}

	return r
}

func healthHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		healthy := true

		if sqlDB, err := d.DB.DB(); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else if err := sqlDB.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}

		if d.Redis != nil {
			checks["redis"] = "ok"
			if err := d.Redis.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}
		if d.Hub != nil {
			checks["websocket_clients"] = d.Hub.ClientCount()
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": healthy, "checks": checks})
	}
}
