package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type MenuController struct {
	Menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{Menu: menu}
}

// GetAllMenus lists available items; ?all=true includes unavailable ones,
// ?category= filters.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	items, err := mc.Menu.ListMenu(c.Request.Context(), services.MenuFilter{
		Category:           c.Query("category"),
		IncludeUnavailable: c.Query("all") == "true",
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", items)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, ok := paramID(c, "menu_id")
	if !ok {
		return
	}
	item, err := mc.Menu.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", item)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req struct {
		Name          string           `json:"name" binding:"required,max=100"`
		Description   string           `json:"description"`
		Category      string           `json:"category" binding:"required,max=50"`
		Price         decimal.Decimal  `json:"price" binding:"gte=0"`
		CostPrice     *decimal.Decimal `json:"cost_price" binding:"omitempty,gte=0"`
		StockQuantity *int             `json:"stock_quantity" binding:"omitempty,gte=0"`
		MinStock      *int             `json:"min_stock" binding:"omitempty,gte=0"`
		MaxStock      *int             `json:"max_stock" binding:"omitempty,gte=0"`
		Unit          string           `json:"unit" binding:"max=10"`
		Volume        string           `json:"volume" binding:"max=50"`
		Barcode       string           `json:"barcode" binding:"max=64"`
		ExpiryDate    *string          `json:"expiry_date"`
		ImageURL      string           `json:"image_url" binding:"max=500"`
		BrandID       *uint            `json:"brand_id"`
		SupplierID    *uint            `json:"supplier_id"`
		IsAvailable   *bool            `json:"is_available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	expiry, err := bodyDate("expiry_date", req.ExpiryDate)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	userID := currentUserID(c)
	if userID == 0 {
		utils.RespondAppError(c, apperrors.NewUnauthenticated(""))
		return
	}

	item, err := mc.Menu.CreateMenuItem(c.Request.Context(), services.CreateMenuItemRequest{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price,
		CostPrice:     req.CostPrice,
		StockQuantity: req.StockQuantity,
		MinStock:      req.MinStock,
		MaxStock:      req.MaxStock,
		Unit:          req.Unit,
		Volume:        req.Volume,
		Barcode:       req.Barcode,
		ExpiryDate:    expiry,
		ImageURL:      req.ImageURL,
		BrandID:       req.BrandID,
		SupplierID:    req.SupplierID,
		IsAvailable:   req.IsAvailable,
		UserID:        userID,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created successfully", item)
}

// UpdateMenu applies a partial update. A new stock_quantity is booked as an
// adjustment in the stock ledger.
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := paramID(c, "menu_id")
	if !ok {
		return
	}
	var req struct {
		Name          *string          `json:"name" binding:"omitempty,min=1,max=100"`
		Description   *string          `json:"description"`
		Category      *string          `json:"category" binding:"omitempty,min=1,max=50"`
		Price         *decimal.Decimal `json:"price" binding:"omitempty,gte=0"`
		CostPrice     *decimal.Decimal `json:"cost_price" binding:"omitempty,gte=0"`
		StockQuantity *int             `json:"stock_quantity"`
		MinStock      *int             `json:"min_stock" binding:"omitempty,gte=0"`
		MaxStock      *int             `json:"max_stock" binding:"omitempty,gte=0"`
		Unit          *string          `json:"unit" binding:"omitempty,max=10"`
		Volume        *string          `json:"volume" binding:"omitempty,max=50"`
		Barcode       *string          `json:"barcode" binding:"omitempty,max=64"`
		ExpiryDate    *string          `json:"expiry_date"`
		ImageURL      *string          `json:"image_url" binding:"omitempty,max=500"`
		BrandID       *uint            `json:"brand_id"`
		SupplierID    *uint            `json:"supplier_id"`
		IsAvailable   *bool            `json:"is_available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	expiry, err := bodyDate("expiry_date", req.ExpiryDate)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item, err := mc.Menu.UpdateMenuItem(c.Request.Context(), id, services.UpdateMenuItemRequest{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price,
		CostPrice:     req.CostPrice,
		StockQuantity: req.StockQuantity,
		MinStock:      req.MinStock,
		MaxStock:      req.MaxStock,
		Unit:          req.Unit,
		Volume:        req.Volume,
		Barcode:       req.Barcode,
		ExpiryDate:    expiry,
		ImageURL:      req.ImageURL,
		BrandID:       req.BrandID,
		SupplierID:    req.SupplierID,
		IsAvailable:   req.IsAvailable,
		UserID:        currentUserID(c),
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", item)
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, ok := paramID(c, "menu_id")
	if !ok {
		return
	}
	if err := mc.Menu.DeleteMenuItem(c.Request.Context(), id); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", gin.H{"id": id})
}
