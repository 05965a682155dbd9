package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type StockController struct {
	Stock *services.StockService
}

func NewStockController(stock *services.StockService) *StockController {
	return &StockController{Stock: stock}
}

// RecordMovement books a manual ENTRY, LOSS or ADJUSTMENT.
func (sc *StockController) RecordMovement(c *gin.Context) {
	var req struct {
		MenuItemID    uint             `json:"menu_item_id" binding:"required"`
		Quantity      int              `json:"quantity" binding:"required"`
		Type          string           `json:"type" binding:"required,movement_type"`
		Reason        string           `json:"reason" binding:"max=500"`
		SupplierID    *uint            `json:"supplier_id"`
		PurchasePrice *decimal.Decimal `json:"purchase_price" binding:"omitempty,gte=0"`
		SellingPrice  *decimal.Decimal `json:"selling_price" binding:"omitempty,gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if models.MovementType(req.Type) == models.MovementExitSale || models.MovementType(req.Type) == models.MovementInitial {
		utils.RespondAppError(c, apperrors.NewValidation("%s movements are recorded by the system", req.Type))
		return
	}

	movement, err := sc.Stock.RecordMovement(c.Request.Context(), services.RecordMovementRequest{
		MenuItemID:    req.MenuItemID,
		Quantity:      req.Quantity,
		Type:          models.MovementType(req.Type),
		Reason:        req.Reason,
		UserID:        currentUserID(c),
		SupplierID:    req.SupplierID,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Stock movement recorded", movement)
}

// ListMovements supports ?menu_item_id=&type=&from=&to=&limit=.
func (sc *StockController) ListMovements(c *gin.Context) {
	var (
		filter services.MovementFilter
		err    error
	)
	if filter.MenuItemID, err = queryUint(c, "menu_item_id"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if raw := c.Query("type"); raw != "" {
		filter.Type = models.MovementType(raw)
		if !filter.Type.Valid() {
			utils.RespondAppError(c, apperrors.NewValidation("unknown movement type %q", raw))
			return
		}
	}
	if filter.From, err = queryTime(c, "from", false); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if filter.To, err = queryTime(c, "to", true); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if filter.Limit, err = queryLimit(c); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	movements, err := sc.Stock.ListMovements(c.Request.Context(), filter)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock movements", movements)
}

func (sc *StockController) GetLowStock(c *gin.Context) {
	items, err := sc.Stock.LowStock(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Low stock items", items)
}

// Reconcile compares stored stock against the ledger for one item.
func (sc *StockController) Reconcile(c *gin.Context) {
	id, ok := paramID(c, "menu_item_id")
	if !ok {
		return
	}
	rec, err := sc.Stock.Reconcile(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock reconciliation", rec)
}
