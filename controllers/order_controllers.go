package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/apperrors"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

type orderItemRequest struct {
	MenuItemID uint   `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	Notes      string `json:"notes" binding:"max=255"`
}

// CreateOrder places an order for the authenticated user.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		TableID uint               `json:"table_id" binding:"required"`
		Items   []orderItemRequest `json:"items" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	userID := currentUserID(c)
	if userID == 0 {
		utils.RespondAppError(c, apperrors.NewUnauthenticated(""))
		return
	}

	items := make([]services.CreateOrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, services.CreateOrderItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Notes:      strings.TrimSpace(it.Notes),
		})
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), services.CreateOrderRequest{
		TableID: req.TableID,
		UserID:  userID,
		Items:   items,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created successfully", order)
}

// GetAllOrders supports ?status=A,B&table_id=&from=&to=&limit=.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	filter, err := orderFilterFromQuery(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	orders, err := oc.Orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetActiveOrders is the kitchen display view.
func (oc *OrderController) GetActiveOrders(c *gin.Context) {
	orders, err := oc.Orders.ListOrders(c.Request.Context(), services.OrderFilter{
		Statuses: models.ActiveOrderStatuses,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active orders", orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status" binding:"required,order_status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateStatus(c.Request.Context(), id, models.OrderStatus(body.Status))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

func orderFilterFromQuery(c *gin.Context) (services.OrderFilter, error) {
	var filter services.OrderFilter
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, models.OrderStatus(strings.ToUpper(s)))
			}
		}
	}

	var err error
	if filter.TableID, err = queryUint(c, "table_id"); err != nil {
		return filter, err
	}
	if filter.From, err = queryTime(c, "from", false); err != nil {
		return filter, err
	}
	if filter.To, err = queryTime(c, "to", true); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryLimit(c); err != nil {
		return filter, err
	}
	return filter, nil
}
