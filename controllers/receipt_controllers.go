package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type ReceiptController struct {
	Orders *services.OrderService
}

func NewReceiptController(orders *services.OrderService) *ReceiptController {
	return &ReceiptController{Orders: orders}
}

// GenerateReceipt renders the order as a printable PDF receipt.
func (rc *ReceiptController) GenerateReceipt(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := rc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteOrderReceiptPDF(&buf, order); err != nil {
		utils.ErrorLogger.Errorf("Failed to render receipt for order %d: %v", id, err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Receipt generated for order %d", order.ID)
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=receipt-%06d.pdf", order.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
