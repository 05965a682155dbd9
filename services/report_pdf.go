package services

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
)

// WriteBillingPDF renders billing stats as an A4 report.
func WriteBillingPDF(w io.Writer, stats *BillingStats) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Billing report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("%s: %s - %s", stats.Period,
		stats.From.Format("02/01/2006"), stats.To.Format("02/01/2006")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	labelW := contentW * 0.6
	valueW := contentW * 0.4
	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelW, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, tr(value), "", 1, "R", false, 0, "")
	}

	row(fmt.Sprintf("Revenue (%d paid orders)", stats.PaidCount), utils.FormatCurrency(stats.TotalRevenue), true)
	row(fmt.Sprintf("Pending (%d open orders)", stats.PendingCount), utils.FormatCurrency(stats.PendingRevenue), false)
	row("Cost of goods sold", utils.FormatCurrency(stats.TotalCost), false)
	row("Gross profit", utils.FormatCurrency(stats.GrossProfit), true)
	row("Profit margin", stats.ProfitMargin.StringFixed(2)+"%", false)
	row("Stock purchases", utils.FormatCurrency(stats.TotalPurchases), false)

	table := func(title, keyHeader string, values map[string]decimal.Decimal) {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 7, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(labelW, 6, keyHeader, "B", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, "Amount", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, k := range sortedKeys(values) {
			pdf.CellFormat(labelW, 5, tr(k), "", 0, "L", false, 0, "")
			pdf.CellFormat(valueW, 5, tr(utils.FormatCurrency(values[k])), "", 1, "R", false, 0, "")
		}
	}
	table("Sales by category", "Category", stats.SalesByCategory)
	table("Cost by category", "Category", stats.CostByCategory)
	table("Purchases by supplier", "Supplier", stats.PurchasesBySupplier)

	return pdf.Output(w)
}

// WriteOrderReceiptPDF renders a narrow receipt for one order.
func WriteOrderReceiptPDF(w io.Writer, order *models.Order) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: 150 + float64(len(order.OrderItems))*5},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "Cafe POS", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Order #%d - Table %d", order.ID, order.Table.Number), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, order.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.52
	col2 := contentW * 0.16
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range order.OrderItems {
		name := item.MenuItem.Name
		if len([]rune(name)) > 24 {
			name = string([]rune(name)[:23]) + "."
		}
		pdf.CellFormat(col1, 5, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, tr(utils.FormatCurrency(item.Subtotal())), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, tr(utils.FormatCurrency(order.TotalAmount)), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Status: "+string(order.Status), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
