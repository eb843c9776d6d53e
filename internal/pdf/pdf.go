// Package pdf renders a purchase order into a printable PDF document.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/kedhead/embPO/internal/config"
	"github.com/kedhead/embPO/internal/models"
)

// Render produces the PDF bytes for one order using the company identity
// from settings for the letterhead.
func Render(po *models.PurchaseOrder, settings config.Settings) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Purchase Order "+po.OrderNumber, false)
	doc.AddPage()

	// Letterhead
	doc.SetFont("Arial", "B", 16)
	doc.Cell(0, 8, settings.CompanyName)
	doc.Ln(7)
	doc.SetFont("Arial", "", 10)
	doc.Cell(0, 5, settings.CompanyAddress)
	doc.Ln(5)
	doc.Cell(0, 5, settings.CompanyPhone+"  "+settings.CompanyEmail)
	doc.Ln(10)

	// Order header
	doc.SetFont("Arial", "B", 13)
	doc.Cell(0, 7, "Purchase Order "+po.OrderNumber)
	doc.Ln(7)
	doc.SetFont("Arial", "", 10)
	doc.Cell(0, 5, "Date: "+po.CreatedAt.Format("2006-01-02"))
	doc.Ln(5)
	if po.DueDate != nil {
		doc.Cell(0, 5, "Due: "+po.DueDate.Format("2006-01-02"))
		doc.Ln(5)
	}
	doc.Cell(0, 5, "Status: "+string(po.Status))
	doc.Ln(9)

	// Customer block
	doc.SetFont("Arial", "B", 11)
	doc.Cell(0, 6, "Bill To")
	doc.Ln(6)
	doc.SetFont("Arial", "", 10)
	doc.Cell(0, 5, po.Customer.Name)
	doc.Ln(5)
	for _, line := range []string{po.Customer.Address, po.Customer.Phone, po.Customer.Email} {
		if line == "" {
			continue
		}
		doc.Cell(0, 5, line)
		doc.Ln(5)
	}
	doc.Ln(4)

	// Items table
	doc.SetFont("Arial", "B", 10)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(95, 7, "Description", "1", 0, "L", true, 0, "")
	doc.CellFormat(25, 7, "Qty", "1", 0, "R", true, 0, "")
	doc.CellFormat(35, 7, "Unit Price", "1", 0, "R", true, 0, "")
	doc.CellFormat(35, 7, "Amount", "1", 1, "R", true, 0, "")
	doc.SetFont("Arial", "", 10)
	for _, it := range po.LineItems {
		doc.CellFormat(95, 7, it.Description, "1", 0, "L", false, 0, "")
		doc.CellFormat(25, 7, trimFloat(it.Quantity), "1", 0, "R", false, 0, "")
		doc.CellFormat(35, 7, money(it.UnitPrice), "1", 0, "R", false, 0, "")
		doc.CellFormat(35, 7, money(it.LineTotal()), "1", 1, "R", false, 0, "")
	}

	// Totals
	doc.Ln(2)
	doc.SetFont("Arial", "", 10)
	doc.CellFormat(155, 6, "Subtotal", "", 0, "R", false, 0, "")
	doc.CellFormat(35, 6, money(po.Subtotal), "", 1, "R", false, 0, "")
	doc.CellFormat(155, 6, fmt.Sprintf("Tax (%s%%)", trimFloat(po.TaxRate)), "", 0, "R", false, 0, "")
	doc.CellFormat(35, 6, money(po.TaxAmount), "", 1, "R", false, 0, "")
	doc.SetFont("Arial", "B", 11)
	doc.CellFormat(155, 7, "Total", "", 0, "R", false, 0, "")
	doc.CellFormat(35, 7, money(po.Total), "", 1, "R", false, 0, "")

	if po.Notes != "" {
		doc.Ln(6)
		doc.SetFont("Arial", "B", 10)
		doc.Cell(0, 6, "Notes")
		doc.Ln(6)
		doc.SetFont("Arial", "", 10)
		doc.MultiCell(0, 5, po.Notes, "", "L", false)
	}

	doc.Ln(8)
	doc.SetFont("Arial", "I", 8)
	doc.Cell(0, 5, "Generated "+time.Now().Format("2006-01-02 15:04"))

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render purchase order pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(v float64) string { return fmt.Sprintf("$%.2f", v) }

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = trimRight(s, '0')
	s = trimRight(s, '.')
	return s
}

func trimRight(s string, c byte) string {
	for len(s) > 0 && s[len(s)-1] == c {
		s = s[:len(s)-1]
	}
	return s
}
