package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kedhead/embPO/internal/models"
	"github.com/kedhead/embPO/validation"
)

// OrderService encapsulates purchase-order business logic: totals, field
// validation and order-number generation. DB access stays in handlers.
type OrderService struct{}

func NewOrderService() *OrderService { return &OrderService{} }

// Totals holds the three derived money fields of an order.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// CalculateTotals computes subtotal, tax amount and grand total for a set of
// line items and a tax rate given in percent (7.5 means 7.5%).
//
// Every line participates, including lines with zero or negative quantity or
// price; filtering bad lines is the caller's job. Arithmetic runs in decimal
// fixed-point and each result is rounded to cents before converting back to
// float64, so repeated edit/save cycles cannot accumulate binary drift.
func (s *OrderService) CalculateTotals(items []models.LineItem, taxRate float64) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Quantity).Mul(decimal.NewFromFloat(it.UnitPrice))
		subtotal = subtotal.Add(line)
	}
	rate := decimal.NewFromFloat(taxRate).Div(decimal.NewFromInt(100))
	taxAmount := subtotal.Mul(rate)
	total := subtotal.Add(taxAmount)
	return Totals{
		Subtotal:  toCents(subtotal),
		TaxAmount: toCents(taxAmount),
		Total:     toCents(total),
	}
}

func toCents(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// ApplyTotals recomputes the derived money fields on the order in place.
// Called on every create and every update that touches line items or the tax
// rate, so stored rows always satisfy total == subtotal + taxAmount.
func (s *OrderService) ApplyTotals(po *models.PurchaseOrder) {
	t := s.CalculateTotals(po.LineItems, po.TaxRate)
	po.Subtotal = t.Subtotal
	po.TaxAmount = t.TaxAmount
	po.Total = t.Total
}

// Validate checks the invariants required to persist an order: a customer
// name, at least one line item and a canonical status. This is the single
// enforcement point shared by the create and update flows.
func (s *OrderService) Validate(po *models.PurchaseOrder) validation.Violations {
	v := validation.Violations{}
	validation.Required("customer.name", po.Customer.Name, v)
	validation.NonEmptyList("lineItems", len(po.LineItems), v)
	validation.NonNegativeFloat("taxRate", po.TaxRate, v)
	if po.Status != "" {
		validation.OneOf("status", string(po.Status), []string{
			string(models.StatusUnpaid), string(models.StatusPaid), string(models.StatusCancelled),
		}, v)
	}
	return v
}

// EnsureLineIDs assigns ids to line items that arrived without one, keeping
// ids unique within the order.
func (s *OrderService) EnsureLineIDs(po *models.PurchaseOrder) {
	for i := range po.LineItems {
		if po.LineItems[i].ID == "" {
			po.LineItems[i].ID = uuid.NewString()
		}
	}
}

// NewOrderNumber generates a human-readable order number from the creation
// time, matching the PO-YYYYMMDDHHMMSS convention used on paper copies.
func (s *OrderService) NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("PO-%s", now.Format("20060102150405"))
}
