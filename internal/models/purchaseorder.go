package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status represents the payment status of a purchase order.
type Status string

const (
	StatusUnpaid    Status = "unpaid"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the canonical statuses. Earlier data-model
// revisions used pending/completed; those are rejected at the boundary.
func (s Status) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus validates a raw status string coming off the wire.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// LineItem is one line on a purchase order. The line total is always derived,
// never stored.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// LineTotal returns quantity x unit price for this line.
func (li LineItem) LineTotal() float64 {
	return li.Quantity * li.UnitPrice
}

// LineItems persists as a JSON text column, mirroring the original schema
// where the item list lives inside the order row.
type LineItems []LineItem

func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		l = LineItems{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *LineItems) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("line items: unsupported column type %T", src)
	}
	return json.Unmarshal(data, l)
}

// Customer identifies who the order is billed to. Only the name is required.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func (c Customer) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *Customer) Scan(src any) error {
	if src == nil {
		*c = Customer{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("customer: unsupported column type %T", src)
	}
	return json.Unmarshal(data, c)
}

// PurchaseOrder is the authoritative order record. Subtotal, TaxAmount and
// Total are recomputed server-side from the line items on every write, so a
// stored row always satisfies total == subtotal + taxAmount.
type PurchaseOrder struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	OrderNumber string    `gorm:"size:100;uniqueIndex;not null" json:"orderNumber"`
	Customer    Customer  `gorm:"type:text;not null" json:"customer"`
	LineItems   LineItems `gorm:"type:text;not null" json:"lineItems"`
	Subtotal    float64   `gorm:"not null" json:"subtotal"`
	TaxRate     float64   `gorm:"not null" json:"taxRate"`
	TaxAmount   float64   `gorm:"not null" json:"taxAmount"`
	Total       float64   `gorm:"not null" json:"total"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	Status      Status    `gorm:"size:20;not null;default:'unpaid'" json:"status"`

	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

// IsCancelled reports whether the order has been cancelled. Cancelled is not
// terminal: the edit flow may reopen an order to unpaid.
func (p *PurchaseOrder) IsCancelled() bool { return p.Status == StatusCancelled }

// IsPaid reports whether the order has been settled.
func (p *PurchaseOrder) IsPaid() bool { return p.Status == StatusPaid }
