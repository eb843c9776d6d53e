package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kedhead/embPO/internal/models"
	"github.com/kedhead/embPO/internal/services"
)

var (
	// ErrIndexOutOfRange is returned by the line mutators for a bad index.
	// Out-of-bounds edits are caller bugs and fail loudly rather than being
	// clamped or ignored.
	ErrIndexOutOfRange = errors.New("line item index out of range")

	// ErrNoLineItems rejects committing an order with zero lines. The working
	// state may hold zero lines while editing; the commit boundary is the
	// single enforcement point.
	ErrNoLineItems = errors.New("purchase order must keep at least one line item")

	// ErrUnknownStatus rejects staging a non-canonical status value.
	ErrUnknownStatus = errors.New("unknown purchase order status")
)

// Session stages local edits to one purchase order before committing them to
// the store. Only one session per order exists at a time; the last commit to
// reach the store wins against concurrent editors.
type Session struct {
	store *Store
	svc   *services.OrderService

	base    models.PurchaseOrder
	items   []models.LineItem
	status  models.Status
	taxRate float64
	notes   string
}

// Begin snapshots the order into editable working copies. The source record
// is never mutated; all edits live in the session until Commit.
func (s *Store) Begin(order models.PurchaseOrder) *Session {
	items := make([]models.LineItem, len(order.LineItems))
	copy(items, order.LineItems)
	return &Session{
		store:   s,
		svc:     services.NewOrderService(),
		base:    order,
		items:   items,
		status:  order.Status,
		taxRate: order.TaxRate,
		notes:   order.Notes,
	}
}

// OrderID identifies the order under edit.
func (s *Session) OrderID() string { return s.base.ID }

// LineItems returns a copy of the working line items.
func (s *Session) LineItems() []models.LineItem {
	out := make([]models.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Status returns the staged status.
func (s *Session) Status() models.Status { return s.status }

// AddLine appends an empty line with a locally generated temporary id and
// returns its index.
func (s *Session) AddLine() int {
	s.items = append(s.items, models.LineItem{ID: uuid.NewString()})
	return len(s.items) - 1
}

// SetDescription replaces the description of the line at index i.
func (s *Session) SetDescription(i int, v string) error {
	if i < 0 || i >= len(s.items) {
		return ErrIndexOutOfRange
	}
	s.items[i].Description = v
	return nil
}

// SetQuantity replaces the quantity of the line at index i.
func (s *Session) SetQuantity(i int, v float64) error {
	if i < 0 || i >= len(s.items) {
		return ErrIndexOutOfRange
	}
	s.items[i].Quantity = v
	return nil
}

// SetUnitPrice replaces the unit price of the line at index i.
func (s *Session) SetUnitPrice(i int, v float64) error {
	if i < 0 || i >= len(s.items) {
		return ErrIndexOutOfRange
	}
	s.items[i].UnitPrice = v
	return nil
}

// RemoveLine deletes the line at index i. The working state may reach zero
// lines; Commit is where the non-empty invariant bites.
func (s *Session) RemoveLine(i int) error {
	if i < 0 || i >= len(s.items) {
		return ErrIndexOutOfRange
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// SetStatus stages a status change. Any canonical status is reachable from
// any other; there is no transition table.
func (s *Session) SetStatus(v models.Status) error {
	if !v.Valid() {
		return ErrUnknownStatus
	}
	s.status = v
	return nil
}

// SetTaxRate stages a new tax rate in percent.
func (s *Session) SetTaxRate(v float64) { s.taxRate = v }

// SetNotes stages new notes text.
func (s *Session) SetNotes(v string) { s.notes = v }

// Totals recomputes the derived money fields from the working state.
func (s *Session) Totals() services.Totals {
	return s.svc.CalculateTotals(s.items, s.taxRate)
}

// Dirty reports whether the session holds uncommitted changes.
func (s *Session) Dirty() bool { return len(s.changedFields()) > 0 }

// Commit validates the working state, sends only the changed fields to the
// store and adopts the store's canonical copy. On failure the working state
// is left intact so the user can retry without losing edits.
func (s *Session) Commit(ctx context.Context) (models.PurchaseOrder, error) {
	if len(s.items) == 0 {
		return models.PurchaseOrder{}, ErrNoLineItems
	}
	fields := s.changedFields()
	if len(fields) == 0 {
		return s.base, nil
	}
	updated, err := s.store.Update(ctx, s.base.ID, fields)
	if err != nil {
		return models.PurchaseOrder{}, err
	}
	s.adopt(updated)
	return updated, nil
}

func (s *Session) changedFields() map[string]any {
	fields := map[string]any{}
	if !sameLines(s.items, s.base.LineItems) {
		fields["lineItems"] = s.items
	}
	if s.status != s.base.Status {
		fields["status"] = string(s.status)
	}
	if s.taxRate != s.base.TaxRate {
		fields["taxRate"] = s.taxRate
	}
	if s.notes != s.base.Notes {
		fields["notes"] = s.notes
	}
	return fields
}

func (s *Session) adopt(po models.PurchaseOrder) {
	s.base = po
	s.items = make([]models.LineItem, len(po.LineItems))
	copy(s.items, po.LineItems)
	s.status = po.Status
	s.taxRate = po.TaxRate
	s.notes = po.Notes
}

func sameLines(a, b []models.LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
