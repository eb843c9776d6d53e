package pdf

import (
	"strings"
	"testing"
	"time"

	"github.com/kedhead/embPO/internal/config"
	"github.com/kedhead/embPO/internal/models"
)

func samplePO() *models.PurchaseOrder {
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	return &models.PurchaseOrder{
		ID:          "id-1",
		OrderNumber: "PO-20250601120000",
		Customer:    models.Customer{Name: "John Smith", Address: "1 Main St", Email: "john@smith.test"},
		LineItems: models.LineItems{
			{ID: "a", Description: "logo embroidery", Quantity: 2, UnitPrice: 10},
			{ID: "b", Description: "thread upgrade", Quantity: 1, UnitPrice: 5.5},
		},
		Subtotal:  25.5,
		TaxRate:   7.5,
		TaxAmount: 1.91,
		Total:     27.41,
		Notes:     "rush job",
		Status:    models.StatusUnpaid,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		DueDate:   &due,
	}
}

func TestRenderProducesPDF(t *testing.T) {
	data, err := Render(samplePO(), config.DefaultSettings())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty output")
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("not a PDF, starts with %q", string(data[:8]))
	}
}

func TestRenderHandlesMinimalOrder(t *testing.T) {
	po := &models.PurchaseOrder{
		OrderNumber: "PO-1",
		Customer:    models.Customer{Name: "A"},
		LineItems:   models.LineItems{{Quantity: 1, UnitPrice: 1}},
		Status:      models.StatusUnpaid,
		CreatedAt:   time.Now(),
	}
	if _, err := Render(po, config.Settings{}); err != nil {
		t.Fatalf("render minimal: %v", err)
	}
}

func TestTrimFloat(t *testing.T) {
	cases := map[float64]string{
		2:    "2",
		2.5:  "2.5",
		7.5:  "7.5",
		8.25: "8.25",
	}
	for in, want := range cases {
		if got := trimFloat(in); got != want {
			t.Errorf("trimFloat(%v) = %q, want %q", in, got, want)
		}
	}
}
