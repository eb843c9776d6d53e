package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kedhead/embPO/internal/config"
	"github.com/kedhead/embPO/internal/mailer"
	"github.com/kedhead/embPO/internal/models"
)

type discardSender struct{}

func (discardSender) Send(context.Context, mailer.Message) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.PurchaseOrder{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(db, config.Load(), config.DefaultSettings(), discardSender{}, log)
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(t)
	for _, path := range []string{"/", "/health", "/api/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if body["status"] != "ok" {
			t.Fatalf("%s: status = %q", path, body["status"])
		}
	}
}

func TestOrderCRUDOverRouter(t *testing.T) {
	h := newTestRouter(t)

	// Create
	body := `{"customer":{"name":"Acme Sports"},"lineItems":[{"description":"team jerseys","quantity":12,"unitPrice":18.5}],"taxRate":7.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/purchase-orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var po models.PurchaseOrder
	if err := json.Unmarshal(w.Body.Bytes(), &po); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	// Fetch through the router path
	req = httptest.NewRequest(http.MethodGet, "/api/purchase-orders/"+po.ID, nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200 got %d", w.Code)
	}

	// Update status through the router path
	req = httptest.NewRequest(http.MethodPut, "/api/purchase-orders/"+po.ID, strings.NewReader(`{"status":"cancelled"}`))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	// List shows one order
	req = httptest.NewRequest(http.MethodGet, "/api/purchase-orders", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var orders []models.PurchaseOrder
	if err := json.Unmarshal(w.Body.Bytes(), &orders); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != models.StatusCancelled {
		t.Fatalf("unexpected list: %#v", orders)
	}

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/api/purchase-orders/"+po.ID, nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204 got %d", w.Code)
	}
}

func TestUnknownOrderIs404NotCrash(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/purchase-orders/ghost", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/purchase-orders", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("missing CORS origin header")
	}
}
