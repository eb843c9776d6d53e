// Package client is the desktop-side core of the purchase-order app: a REST
// client over the record store, an in-memory mirror of the order list, a
// staged edit session and the list filter. The UI shell drives this package;
// it never talks to the API directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kedhead/embPO/internal/models"
)

// ErrNotFound is returned when the store no longer holds the addressed order.
var ErrNotFound = errors.New("purchase order not found")

// Store wraps the purchase-order REST API and keeps an in-memory mirror of
// the order list. The mirror is refreshed wholesale after every successful
// mutation; there is no incremental patching.
type Store struct {
	baseURL string
	http    *http.Client

	mu     sync.RWMutex
	mirror []models.PurchaseOrder
}

// NewStore builds a store client for the given base URL (e.g.
// "http://127.0.0.1:5000"). Requests are not retried; a failed call surfaces
// once and the operation must be retried by the caller.
func NewStore(baseURL string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Orders returns a copy of the current mirror.
func (s *Store) Orders() []models.PurchaseOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PurchaseOrder, len(s.mirror))
	copy(out, s.mirror)
	return out
}

// List fetches all orders and replaces the mirror.
func (s *Store) List(ctx context.Context) ([]models.PurchaseOrder, error) {
	var orders []models.PurchaseOrder
	if err := s.doJSON(ctx, http.MethodGet, "/api/purchase-orders", nil, &orders); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.mirror = orders
	s.mu.Unlock()
	out := make([]models.PurchaseOrder, len(orders))
	copy(out, orders)
	return out, nil
}

// Get fetches a single order. ErrNotFound when the id is unknown or deleted.
func (s *Store) Get(ctx context.Context, id string) (models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := s.doJSON(ctx, http.MethodGet, "/api/purchase-orders/"+id, nil, &po); err != nil {
		return models.PurchaseOrder{}, err
	}
	return po, nil
}

// Draft carries the client-supplied fields of a new order; the server assigns
// id, createdAt, status and the order number when left blank.
type Draft struct {
	OrderNumber string            `json:"orderNumber,omitempty"`
	Customer    models.Customer   `json:"customer"`
	LineItems   []models.LineItem `json:"lineItems"`
	TaxRate     float64           `json:"taxRate"`
	Notes       string            `json:"notes,omitempty"`
	DueDate     string            `json:"dueDate,omitempty"`
}

// Create posts a new order and refreshes the mirror with the store's view.
func (s *Store) Create(ctx context.Context, draft Draft) (models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := s.doJSON(ctx, http.MethodPost, "/api/purchase-orders", draft, &po); err != nil {
		return models.PurchaseOrder{}, err
	}
	s.refresh(ctx)
	return po, nil
}

// Update sends a partial update (only the supplied fields) and refreshes the
// mirror. Last writer wins; no version token is exchanged.
func (s *Store) Update(ctx context.Context, id string, fields map[string]any) (models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := s.doJSON(ctx, http.MethodPut, "/api/purchase-orders/"+id, fields, &po); err != nil {
		return models.PurchaseOrder{}, err
	}
	s.refresh(ctx)
	return po, nil
}

// Delete removes the order and refreshes the mirror.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.doJSON(ctx, http.MethodDelete, "/api/purchase-orders/"+id, nil, nil); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// EmailPDF asks the backend to send the order PDF to the given address and
// returns the server's confirmation message.
func (s *Store) EmailPDF(ctx context.Context, id, email, subject string) (string, error) {
	body := map[string]string{"email": email, "subject": subject}
	var resp struct {
		Message string `json:"message"`
	}
	if err := s.doJSON(ctx, http.MethodPost, "/api/purchase-orders/"+id+"/email", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// FetchPDF downloads the rendered order PDF.
func (s *Store) FetchPDF(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/purchase-orders/"+id+"/pdf", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build pdf request")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch pdf")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch pdf: server returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Healthy reports whether the backend answers its health endpoint; the shell
// polls this before opening the UI.
func (s *Store) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// refresh reloads the mirror wholesale. A refresh failure leaves the mirror
// stale until the next successful fetch; the mutation itself already took.
func (s *Store) refresh(ctx context.Context) {
	_, _ = s.List(ctx)
}

func (s *Store) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		var apiErr struct {
			Error   string `json:"error"`
			Details any    `json:"details"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return errors.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return errors.Errorf("%s %s: server returned %d", method, path, resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
