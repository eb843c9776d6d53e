package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kedhead/embPO/httpx"
	"github.com/kedhead/embPO/internal/config"
	"github.com/kedhead/embPO/internal/mailer"
	"github.com/kedhead/embPO/internal/models"
	"github.com/kedhead/embPO/internal/pdf"
	"github.com/kedhead/embPO/internal/services"
)

// PurchaseOrderHandler owns the /api/purchase-orders endpoints.
type PurchaseOrderHandler struct {
	DB       *gorm.DB
	Svc      *services.OrderService
	Mail     mailer.Sender
	Settings config.Settings
	Log      *logrus.Logger
}

func NewPurchaseOrderHandler(db *gorm.DB, svc *services.OrderService, mail mailer.Sender, settings config.Settings, log *logrus.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{DB: db, Svc: svc, Mail: mail, Settings: settings, Log: log}
}

// List: GET /api/purchase-orders
// Returns the full order list; filtering and sorting are client concerns.
func (h *PurchaseOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var orders []models.PurchaseOrder
	if err := h.DB.Find(&orders).Error; err != nil {
		h.Log.WithError(err).Error("list purchase orders")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_orders", nil)
		return
	}
	if orders == nil {
		orders = []models.PurchaseOrder{}
	}
	httpx.JSON(w, http.StatusOK, orders)
}

type createOrderReq struct {
	OrderNumber string           `json:"orderNumber"`
	Customer    models.Customer  `json:"customer"`
	LineItems   models.LineItems `json:"lineItems"`
	TaxRate     float64          `json:"taxRate"`
	Notes       string           `json:"notes"`
	Status      string           `json:"status"`
	DueDate     *string          `json:"dueDate"`
}

// Create: POST /api/purchase-orders
// The server assigns id, createdAt and the order number when omitted, and
// recomputes the money fields from the submitted lines rather than trusting
// client-side arithmetic.
func (h *PurchaseOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	now := time.Now().UTC()
	po := models.PurchaseOrder{
		ID:          uuid.NewString(),
		OrderNumber: req.OrderNumber,
		Customer:    req.Customer,
		LineItems:   req.LineItems,
		TaxRate:     req.TaxRate,
		Notes:       req.Notes,
		Status:      models.StatusUnpaid,
		CreatedAt:   now,
	}
	if po.OrderNumber == "" {
		po.OrderNumber = h.Svc.NewOrderNumber(now)
	}
	if req.Status != "" {
		st, err := models.ParseStatus(req.Status)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"status": "unknown_value"})
			return
		}
		po.Status = st
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_due_date", nil)
			return
		}
		po.DueDate = &due
	}

	h.Svc.EnsureLineIDs(&po)
	h.Svc.ApplyTotals(&po)
	if v := h.Svc.Validate(&po); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	if err := h.DB.Create(&po).Error; err != nil {
		h.Log.WithError(err).Error("create purchase order")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_order", nil)
		return
	}
	h.Log.WithFields(logrus.Fields{"id": po.ID, "orderNumber": po.OrderNumber}).Info("purchase order created")
	httpx.JSON(w, http.StatusCreated, po)
}

// Get: GET /api/purchase-orders/{id}
func (h *PurchaseOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	po, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

type updateOrderReq struct {
	OrderNumber *string           `json:"orderNumber"`
	Customer    *models.Customer  `json:"customer"`
	LineItems   *models.LineItems `json:"lineItems"`
	TaxRate     *float64          `json:"taxRate"`
	Notes       *string           `json:"notes"`
	Status      *string           `json:"status"`
	DueDate     *string           `json:"dueDate"`
}

// Update: PUT /api/purchase-orders/{id}
// Partial update: only fields present in the body are touched. Totals are
// recomputed whenever line items or the tax rate change. Last writer wins;
// there is no version token.
func (h *PurchaseOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	po, ok := h.load(w, r)
	if !ok {
		return
	}
	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	if req.OrderNumber != nil {
		po.OrderNumber = *req.OrderNumber
	}
	if req.Customer != nil {
		po.Customer = *req.Customer
	}
	recompute := false
	if req.LineItems != nil {
		po.LineItems = *req.LineItems
		recompute = true
	}
	if req.TaxRate != nil {
		po.TaxRate = *req.TaxRate
		recompute = true
	}
	if req.Notes != nil {
		po.Notes = *req.Notes
	}
	if req.Status != nil {
		st, err := models.ParseStatus(*req.Status)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"status": "unknown_value"})
			return
		}
		po.Status = st
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			po.DueDate = nil
		} else {
			due, err := parseDueDate(*req.DueDate)
			if err != nil {
				httpx.JSONError(w, http.StatusBadRequest, "invalid_due_date", nil)
				return
			}
			po.DueDate = &due
		}
	}

	if recompute {
		h.Svc.EnsureLineIDs(po)
		h.Svc.ApplyTotals(po)
	}
	if v := h.Svc.Validate(po); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	now := time.Now().UTC()
	po.UpdatedAt = &now
	if err := h.DB.Save(po).Error; err != nil {
		h.Log.WithError(err).WithField("id", po.ID).Error("update purchase order")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_order", nil)
		return
	}
	h.Log.WithField("id", po.ID).Info("purchase order updated")
	httpx.JSON(w, http.StatusOK, po)
}

// Delete: DELETE /api/purchase-orders/{id}
func (h *PurchaseOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	po, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.DB.Delete(po).Error; err != nil {
		h.Log.WithError(err).WithField("id", po.ID).Error("delete purchase order")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_order", nil)
		return
	}
	h.Log.WithField("id", po.ID).Info("purchase order deleted")
	httpx.NoContent(w)
}

// PDF: GET /api/purchase-orders/{id}/pdf
func (h *PurchaseOrderHandler) PDF(w http.ResponseWriter, r *http.Request) {
	po, ok := h.load(w, r)
	if !ok {
		return
	}
	data, err := pdf.Render(po, h.Settings)
	if err != nil {
		h.Log.WithError(err).WithField("id", po.ID).Error("render pdf")
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+po.OrderNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type emailReq struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
}

// Email: POST /api/purchase-orders/{id}/email
// Renders the order PDF and sends it as an attachment.
func (h *PurchaseOrderHandler) Email(w http.ResponseWriter, r *http.Request) {
	po, ok := h.load(w, r)
	if !ok {
		return
	}
	var req emailReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"email": "required"})
		return
	}
	subject := req.Subject
	if subject == "" {
		subject = "Purchase Order " + po.OrderNumber
	}

	data, err := pdf.Render(po, h.Settings)
	if err != nil {
		h.Log.WithError(err).WithField("id", po.ID).Error("render pdf for email")
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	msg := mailer.Message{
		To:             req.Email,
		Subject:        subject,
		Body:           "Please find purchase order " + po.OrderNumber + " attached.",
		Attachment:     data,
		AttachmentName: po.OrderNumber + ".pdf",
	}
	if err := h.Mail.Send(r.Context(), msg); err != nil {
		h.Log.WithError(err).WithField("id", po.ID).Error("send order email")
		httpx.JSONError(w, http.StatusBadGateway, "email_send_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Purchase order " + po.OrderNumber + " sent to " + req.Email})
}

// load fetches the order addressed by the {id} path segment, writing the 404
// response itself when the row is gone.
func (h *PurchaseOrderHandler) load(w http.ResponseWriter, r *http.Request) (*models.PurchaseOrder, bool) {
	id := r.PathValue("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return nil, false
	}
	var po models.PurchaseOrder
	if err := h.DB.First(&po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return nil, false
		}
		h.Log.WithError(err).WithField("id", id).Error("load purchase order")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_order", nil)
		return nil, false
	}
	return &po, true
}

// parseDueDate accepts both a bare date and a full RFC 3339 timestamp, the
// two shapes the desktop client has historically sent.
func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
