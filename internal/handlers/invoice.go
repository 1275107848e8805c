package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/auth"
	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/pdf"
	"github.com/kairostudio/backoffice/internal/policy"
	"github.com/kairostudio/backoffice/internal/services"
	"github.com/kairostudio/backoffice/internal/validation"
)

type InvoiceHandler struct {
	DB       *gorm.DB
	Gate     *policy.Gate
	Invoices *services.InvoiceService
	Payments *services.PaymentService
}

func NewInvoiceHandler(db *gorm.DB, gate *policy.Gate, invoices *services.InvoiceService, payments *services.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Gate: gate, Invoices: invoices, Payments: payments}
}

func (h *InvoiceHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/invoices", h.handle)
	mux.HandleFunc("/invoices/send", h.transitionTo(models.InvoiceStatusSent))
	mux.HandleFunc("/invoices/cancel", h.transitionTo(models.InvoiceStatusCancelled))
	mux.HandleFunc("/invoices/pdf", h.renderPDF)
	mux.HandleFunc("/invoices/payments", h.payments)
	mux.HandleFunc("/invoices/share", h.share)
}

func (h *InvoiceHandler) handle(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if _, ok := idParam(r); ok {
			h.get(w, r, m)
			return
		}
		h.list(w, r, m)
	case http.MethodPost:
		h.upsert(w, r, m)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *InvoiceHandler) list(w http.ResponseWriter, r *http.Request, m policy.Member) {
	limit, offset := paginate(r)
	dbq := h.DB.Where("company_id = ?", m.CompanyID)
	if status := r.URL.Query().Get("status"); status != "" {
		dbq = dbq.Where("status = ?", status)
	}
	if typ := r.URL.Query().Get("type"); typ != "" {
		dbq = dbq.Where("type = ?", typ)
	}
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		dbq = dbq.Where("client_id = ?", clientID)
	}
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		dbq = dbq.Where("project_id = ?", projectID)
	}
	var total int64
	dbq.Model(&models.Invoice{}).Count(&total)
	var invoices []models.Invoice
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&invoices).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(invoices, total, limit, offset))
}

func (h *InvoiceHandler) loadInvoice(r *http.Request, m policy.Member, action policy.Action) (*models.Invoice, error) {
	id, ok := idParam(r)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var inv models.Invoice
	err := h.DB.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		First(&inv, id).Error
	if err != nil {
		return nil, err
	}
	if err := h.Gate.Authorize(r.Context(), m, action, "invoice", inv); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &inv, nil
}

func (h *InvoiceHandler) get(w http.ResponseWriter, r *http.Request, m policy.Member) {
	inv, err := h.loadInvoice(r, m, policy.ActionView)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type invoiceLineRequest struct {
	Designation     string          `json:"designation"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type invoiceRequest struct {
	ID              uint                 `json:"id"`
	ClientID        uint                 `json:"client_id"`
	ProjectID       uint                 `json:"project_id"`
	Type            string               `json:"type"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	IssueDate       string               `json:"issue_date"`
	DueDate         string               `json:"due_date"`
	Notes           string               `json:"notes"`
	Lines           []invoiceLineRequest `json:"lines"`
}

func (h *InvoiceHandler) upsert(w http.ResponseWriter, r *http.Request, m policy.Member) {
	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	validation.PercentRange("discount_percent", req.DiscountPercent, v)
	if req.Type == "" {
		req.Type = models.InvoiceTypeFinal
	}
	validation.OneOf("type", req.Type, []string{
		models.InvoiceTypeDeposit, models.InvoiceTypeIntermediate,
		models.InvoiceTypeFinal, models.InvoiceTypeCreditNote,
	}, v)
	issueDate, okIssue := parseDate(req.IssueDate)
	if !okIssue {
		v["issue_date"] = "invalid_date"
	}
	dueDate, okDue := parseDate(req.DueDate)
	if !okDue {
		v["due_date"] = "invalid_date"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var client models.Client
	if err := h.DB.First(&client, req.ClientID).Error; err != nil || client.CompanyID != m.CompanyID {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"client_id": "unknown_client"})
		return
	}

	inv := models.Invoice{
		CompanyID:       m.CompanyID,
		ClientID:        req.ClientID,
		ProjectID:       req.ProjectID,
		Type:            req.Type,
		DiscountPercent: req.DiscountPercent,
		DueDate:         dueDate,
		Notes:           req.Notes,
	}
	if issueDate != nil {
		inv.IssueDate = *issueDate
	}
	for i, l := range req.Lines {
		inv.Lines = append(inv.Lines, models.InvoiceLine{
			Designation:     strings.TrimSpace(l.Designation),
			Description:     l.Description,
			Quantity:        l.Quantity,
			Unit:            l.Unit,
			UnitPrice:       l.UnitPrice,
			VATRate:         l.VATRate,
			DiscountPercent: l.DiscountPercent,
			Position:        i,
		})
	}

	if req.ID != 0 {
		var existing models.Invoice
		if err := h.DB.First(&existing, req.ID).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := h.Gate.Authorize(r.Context(), m, policy.ActionUpdate, "invoice", existing); err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		// Seuls les brouillons sont modifiables.
		if existing.Status != models.InvoiceStatusDraft {
			httpx.JSONError(w, http.StatusConflict, "invoice_not_editable", nil)
			return
		}
		inv.ID = existing.ID
		inv.Number = existing.Number
		inv.Status = existing.Status
		inv.QuoteID = existing.QuoteID
		inv.CreatedAt = existing.CreatedAt
		if err := h.Invoices.Update(&inv); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, inv)
		return
	}
	if err := h.Invoices.Create(&inv); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) transitionTo(next string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		m, ok := currentMember(h.DB, r)
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		inv, err := h.loadInvoice(r, m, policy.ActionUpdate)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := h.Invoices.Transition(inv, next); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, inv)
	}
}

type paymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// payments lists (GET) or records (POST) payments on one invoice.
func (h *InvoiceHandler) payments(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, okID := idParam(r)
	if !okID {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		payments, err := h.Payments.List(m.CompanyID, id)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": payments})
	case http.MethodPost:
		var req paymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		v := validation.Violations{}
		validation.PositiveDecimal("amount", req.Amount, v)
		if req.Method == "" {
			req.Method = models.PaymentMethodTransfer
		}
		validation.OneOf("method", req.Method, []string{
			models.PaymentMethodTransfer, models.PaymentMethodCard,
			models.PaymentMethodCheque, models.PaymentMethodCash,
			models.PaymentMethodMobileMoney,
		}, v)
		date, okDate := parseDate(req.Date)
		if !okDate {
			v["date"] = "invalid_date"
		}
		if !v.Empty() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		in := services.PaymentInput{
			Amount:    req.Amount,
			Method:    req.Method,
			Reference: req.Reference,
			Notes:     req.Notes,
		}
		if date != nil {
			in.Date = *date
		}
		payment, err := h.Payments.Apply(r.Context(), m.CompanyID, id, in)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, payment)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *InvoiceHandler) renderPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	inv, err := h.loadInvoice(r, m, policy.ActionView)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var company models.Company
	if err := h.DB.First(&company, m.CompanyID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	var client models.Client
	if err := h.DB.First(&client, inv.ClientID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	doc := pdf.InvoiceDocument(inv, company, client, services.InvoiceTotalsSnapshot(inv))
	buf, err := pdf.Render(doc)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "render_error", nil)
		return
	}
	servePDF(w, fmt.Sprintf("%s.pdf", inv.Number), buf)
}

func (h *InvoiceHandler) share(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	inv, err := h.loadInvoice(r, m, policy.ActionView)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	token := auth.SignPortalToken("invoice", inv.ID, time.Now().Add(portalTokenTTL))
	httpx.JSON(w, http.StatusOK, map[string]string{
		"token": token,
		"url":   "/portal/" + token,
	})
}
