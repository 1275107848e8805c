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

// portalTokenTTL is how long a client share link stays valid.
const portalTokenTTL = 30 * 24 * time.Hour

type QuoteHandler struct {
	DB       *gorm.DB
	Gate     *policy.Gate
	Quotes   *services.QuoteService
	Invoices *services.InvoiceService
	Notifier services.Notifier
}

func NewQuoteHandler(db *gorm.DB, gate *policy.Gate, quotes *services.QuoteService, invoices *services.InvoiceService, notifier services.Notifier) *QuoteHandler {
	return &QuoteHandler{DB: db, Gate: gate, Quotes: quotes, Invoices: invoices, Notifier: notifier}
}

func (h *QuoteHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/quotes", h.handle)
	mux.HandleFunc("/quotes/send", h.transitionTo(models.QuoteStatusSent))
	mux.HandleFunc("/quotes/accept", h.transitionTo(models.QuoteStatusAccepted))
	mux.HandleFunc("/quotes/reject", h.transitionTo(models.QuoteStatusRejected))
	mux.HandleFunc("/quotes/convert", h.convert)
	mux.HandleFunc("/quotes/pdf", h.renderPDF)
	mux.HandleFunc("/quotes/share", h.share)
}

func (h *QuoteHandler) handle(w http.ResponseWriter, r *http.Request) {
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

func (h *QuoteHandler) list(w http.ResponseWriter, r *http.Request, m policy.Member) {
	limit, offset := paginate(r)
	dbq := h.DB.Where("company_id = ?", m.CompanyID)
	if status := r.URL.Query().Get("status"); status != "" {
		dbq = dbq.Where("status = ?", status)
	}
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		dbq = dbq.Where("client_id = ?", clientID)
	}
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		dbq = dbq.Where("project_id = ?", projectID)
	}
	var total int64
	dbq.Model(&models.Quote{}).Count(&total)
	var quotes []models.Quote
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&quotes).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(quotes, total, limit, offset))
}

// loadQuote fetches a quote with its sections and lines in position order,
// and checks company scoping through the gate.
func (h *QuoteHandler) loadQuote(r *http.Request, m policy.Member, action policy.Action) (*models.Quote, error) {
	id, ok := idParam(r)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var q models.Quote
	err := h.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Sections.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		First(&q, id).Error
	if err != nil {
		return nil, err
	}
	if err := h.Gate.Authorize(r.Context(), m, action, "quote", q); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &q, nil
}

func (h *QuoteHandler) get(w http.ResponseWriter, r *http.Request, m policy.Member) {
	q, err := h.loadQuote(r, m, policy.ActionView)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

type quoteLineRequest struct {
	Designation     string          `json:"designation"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type quoteSectionRequest struct {
	Title string             `json:"title"`
	Lines []quoteLineRequest `json:"lines"`
}

type quoteRequest struct {
	ID              uint                  `json:"id"`
	ClientID        uint                  `json:"client_id"`
	ProjectID       uint                  `json:"project_id"`
	DiscountPercent decimal.Decimal       `json:"discount_percent"`
	ValidUntil      string                `json:"valid_until"`
	Notes           string                `json:"notes"`
	Sections        []quoteSectionRequest `json:"sections"`
}

func (h *QuoteHandler) upsert(w http.ResponseWriter, r *http.Request, m policy.Member) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	validation.PercentRange("discount_percent", req.DiscountPercent, v)
	validUntil, okDate := parseDate(req.ValidUntil)
	if !okDate {
		v["valid_until"] = "invalid_date"
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

	q := models.Quote{
		CompanyID:       m.CompanyID,
		ClientID:        req.ClientID,
		ProjectID:       req.ProjectID,
		DiscountPercent: req.DiscountPercent,
		ValidUntil:      validUntil,
		Notes:           req.Notes,
	}
	for si, s := range req.Sections {
		section := models.QuoteSection{Title: strings.TrimSpace(s.Title), Position: si}
		if section.Title == "" {
			section.Title = fmt.Sprintf("Lot %d", si+1)
		}
		for li, l := range s.Lines {
			section.Lines = append(section.Lines, models.QuoteLine{
				Designation:     strings.TrimSpace(l.Designation),
				Description:     l.Description,
				Quantity:        l.Quantity,
				Unit:            l.Unit,
				UnitPrice:       l.UnitPrice,
				VATRate:         l.VATRate,
				DiscountPercent: l.DiscountPercent,
				Position:        li,
			})
		}
		q.Sections = append(q.Sections, section)
	}

	if req.ID != 0 {
		var existing models.Quote
		if err := h.DB.First(&existing, req.ID).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := h.Gate.Authorize(r.Context(), m, policy.ActionUpdate, "quote", existing); err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		// Seuls les brouillons sont modifiables.
		if existing.Status != models.QuoteStatusDraft {
			httpx.JSONError(w, http.StatusConflict, "quote_not_editable", nil)
			return
		}
		q.ID = existing.ID
		q.Number = existing.Number
		q.Status = existing.Status
		q.CreatedAt = existing.CreatedAt
		if err := h.Quotes.Update(&q); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, q)
		return
	}
	if err := h.Quotes.Create(&q); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

// transitionTo returns a POST handler moving the quote to the given status.
func (h *QuoteHandler) transitionTo(next string) http.HandlerFunc {
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
		q, err := h.loadQuote(r, m, policy.ActionUpdate)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := h.Quotes.Transition(q, next); err != nil {
			httpx.WriteError(w, err)
			return
		}
		if next == models.QuoteStatusAccepted && h.Notifier != nil {
			h.Notifier.Notify(r.Context(), m.CompanyID, "quote_accepted",
				"Devis accepté", fmt.Sprintf("Le devis %s a été accepté.", q.Number))
		}
		httpx.JSON(w, http.StatusOK, q)
	}
}

type convertRequest struct {
	Type string `json:"type"`
}

func (h *QuoteHandler) convert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	q, err := h.loadQuote(r, m, policy.ActionUpdate)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req convertRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // corps optionnel
	}
	if req.Type == "" {
		req.Type = models.InvoiceTypeFinal
	}
	v := validation.Violations{}
	validation.OneOf("type", req.Type, []string{
		models.InvoiceTypeDeposit, models.InvoiceTypeIntermediate,
		models.InvoiceTypeFinal, models.InvoiceTypeCreditNote,
	}, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	inv, err := h.Invoices.ConvertQuote(q, req.Type)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *QuoteHandler) renderPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	q, err := h.loadQuote(r, m, policy.ActionView)
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
	if err := h.DB.First(&client, q.ClientID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	doc := pdf.QuoteDocument(q, company, client, services.QuoteTotalsSnapshot(q))
	buf, err := pdf.Render(doc)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "render_error", nil)
		return
	}
	servePDF(w, fmt.Sprintf("%s.pdf", q.Number), buf)
}

// share issues a signed read-only portal link for the client.
func (h *QuoteHandler) share(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	q, err := h.loadQuote(r, m, policy.ActionView)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	token := auth.SignPortalToken("quote", q.ID, time.Now().Add(portalTokenTTL))
	httpx.JSON(w, http.StatusOK, map[string]string{
		"token": token,
		"url":   "/portal/" + token,
	})
}

// servePDF writes a rendered document as an inline PDF response.
func servePDF(w http.ResponseWriter, filename string, buf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf)
}
