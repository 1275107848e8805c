package handlers

import (
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/auth"
	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/pdf"
	"github.com/kairostudio/backoffice/internal/services"
)

// PortalHandler serves the client-facing share links. No session: access
// is granted by the signed token alone, read-only, one document per token.
type PortalHandler struct {
	DB *gorm.DB
}

func NewPortalHandler(db *gorm.DB) *PortalHandler {
	return &PortalHandler{DB: db}
}

func (h *PortalHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/portal/", h.show)
}

func (h *PortalHandler) show(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	token := strings.TrimPrefix(r.URL.Path, "/portal/")
	kind, id, ok := auth.ParsePortalToken(token, time.Now())
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "invalid_token", nil)
		return
	}
	asPDF := r.URL.Query().Get("format") == "pdf"
	switch kind {
	case "quote":
		h.showQuote(w, id, asPDF)
	case "invoice":
		h.showInvoice(w, id, asPDF)
	default:
		httpx.JSONError(w, http.StatusNotFound, "invalid_token", nil)
	}
}

func (h *PortalHandler) showQuote(w http.ResponseWriter, id uint, asPDF bool) {
	var q models.Quote
	err := h.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Sections.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		First(&q, id).Error
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var company models.Company
	var client models.Client
	if err := h.DB.First(&company, q.CompanyID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.DB.First(&client, q.ClientID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if asPDF {
		doc := pdf.QuoteDocument(&q, company, client, services.QuoteTotalsSnapshot(&q))
		buf, err := pdf.Render(doc)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "render_error", nil)
			return
		}
		servePDF(w, q.Number+".pdf", buf)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"kind":    "quote",
		"quote":   q,
		"company": companySummary(company),
	})
}

func (h *PortalHandler) showInvoice(w http.ResponseWriter, id uint, asPDF bool) {
	var inv models.Invoice
	err := h.DB.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		First(&inv, id).Error
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var company models.Company
	var client models.Client
	if err := h.DB.First(&company, inv.CompanyID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.DB.First(&client, inv.ClientID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if asPDF {
		doc := pdf.InvoiceDocument(&inv, company, client, services.InvoiceTotalsSnapshot(&inv))
		buf, err := pdf.Render(doc)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "render_error", nil)
			return
		}
		servePDF(w, inv.Number+".pdf", buf)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"kind":    "invoice",
		"invoice": inv,
		"company": companySummary(company),
	})
}

// companySummary exposes only the public identity of the issuer, not the
// whole tenant row.
func companySummary(c models.Company) map[string]string {
	return map[string]string{
		"name":    c.Name,
		"address": c.Address,
		"city":    c.City,
		"country": c.Country,
		"phone":   c.Phone,
		"email":   c.Email,
	}
}
