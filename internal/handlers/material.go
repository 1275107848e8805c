package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/policy"
	"github.com/kairostudio/backoffice/internal/validation"
)

type MaterialHandler struct {
	DB   *gorm.DB
	Gate *policy.Gate
}

func NewMaterialHandler(db *gorm.DB, gate *policy.Gate) *MaterialHandler {
	return &MaterialHandler{DB: db, Gate: gate}
}

func (h *MaterialHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/materials", h.handle)
}

func (h *MaterialHandler) handle(w http.ResponseWriter, r *http.Request) {
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
	case http.MethodDelete:
		h.delete(w, r, m)
	default:
		w.Header().Set("Allow", "GET,POST,DELETE")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *MaterialHandler) list(w http.ResponseWriter, r *http.Request, m policy.Member) {
	limit, offset := paginate(r)
	dbq := h.DB.Where("company_id = ?", m.CompanyID)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(reference) LIKE ?", like, like)
	}
	if cat := r.URL.Query().Get("category"); cat != "" {
		dbq = dbq.Where("category = ?", cat)
	}
	if sup := r.URL.Query().Get("supplier_id"); sup != "" {
		dbq = dbq.Where("supplier_id = ?", sup)
	}
	var total int64
	dbq.Model(&models.Material{}).Count(&total)
	var materials []models.Material
	if err := dbq.Order("name asc").Limit(limit).Offset(offset).Find(&materials).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(materials, total, limit, offset))
}

func (h *MaterialHandler) get(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, _ := idParam(r)
	var material models.Material
	if err := h.DB.Preload("Supplier").First(&material, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionView, "material", material); err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, material)
}

type materialRequest struct {
	ID          uint            `json:"id"`
	SupplierID  uint            `json:"supplier_id"`
	Name        string          `json:"name"`
	Reference   string          `json:"reference"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	Description string          `json:"description"`
}

func (h *MaterialHandler) upsert(w http.ResponseWriter, r *http.Request, m policy.Member) {
	var req materialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.NonNegativeDecimal("unit_price", req.UnitPrice, v)
	validation.PercentRange("vat_rate", req.VATRate, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if req.SupplierID != 0 {
		var supplier models.Supplier
		if err := h.DB.First(&supplier, req.SupplierID).Error; err != nil || supplier.CompanyID != m.CompanyID {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"supplier_id": "unknown_supplier"})
			return
		}
	}

	material := models.Material{
		CompanyID: m.CompanyID, SupplierID: req.SupplierID,
		Name: strings.TrimSpace(req.Name), Reference: req.Reference,
		Category: req.Category, Unit: req.Unit,
		UnitPrice: req.UnitPrice, VATRate: req.VATRate,
		Description: req.Description,
	}
	if req.ID != 0 {
		var existing models.Material
		if err := h.DB.First(&existing, req.ID).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := h.Gate.Authorize(r.Context(), m, policy.ActionUpdate, "material", existing); err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		material.ID = existing.ID
		material.CreatedAt = existing.CreatedAt
		material.ImagePath = existing.ImagePath
		if err := h.DB.Save(&material).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, material)
		return
	}
	if err := h.DB.Create(&material).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, material)
}

func (h *MaterialHandler) delete(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var material models.Material
	if err := h.DB.First(&material, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionDelete, "material", material); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := h.DB.Delete(&material).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
