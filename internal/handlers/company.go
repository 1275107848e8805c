package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/policy"
	"github.com/kairostudio/backoffice/internal/storage"
	"github.com/kairostudio/backoffice/internal/validation"
)

// CompanyHandler manages the tenant profile printed on every document.
type CompanyHandler struct {
	DB    *gorm.DB
	Store *storage.Store
}

func NewCompanyHandler(db *gorm.DB, store *storage.Store) *CompanyHandler {
	return &CompanyHandler{DB: db, Store: store}
}

func (h *CompanyHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/company", h.handle)
	mux.HandleFunc("/company/logo", h.uploadLogo)
}

func (h *CompanyHandler) handle(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		var company models.Company
		if err := h.DB.First(&company, m.CompanyID).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, company)
	case http.MethodPost:
		h.update(w, r, m)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

type companyRequest struct {
	Name        string `json:"name"`
	LegalName   string `json:"legal_name"`
	VATNumber   string `json:"vat_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Website     string `json:"website"`
	LegalFooter string `json:"legal_footer"`
}

func (h *CompanyHandler) update(w http.ResponseWriter, r *http.Request, m policy.Member) {
	if m.Role != models.RoleAdmin {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	var req companyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Email("email", req.Email, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var company models.Company
	if err := h.DB.First(&company, m.CompanyID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	company.Name = strings.TrimSpace(req.Name)
	company.LegalName = req.LegalName
	company.VATNumber = req.VATNumber
	company.Address = req.Address
	company.City = req.City
	company.Country = req.Country
	company.Phone = req.Phone
	company.Email = req.Email
	company.Website = req.Website
	company.LegalFooter = req.LegalFooter
	if err := h.DB.Save(&company).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, company)
}

// uploadLogo stores the company logo; the renderer falls back to text
// initials when the stored file is absent or unreadable.
func (h *CompanyHandler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if r.Method != http.MethodPost {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if m.Role != models.RoleAdmin {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_multipart", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"file": "required"})
		return
	}
	defer file.Close()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"file": "unsupported_format"})
		return
	}

	rel, _, err := h.Store.Save(m.CompanyID, "logo"+ext, file)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "storage_error", nil)
		return
	}
	var company models.Company
	if err := h.DB.First(&company, m.CompanyID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	old := company.LogoPath
	company.LogoPath = filepath.Join(h.Store.BaseDir, rel)
	if err := h.DB.Save(&company).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if old != "" && strings.HasPrefix(old, h.Store.BaseDir) {
		_ = h.Store.Remove(strings.TrimPrefix(old, h.Store.BaseDir+string(filepath.Separator)))
	}
	httpx.JSON(w, http.StatusOK, company)
}
