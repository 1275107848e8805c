package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/policy"
	"github.com/kairostudio/backoffice/internal/validation"
)

type ClientHandler struct {
	DB   *gorm.DB
	Gate *policy.Gate
}

func NewClientHandler(db *gorm.DB, gate *policy.Gate) *ClientHandler {
	return &ClientHandler{DB: db, Gate: gate}
}

func (h *ClientHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/clients", h.handle)
}

func (h *ClientHandler) handle(w http.ResponseWriter, r *http.Request) {
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

func (h *ClientHandler) list(w http.ResponseWriter, r *http.Request, m policy.Member) {
	limit, offset := paginate(r)
	dbq := h.DB.Where("company_id = ?", m.CompanyID)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		dbq = dbq.Where("lower(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if status := r.URL.Query().Get("status"); status != "" {
		dbq = dbq.Where("status = ?", status)
	}
	var total int64
	dbq.Model(&models.Client{}).Count(&total)
	var clients []models.Client
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&clients).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(clients, total, limit, offset))
}

func (h *ClientHandler) get(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, _ := idParam(r)
	var client models.Client
	if err := h.DB.First(&client, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionView, "client", client); err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

type clientRequest struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

func (h *ClientHandler) upsert(w http.ResponseWriter, r *http.Request, m policy.Member) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Email("email", req.Email, v)
	if req.Status == "" {
		req.Status = models.ClientStatusLead
	}
	validation.OneOf("status", req.Status, []string{models.ClientStatusLead, models.ClientStatusActive, models.ClientStatusArchived}, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	client := models.Client{
		CompanyID: m.CompanyID,
		Name:      strings.TrimSpace(req.Name), ContactName: req.ContactName,
		Email: req.Email, Phone: req.Phone,
		Address: req.Address, City: req.City, Country: req.Country,
		Status: req.Status, Notes: req.Notes,
	}
	if req.ID != 0 {
		var existing models.Client
		if err := h.DB.First(&existing, req.ID).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := h.Gate.Authorize(r.Context(), m, policy.ActionUpdate, "client", existing); err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		client.ID = existing.ID
		client.CreatedAt = existing.CreatedAt
		if err := h.DB.Save(&client).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, client)
		return
	}
	if err := h.DB.Create(&client).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) delete(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var client models.Client
	if err := h.DB.First(&client, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionDelete, "client", client); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := h.DB.Delete(&client).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
