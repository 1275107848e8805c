package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/policy"
	"github.com/kairostudio/backoffice/internal/validation"
)

type ProjectHandler struct {
	DB   *gorm.DB
	Gate *policy.Gate
}

func NewProjectHandler(db *gorm.DB, gate *policy.Gate) *ProjectHandler {
	return &ProjectHandler{DB: db, Gate: gate}
}

func (h *ProjectHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/projects", h.handle)
}

func (h *ProjectHandler) handle(w http.ResponseWriter, r *http.Request) {
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

func (h *ProjectHandler) list(w http.ResponseWriter, r *http.Request, m policy.Member) {
	limit, offset := paginate(r)
	dbq := h.DB.Where("company_id = ?", m.CompanyID)
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		dbq = dbq.Where("client_id = ?", clientID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		dbq = dbq.Where("status = ?", status)
	}
	var total int64
	dbq.Model(&models.Project{}).Count(&total)
	var projects []models.Project
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&projects).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(projects, total, limit, offset))
}

func (h *ProjectHandler) get(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, _ := idParam(r)
	var project models.Project
	if err := h.DB.First(&project, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionView, "project", project); err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

type projectRequest struct {
	ID          uint   `json:"id"`
	ClientID    uint   `json:"client_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func parseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func (h *ProjectHandler) upsert(w http.ResponseWriter, r *http.Request, m policy.Member) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	if req.Status == "" {
		req.Status = models.ProjectStatusPlanned
	}
	validation.OneOf("status", req.Status, []string{
		models.ProjectStatusPlanned, models.ProjectStatusInProgress,
		models.ProjectStatusOnHold, models.ProjectStatusCompleted,
	}, v)
	start, okStart := parseDate(req.StartDate)
	if !okStart {
		v["start_date"] = "invalid_date"
	}
	end, okEnd := parseDate(req.EndDate)
	if !okEnd {
		v["end_date"] = "invalid_date"
	}
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	// Le client doit appartenir a la meme societe.
	var client models.Client
	if err := h.DB.First(&client, req.ClientID).Error; err != nil || client.CompanyID != m.CompanyID {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"client_id": "unknown_client"})
		return
	}

	project := models.Project{
		CompanyID: m.CompanyID, ClientID: req.ClientID,
		Name: strings.TrimSpace(req.Name), Description: req.Description,
		Status: req.Status, StartDate: start, EndDate: end,
	}
	if req.ID != 0 {
		var existing models.Project
		if err := h.DB.First(&existing, req.ID).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := h.Gate.Authorize(r.Context(), m, policy.ActionUpdate, "project", existing); err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		project.ID = existing.ID
		project.CreatedAt = existing.CreatedAt
		if err := h.DB.Save(&project).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, project)
		return
	}
	if err := h.DB.Create(&project).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) delete(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var project models.Project
	if err := h.DB.First(&project, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionDelete, "project", project); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := h.DB.Delete(&project).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
