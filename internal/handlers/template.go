package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/export"
	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/policy"
	"github.com/kairostudio/backoffice/internal/validation"
)

// TemplateHandler manages the HTML document templates (letters, contracts,
// handover notes) and their rendering against an entity context.
type TemplateHandler struct {
	DB   *gorm.DB
	Gate *policy.Gate
}

func NewTemplateHandler(db *gorm.DB, gate *policy.Gate) *TemplateHandler {
	return &TemplateHandler{DB: db, Gate: gate}
}

func (h *TemplateHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/templates", h.handle)
	mux.HandleFunc("/templates/render", h.render)
}

func (h *TemplateHandler) handle(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
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

func (h *TemplateHandler) list(w http.ResponseWriter, r *http.Request, m policy.Member) {
	dbq := h.DB.Where("company_id = ?", m.CompanyID)
	if typ := r.URL.Query().Get("type"); typ != "" {
		dbq = dbq.Where("type = ?", typ)
	}
	var templates []models.Template
	if err := dbq.Order("name asc").Find(&templates).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": templates})
}

type templateRequest struct {
	ID        uint   `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	IsDefault bool   `json:"is_default"`
}

func (h *TemplateHandler) upsert(w http.ResponseWriter, r *http.Request, m policy.Member) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Required("content", req.Content, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	t := models.Template{
		CompanyID: m.CompanyID,
		Type:      req.Type,
		Name:      strings.TrimSpace(req.Name),
		Content:   req.Content,
		IsDefault: req.IsDefault,
	}
	if req.ID != 0 {
		var existing models.Template
		if err := h.DB.First(&existing, req.ID).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := h.Gate.Authorize(r.Context(), m, policy.ActionUpdate, "template", existing); err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
		if err := h.DB.Save(&t).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, t)
		return
	}
	if err := h.DB.Create(&t).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *TemplateHandler) delete(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var t models.Template
	if err := h.DB.First(&t, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionDelete, "template", t); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := h.DB.Delete(&t).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type renderRequest struct {
	TemplateID uint              `json:"template_id"`
	ClientID   uint              `json:"client_id"`
	ProjectID  uint              `json:"project_id"`
	Fields     map[string]string `json:"fields"`
}

// render fills a template with company/client/project fields and returns
// the resulting HTML.
func (h *TemplateHandler) render(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	var t models.Template
	if err := h.DB.First(&t, req.TemplateID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionView, "template", t); err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	ctx := export.Context{Fields: req.Fields}
	if err := h.DB.First(&ctx.Company, m.CompanyID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if req.ClientID != 0 {
		var client models.Client
		if err := h.DB.First(&client, req.ClientID).Error; err != nil || client.CompanyID != m.CompanyID {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"client_id": "unknown_client"})
			return
		}
		ctx.Client = client
	}
	if req.ProjectID != 0 {
		var project models.Project
		if err := h.DB.First(&project, req.ProjectID).Error; err != nil || project.CompanyID != m.CompanyID {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"project_id": "unknown_project"})
			return
		}
		ctx.Project = project
	}

	html, err := export.Fill(t, ctx)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "template_error", map[string]string{"detail": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"html": html})
}
