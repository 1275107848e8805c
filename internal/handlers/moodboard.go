package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/ai"
	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/policy"
	"github.com/kairostudio/backoffice/internal/validation"
)

type MoodboardHandler struct {
	DB        *gorm.DB
	Gate      *policy.Gate
	Assistant *ai.MoodboardAssistant
}

func NewMoodboardHandler(db *gorm.DB, gate *policy.Gate, assistant *ai.MoodboardAssistant) *MoodboardHandler {
	return &MoodboardHandler{DB: db, Gate: gate, Assistant: assistant}
}

func (h *MoodboardHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/moodboards", h.handle)
	mux.HandleFunc("/moodboards/suggest", h.suggest)
}

func (h *MoodboardHandler) handle(w http.ResponseWriter, r *http.Request) {
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

func (h *MoodboardHandler) list(w http.ResponseWriter, r *http.Request, m policy.Member) {
	limit, offset := paginate(r)
	dbq := h.DB.Where("company_id = ?", m.CompanyID)
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		dbq = dbq.Where("project_id = ?", projectID)
	}
	var total int64
	dbq.Model(&models.Moodboard{}).Count(&total)
	var boards []models.Moodboard
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&boards).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(boards, total, limit, offset))
}

func (h *MoodboardHandler) get(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, _ := idParam(r)
	var board models.Moodboard
	err := h.DB.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		First(&board, id).Error
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionView, "moodboard", board); err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

type moodboardItemRequest struct {
	ImagePath string `json:"image_path"`
	Caption   string `json:"caption"`
}

type moodboardRequest struct {
	ID          uint                   `json:"id"`
	ProjectID   uint                   `json:"project_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Items       []moodboardItemRequest `json:"items"`
}

func (h *MoodboardHandler) upsert(w http.ResponseWriter, r *http.Request, m policy.Member) {
	var req moodboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("title", req.Title, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if req.ProjectID != 0 {
		var project models.Project
		if err := h.DB.First(&project, req.ProjectID).Error; err != nil || project.CompanyID != m.CompanyID {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"project_id": "unknown_project"})
			return
		}
	}

	board := models.Moodboard{
		CompanyID:   m.CompanyID,
		ProjectID:   req.ProjectID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}
	for i, item := range req.Items {
		board.Items = append(board.Items, models.MoodboardItem{
			ImagePath: item.ImagePath,
			Caption:   item.Caption,
			Position:  i,
		})
	}

	if req.ID != 0 {
		var existing models.Moodboard
		if err := h.DB.First(&existing, req.ID).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := h.Gate.Authorize(r.Context(), m, policy.ActionUpdate, "moodboard", existing); err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		board.ID = existing.ID
		board.CreatedAt = existing.CreatedAt
		err := h.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("moodboard_id = ?", board.ID).Delete(&models.MoodboardItem{}).Error; err != nil {
				return err
			}
			for i := range board.Items {
				board.Items[i].MoodboardID = board.ID
			}
			return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&board).Error
		})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, board)
		return
	}
	if err := h.DB.Create(&board).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, board)
}

func (h *MoodboardHandler) delete(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var board models.Moodboard
	if err := h.DB.First(&board, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionDelete, "moodboard", board); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("moodboard_id = ?", board.ID).Delete(&models.MoodboardItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&board).Error
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type suggestRequest struct {
	Style string `json:"style"`
	Room  string `json:"room"`
	Notes string `json:"notes"`
}

// suggest asks the assistant for palette and material ideas. Disabled when
// no API key is configured.
func (h *MoodboardHandler) suggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if _, ok := currentMember(h.DB, r); !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if h.Assistant == nil || !h.Assistant.Enabled() {
		httpx.JSONError(w, http.StatusServiceUnavailable, "assistant_disabled", nil)
		return
	}
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("style", req.Style, v)
	validation.Required("room", req.Room, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	suggestion, err := h.Assistant.Suggest(r.Context(), req.Style, req.Room, req.Notes)
	if err != nil {
		if errors.Is(err, ai.ErrDisabled) {
			httpx.JSONError(w, http.StatusServiceUnavailable, "assistant_disabled", nil)
			return
		}
		httpx.JSONError(w, http.StatusBadGateway, "assistant_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"suggestion": suggestion})
}
