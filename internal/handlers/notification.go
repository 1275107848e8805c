package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/policy"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

func (h *NotificationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/notifications", h.handle)
	mux.HandleFunc("/notifications/read", h.markRead)
}

func (h *NotificationHandler) handle(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	h.list(w, r, m)
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request, m policy.Member) {
	limit, offset := paginate(r)
	dbq := h.DB.Where("user_id = ?", m.UserID)
	if r.URL.Query().Get("unread") == "1" {
		dbq = dbq.Where("read = ?", false)
	}
	var total int64
	dbq.Model(&models.Notification{}).Count(&total)
	var notifications []models.Notification
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(notifications, total, limit, offset))
}

// markRead marks one notification (?id=) or all of the user's (?all=1).
func (h *NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if r.Method != http.MethodPost {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if r.URL.Query().Get("all") == "1" {
		if err := h.DB.Model(&models.Notification{}).
			Where("user_id = ? AND read = ?", m.UserID, false).
			Update("read", true).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	id, okID := idParam(r)
	if !okID {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, m.UserID).
		Update("read", true)
	if res.Error != nil {
		httpx.WriteError(w, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
