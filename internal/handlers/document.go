package handlers

import (
	"io"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/policy"
	"github.com/kairostudio/backoffice/internal/storage"
	"github.com/kairostudio/backoffice/internal/validation"
)

// maxUploadSize caps uploaded documents at 20 Mo.
const maxUploadSize = 20 << 20

type DocumentHandler struct {
	DB    *gorm.DB
	Gate  *policy.Gate
	Store *storage.Store
}

func NewDocumentHandler(db *gorm.DB, gate *policy.Gate, store *storage.Store) *DocumentHandler {
	return &DocumentHandler{DB: db, Gate: gate, Store: store}
}

func (h *DocumentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/documents", h.handle)
	mux.HandleFunc("/documents/download", h.download)
}

func (h *DocumentHandler) handle(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.list(w, r, m)
	case http.MethodPost:
		h.upload(w, r, m)
	case http.MethodDelete:
		h.delete(w, r, m)
	default:
		w.Header().Set("Allow", "GET,POST,DELETE")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *DocumentHandler) list(w http.ResponseWriter, r *http.Request, m policy.Member) {
	limit, offset := paginate(r)
	dbq := h.DB.Where("company_id = ?", m.CompanyID)
	if ownerType := r.URL.Query().Get("owner_type"); ownerType != "" {
		dbq = dbq.Where("owner_type = ?", ownerType)
	}
	if ownerID := r.URL.Query().Get("owner_id"); ownerID != "" {
		dbq = dbq.Where("owner_id = ?", ownerID)
	}
	var total int64
	dbq.Model(&models.Document{}).Count(&total)
	var docs []models.Document
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&docs).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse(docs, total, limit, offset))
}

// upload receives one multipart file plus owner_type/owner_id form fields.
func (h *DocumentHandler) upload(w http.ResponseWriter, r *http.Request, m policy.Member) {
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

	ownerType := r.FormValue("owner_type")
	ownerID, _ := strconv.Atoi(r.FormValue("owner_id"))
	v := validation.Violations{}
	validation.OneOf("owner_type", ownerType, []string{"Client", "Project", "Invoice", "Quote", "Moodboard"}, v)
	if ownerID <= 0 {
		v["owner_id"] = "required"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	rel, size, err := h.Store.Save(m.CompanyID, header.Filename, file)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "storage_error", nil)
		return
	}
	doc := models.Document{
		CompanyID:  m.CompanyID,
		OwnerType:  ownerType,
		OwnerID:    uint(ownerID),
		Name:       storage.SanitizeName(header.Filename),
		Path:       rel,
		MimeType:   header.Header.Get("Content-Type"),
		Size:       size,
		UploadedBy: m.UserID,
	}
	if err := h.DB.Create(&doc).Error; err != nil {
		// fichier orphelin sinon
		_ = h.Store.Remove(rel)
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) download(w http.ResponseWriter, r *http.Request) {
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
	var doc models.Document
	if err := h.DB.First(&doc, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionView, "document", doc); err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	f, err := h.Store.Open(doc.Path)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "file_missing", nil)
		return
	}
	defer f.Close()
	if doc.MimeType != "" {
		w.Header().Set("Content-Type", doc.MimeType)
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	_, _ = io.Copy(w, f)
}

func (h *DocumentHandler) delete(w http.ResponseWriter, r *http.Request, m policy.Member) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var doc models.Document
	if err := h.DB.First(&doc, id).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.Gate.Authorize(r.Context(), m, policy.ActionDelete, "document", doc); err != nil {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := h.DB.Delete(&doc).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = h.Store.Remove(doc.Path)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
