package handlers

import (
	"net/http"

	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/i18n"
)

// MetaHandler serves static reference data for clients: translated enum
// labels keyed by canonical value. Language comes from Accept-Language,
// French by default.
type MetaHandler struct{}

func NewMetaHandler() *MetaHandler { return &MetaHandler{} }

func (h *MetaHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/labels", h.labels)
}

func (h *MetaHandler) labels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
	httpx.JSON(w, http.StatusOK, map[string]any{"lang": lang, "labels": i18n.Labels(lang)})
}
