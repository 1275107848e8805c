package handlers

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/auth"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/policy"
)

// currentMember resolves the session user into the authorization subject.
// Every handler goes through this; the member's CompanyID is the tenancy
// boundary applied to all queries.
func currentMember(db *gorm.DB, r *http.Request) (policy.Member, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return policy.Member{}, false
	}
	var user models.User
	if err := db.Select("id", "company_id", "role").First(&user, uid).Error; err != nil {
		return policy.Member{}, false
	}
	return policy.Member{UserID: user.ID, CompanyID: user.CompanyID, Role: user.Role}, true
}

// idParam reads ?id= as a positive integer.
func idParam(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// paginate reads ?limit= and ?page= in the 1..200 / 1.. ranges.
func paginate(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// listResponse is the shared pagination envelope.
func listResponse(items any, total int64, limit, offset int) map[string]any {
	return map[string]any{"items": items, "total": total, "limit": limit, "offset": offset}
}
