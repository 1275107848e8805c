package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kairostudio/backoffice/internal/auth"
	"github.com/kairostudio/backoffice/internal/httpx"
	"github.com/kairostudio/backoffice/internal/models"
	"github.com/kairostudio/backoffice/internal/validation"
)

type AuthHandler struct{ DB *gorm.DB }

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/setup", h.setup)
	mux.HandleFunc("/signup", h.signup)
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/logout", h.logout)
	mux.HandleFunc("/members", h.members)
	mux.HandleFunc("/me", h.me)
}

type setupRequest struct {
	CompanyName string `json:"company_name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

// setup bootstraps the first admin and their company. Runs once: further
// calls are rejected, members are then invited through /members.
func (h *AuthHandler) setup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("company_name", req.CompanyName, v)
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "already_configured", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "hash_failed", nil)
		return
	}
	var admin models.User
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		company := models.Company{
			Name:    strings.TrimSpace(req.CompanyName),
			Address: req.Address, City: req.City, Country: req.Country,
			Phone: req.Phone, Email: strings.ToLower(strings.TrimSpace(req.Email)),
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		admin = models.User{
			CompanyID: company.ID,
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Password:  string(hash),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      models.RoleAdmin,
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	auth.CreateSession(w, admin.ID)
	httpx.JSON(w, http.StatusCreated, map[string]any{"user_id": admin.ID, "company_id": admin.CompanyID})
}

// signup registers a new company with its first admin. Unlike /setup it is
// not limited to an empty database: each signup opens a new tenant.
func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("company_name", req.CompanyName, v)
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "hash_failed", nil)
		return
	}
	var admin models.User
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		company := models.Company{
			Name:    strings.TrimSpace(req.CompanyName),
			Address: req.Address, City: req.City, Country: req.Country,
			Phone: req.Phone, Email: email,
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		admin = models.User{
			CompanyID: company.ID,
			Email:     email,
			Password:  string(hash),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      models.RoleAdmin,
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	auth.CreateSession(w, admin.ID)
	httpx.JSON(w, http.StatusCreated, map[string]any{"user_id": admin.ID, "company_id": admin.CompanyID})
}

type memberRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// members lets an admin create accounts inside their own company.
func (h *AuthHandler) members(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		var users []models.User
		if err := h.DB.Select("id", "email", "first_name", "last_name", "role", "created_at").
			Where("company_id = ?", m.CompanyID).Order("id").Find(&users).Error; err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": users})
	case http.MethodPost:
		if m.Role != models.RoleAdmin {
			httpx.JSONError(w, http.StatusForbidden, "admin_required", nil)
			return
		}
		var req memberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		v := validation.Violations{}
		validation.Required("email", req.Email, v)
		validation.Email("email", req.Email, v)
		validation.Required("password", req.Password, v)
		role := req.Role
		if role == "" {
			role = models.RoleMember
		}
		validation.OneOf("role", role, []string{models.RoleAdmin, models.RoleMember}, v)
		if !v.Empty() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "hash_failed", nil)
			return
		}
		user := models.User{
			CompanyID: m.CompanyID,
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Password:  string(hash),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      role,
		}
		if err := h.DB.Create(&user).Error; err != nil {
			httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
			return
		}
		httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email, "role": user.Role})
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	var user models.User
	if err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": user.ID, "company_id": user.CompanyID, "role": user.Role})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	m, ok := currentMember(h.DB, r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var user models.User
	if err := h.DB.Select("id", "company_id", "email", "first_name", "last_name", "role").First(&user, m.UserID).Error; err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
