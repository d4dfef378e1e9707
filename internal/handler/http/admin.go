package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/AccountsGo/internal/domain"
	"github.com/utafrali/AccountsGo/internal/service"
	"github.com/utafrali/AccountsGo/pkg/middleware"
	"github.com/utafrali/AccountsGo/pkg/pagination"
	"github.com/utafrali/AccountsGo/pkg/validator"
)

// AdminHandler handles HTTP requests for the administrative account surface.
type AdminHandler struct {
	service *service.AccountService
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.AccountService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// --- Request DTOs ---

// CreateUserRequest is the JSON request body for an admin-created user account.
type CreateUserRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
}

// CreateAdminRequest is the JSON request body for creating an administrative account.
type CreateAdminRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"omitempty,oneof=admin superAdmin"`
}

// UpdateAccountRequest is the JSON request body for an admin account update.
type UpdateAccountRequest struct {
	FullName       *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Role           *string `json:"role" validate:"omitempty,oneof=user admin superAdmin"`
	Status         *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,url,max=2000"`
}

// listInputFromQuery builds a listing filter from the request query string.
// defaultRole scopes the listing when no explicit ?role= is given.
func listInputFromQuery(r *http.Request, defaultRole string) service.ListAccountsInput {
	q := r.URL.Query()

	input := service.ListAccountsInput{
		Search: q.Get("search"),
		Role:   q.Get("role"),
		Status: q.Get("status"),
	}
	if input.Role == "" {
		input.Role = defaultRole
	}

	if v := q.Get("created_after"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			input.CreatedAfter = &ts
		}
	}
	if v := q.Get("created_before"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			input.CreatedBefore = &ts
		}
	}

	return input
}

// --- User management (admin, superAdmin) ---

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	input := listInputFromQuery(r, domain.RoleUser)
	params := pagination.FromRequest(r)

	result, err := h.service.ListAccounts(r.Context(), input, params)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// CreateUser handles POST /api/v1/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), service.CreateAccountInput{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     domain.RoleUser,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: account})
}

// GetUser handles GET /api/v1/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "account id is required"},
		})
		return
	}

	account, err := h.service.GetProfile(r.Context(), accountID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: account})
}

// UpdateUser handles PUT /api/v1/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	h.updateAccount(w, r)
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.deleteAccount(w, r)
}

// --- Admin management (superAdmin) ---

// ListAdmins handles GET /api/v1/admin/admins
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	input := listInputFromQuery(r, domain.RoleAdmin)
	params := pagination.FromRequest(r)

	result, err := h.service.ListAccounts(r.Context(), input, params)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// CreateAdmin handles POST /api/v1/admin/admins
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	role := req.Role
	if role == "" {
		role = domain.RoleAdmin
	}

	account, err := h.service.CreateAccount(r.Context(), service.CreateAccountInput{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     role,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: account})
}

// UpdateAdmin handles PUT /api/v1/admin/admins/{id}
func (h *AdminHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	h.updateAccount(w, r)
}

// DeleteAdmin handles DELETE /api/v1/admin/admins/{id}
func (h *AdminHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	h.deleteAccount(w, r)
}

// --- Shared ---

func (h *AdminHandler) updateAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "account id is required"},
		})
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), accountID, service.UpdateAccountInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Role:           req.Role,
		Status:         req.Status,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: account})
}

func (h *AdminHandler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "account id is required"},
		})
		return
	}

	deletedBy := middleware.UserIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), accountID, deletedBy); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]string{"id": accountID, "status": "deleted"},
	})
}
