package http

import (
	"encoding/json"
	"net/http"

	"github.com/utafrali/AccountsGo/internal/domain"
	"github.com/utafrali/AccountsGo/internal/service"
	"github.com/utafrali/AccountsGo/pkg/middleware"
	"github.com/utafrali/AccountsGo/pkg/validator"
)

// AccountHandler handles HTTP requests for self-service profile endpoints.
type AccountHandler struct {
	service *service.AccountService
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// --- Request DTOs ---

// UpdateProfileRequest is the JSON request body for updating the caller's profile.
type UpdateProfileRequest struct {
	FullName       *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Email          *string `json:"email" validate:"omitempty,email"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,url,max=2000"`
}

// --- Handlers ---

// GetProfile handles GET /api/v1/users/me
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.UserIDFromContext(r.Context())
	if accountID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "account not authenticated"},
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

// UpdateProfile handles PUT /api/v1/users/me
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.UserIDFromContext(r.Context())
	if accountID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "account not authenticated"},
		})
		return
	}

	var req UpdateProfileRequest
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

	account, err := h.service.UpdateProfile(r.Context(), accountID, service.UpdateProfileInput{
		FullName:       req.FullName,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: account})
}

// Deactivate handles DELETE /api/v1/users/me/deactivate
func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.UserIDFromContext(r.Context())
	if accountID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "account not authenticated"},
		})
		return
	}

	if err := h.service.Deactivate(r.Context(), accountID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]string{"id": accountID, "status": domain.StatusInactive},
	})
}

// Delete handles DELETE /api/v1/users/me. Administrative callers may delete
// another account by passing ?account_id=.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserIDFromContext(r.Context())
	if callerID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "account not authenticated"},
		})
		return
	}

	targetID := callerID
	if requested := r.URL.Query().Get("account_id"); requested != "" && requested != callerID {
		role := middleware.RoleFromContext(r.Context())
		if role != domain.RoleAdmin && role != domain.RoleSuperAdmin {
			writeJSON(w, http.StatusForbidden, response{
				Error: &errorResponse{Code: "FORBIDDEN", Message: "only administrators can delete other accounts"},
			})
			return
		}
		targetID = requested
	}

	if err := h.service.Delete(r.Context(), targetID, callerID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: map[string]string{"id": targetID, "status": "deleted"},
	})
}
