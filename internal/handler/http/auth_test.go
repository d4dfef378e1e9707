package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/AccountsGo/internal/auth"
	"github.com/utafrali/AccountsGo/internal/domain"
	"github.com/utafrali/AccountsGo/internal/event"
	"github.com/utafrali/AccountsGo/internal/mail"
	"github.com/utafrali/AccountsGo/internal/repository"
	"github.com/utafrali/AccountsGo/internal/service"
	"github.com/utafrali/AccountsGo/internal/session"
	apperrors "github.com/utafrali/AccountsGo/pkg/errors"
	pkgkafka "github.com/utafrali/AccountsGo/pkg/kafka"
	"github.com/utafrali/AccountsGo/pkg/middleware"
)

// ============================================================================
// Mock Repository
// ============================================================================

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepo) Update(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepo) SetOneTimeCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	args := m.Called(ctx, id, code, expiresAt)
	return args.Error(0)
}

func (m *mockAccountRepo) MarkVerified(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccountRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockAccountRepo) SetStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockAccountRepo) SoftDelete(ctx context.Context, id, deletedBy string) error {
	args := m.Called(ctx, id, deletedBy)
	return args.Error(0)
}

func (m *mockAccountRepo) List(ctx context.Context, filter repository.ListFilter) ([]domain.Account, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Account), args.Int(1), args.Error(2)
}

type discardMailer struct{}

func (discardMailer) Name() string                                { return "discard" }
func (discardMailer) Send(_ context.Context, _ *mail.Message) error { return nil }

// ============================================================================
// Test Helpers
// ============================================================================

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestCodec(t *testing.T) *auth.TokenCodec {
	t.Helper()
	codec, err := auth.NewTokenCodec("test-secret-key-for-testing", 30*24*time.Hour)
	require.NoError(t, err)
	return codec
}

func handlerTestService(t *testing.T, repo *mockAccountRepo) *service.AccountService {
	t.Helper()
	logger := handlerTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	producer := event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
	return service.NewAccountService(
		repo,
		handlerTestCodec(t),
		discardMailer{},
		producer,
		session.NewNoopRevoker(),
		logger,
		service.Config{
			SessionTTL:    30 * 24 * time.Hour,
			SignupCodeTTL: 48 * time.Hour,
			ResetCodeTTL:  15 * time.Minute,
			VerifyBaseURL: "http://localhost:8080",
		},
	)
}

// fakeGate returns auth middleware that accepts any bearer token as the given
// principal, skipping the live identity reload.
func fakeGate(accountID, role string) func(http.Handler) http.Handler {
	validate := func(token string) (*middleware.Claims, error) {
		return &middleware.Claims{AccountID: accountID, Role: role, TokenID: "test-jti"}, nil
	}
	return middleware.Auth(validate, nil)
}

func setupAuthRouter(h *AuthHandler, accountID, role string) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/signup", h.SignUp)
		r.Post("/signin", h.SignIn)
		r.Get("/verify/{accountID}/{token}", h.Verify)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password/{accountID}/{token}", h.ResetPassword)
		r.Post("/change-password", h.ChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(fakeGate(accountID, role))
			r.Post("/logout", h.SignOut)
			r.Post("/update-password", h.UpdatePassword)
		})
	})
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func putJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const testAccountID = "550e8400-e29b-41d4-a716-446655440001"

func verifiedAccount(t *testing.T) *domain.Account {
	t.Helper()
	hash, err := auth.HashPassword("SecurePass123")
	require.NoError(t, err)
	now := time.Now().UTC()
	return &domain.Account{
		ID:           testAccountID,
		Role:         domain.RoleUser,
		FullName:     "Alice Smith",
		Email:        "alice@example.com",
		PasswordHash: hash,
		IsVerified:   true,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ============================================================================
// SignUp
// ============================================================================

func TestSignUpEndpoint_Success(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("SetOneTimeCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := postJSON(t, router, "/api/v1/auth/signup", map[string]string{
		"full_name": "John Doe",
		"email":     "john@example.com",
		"password":  "SecurePass123",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	// The password hash must never appear in the response body.
	assert.NotContains(t, rec.Body.String(), "password_hash")
	repo.AssertExpectations(t)
}

func TestSignUpEndpoint_ValidationError(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	rec := postJSON(t, router, "/api/v1/auth/signup", map[string]string{
		"full_name": "John Doe",
		"email":     "not-an-email",
		"password":  "SecurePass123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "email")
	repo.AssertNotCalled(t, "Create")
}

func TestSignUpEndpoint_DuplicateEmail(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	repo.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("account", "email", "john@example.com"))

	rec := postJSON(t, router, "/api/v1/auth/signup", map[string]string{
		"full_name": "John Doe",
		"email":     "john@example.com",
		"password":  "SecurePass123",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_EXISTS", resp.Error.Code)
}

// ============================================================================
// SignIn
// ============================================================================

func TestSignInEndpoint_Success(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(verifiedAccount(t), nil)

	rec := postJSON(t, router, "/api/v1/auth/signin", map[string]string{
		"email":    "alice@example.com",
		"password": "SecurePass123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, len(resp.Data.Token) > 7)
	assert.Equal(t, "Bearer ", resp.Data.Token[:7])
}

func TestSignInEndpoint_WrongPassword(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(verifiedAccount(t), nil)

	rec := postJSON(t, router, "/api/v1/auth/signin", map[string]string{
		"email":    "alice@example.com",
		"password": "WrongPass123",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	assert.Equal(t, "invalid email or password", resp.Error.Message)
}

func TestSignInEndpoint_InactiveAccount(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	account := verifiedAccount(t)
	account.Status = domain.StatusInactive
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(account, nil)

	rec := postJSON(t, router, "/api/v1/auth/signin", map[string]string{
		"email":    "alice@example.com",
		"password": "SecurePass123",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ACCOUNT_INACTIVE", resp.Error.Code)
}

// ============================================================================
// Verify
// ============================================================================

func TestVerifyEndpoint_Success(t *testing.T) {
	repo := new(mockAccountRepo)
	svc := handlerTestService(t, repo)
	h := NewAuthHandler(svc, handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	account := verifiedAccount(t)
	account.IsVerified = false
	code := "4821"
	expiry := time.Now().UTC().Add(48 * time.Hour)
	account.OneTimeCode = &code
	account.CodeExpiresAt = &expiry

	repo.On("GetByID", mock.Anything, testAccountID).Return(account, nil)
	repo.On("MarkVerified", mock.Anything, testAccountID).Return(nil)

	token, err := handlerTestCodec(t).IssueVerificationToken(testAccountID, code, 48*time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/verify/"+testAccountID+"/"+token, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestVerifyEndpoint_BadToken(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	account := verifiedAccount(t)
	account.IsVerified = false
	repo.On("GetByID", mock.Anything, testAccountID).Return(account, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/verify/"+testAccountID+"/garbage", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "MarkVerified")
}

// ============================================================================
// Password flows
// ============================================================================

func TestForgotPasswordEndpoint_AlwaysOK(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	rec := postJSON(t, router, "/api/v1/auth/forgot-password", map[string]string{
		"email": "ghost@example.com",
	})

	// Unknown addresses produce the same response as known ones.
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetPasswordEndpoint_Success(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	account := verifiedAccount(t)
	code := "4821"
	expiry := time.Now().UTC().Add(15 * time.Minute)
	account.OneTimeCode = &code
	account.CodeExpiresAt = &expiry

	repo.On("GetByID", mock.Anything, testAccountID).Return(account, nil)
	repo.On("UpdatePassword", mock.Anything, testAccountID, mock.AnythingOfType("string")).Return(nil)

	token, err := handlerTestCodec(t).IssueVerificationToken(testAccountID, code, 15*time.Minute)
	require.NoError(t, err)

	rec := postJSON(t, router, "/api/v1/auth/reset-password/"+testAccountID+"/"+token, map[string]string{
		"new_password": "NewSecure456",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestChangePasswordEndpoint_Success(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, "", "")

	account := verifiedAccount(t)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(account, nil)
	repo.On("UpdatePassword", mock.Anything, account.ID, mock.AnythingOfType("string")).Return(nil)

	rec := postJSON(t, router, "/api/v1/auth/change-password", map[string]string{
		"email":        "alice@example.com",
		"new_password": "NewSecure456",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestUpdatePasswordEndpoint_Success(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, testAccountID, domain.RoleUser)

	account := verifiedAccount(t)
	repo.On("GetByID", mock.Anything, testAccountID).Return(account, nil)
	repo.On("UpdatePassword", mock.Anything, testAccountID, mock.AnythingOfType("string")).Return(nil)

	rec := postJSON(t, router, "/api/v1/auth/update-password", map[string]string{
		"current_password": "SecurePass123",
		"new_password":     "NewSecure456",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestUpdatePasswordEndpoint_WrongCurrent(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, testAccountID, domain.RoleUser)

	repo.On("GetByID", mock.Anything, testAccountID).Return(verifiedAccount(t), nil)

	rec := postJSON(t, router, "/api/v1/auth/update-password", map[string]string{
		"current_password": "WrongPass123",
		"new_password":     "NewSecure456",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	repo.AssertNotCalled(t, "UpdatePassword")
}

func TestLogoutEndpoint(t *testing.T) {
	repo := new(mockAccountRepo)
	h := NewAuthHandler(handlerTestService(t, repo), handlerTestLogger())
	router := setupAuthRouter(h, testAccountID, domain.RoleUser)

	rec := postJSON(t, router, "/api/v1/auth/logout", map[string]string{})

	assert.Equal(t, http.StatusOK, rec.Code)
}
