package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/AccountsGo/internal/auth"
	"github.com/utafrali/AccountsGo/internal/domain"
	"github.com/utafrali/AccountsGo/internal/service"
	apperrors "github.com/utafrali/AccountsGo/pkg/errors"
	"github.com/utafrali/AccountsGo/pkg/health"
	"github.com/utafrali/AccountsGo/pkg/middleware"
)

// NewRouter creates a chi router with all account service routes registered.
func NewRouter(
	accountService *service.AccountService,
	codec *auth.TokenCodec,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("accounts"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator bridging the gate to the internal codec. An expired
	// signature gets the distinct session-expired rejection; everything else
	// is a generic 401.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := codec.ValidateSessionToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				return nil, apperrors.SessionExpired()
			}
			return nil, err
		}
		return &middleware.Claims{
			AccountID: claims.AccountID,
			Role:      claims.Role,
			TokenID:   claims.ID,
		}, nil
	}

	// Principal checker reloading the live account on every request, so
	// deactivation and deletion defeat still-valid tokens.
	principalChecker := func(ctx context.Context, claims *middleware.Claims) (string, error) {
		return accountService.CheckPrincipal(ctx, claims.AccountID, claims.TokenID)
	}
	authGate := middleware.Auth(tokenValidator, principalChecker)

	authHandler := NewAuthHandler(accountService, logger)
	accountHandler := NewAccountHandler(accountService)
	adminHandler := NewAdminHandler(accountService)

	// Public auth endpoints
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)
		r.Get("/verify/{accountID}/{token}", authHandler.Verify)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password/{accountID}/{token}", authHandler.ResetPassword)
		r.Post("/change-password", authHandler.ChangePassword)

		// Authenticated auth endpoints
		r.Group(func(r chi.Router) {
			r.Use(authGate)

			r.Post("/logout", authHandler.SignOut)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleUser, domain.RoleAdmin))
				r.Post("/update-password", authHandler.UpdatePassword)
			})
		})
	})

	// Self-service profile endpoints
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authGate)

		r.Get("/me", accountHandler.GetProfile)
		r.Put("/me", accountHandler.UpdateProfile)
		r.Delete("/me", accountHandler.Delete)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleUser))
			r.Delete("/me/deactivate", accountHandler.Deactivate)
		})
	})

	// Administrative surface
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(authGate)

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))

			r.Get("/", adminHandler.ListUsers)
			r.Post("/", adminHandler.CreateUser)
			r.Get("/{id}", adminHandler.GetUser)
			r.Put("/{id}", adminHandler.UpdateUser)
			r.Delete("/{id}", adminHandler.DeleteUser)
		})

		r.Route("/admins", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleSuperAdmin))

			r.Get("/", adminHandler.ListAdmins)
			r.Post("/", adminHandler.CreateAdmin)
			r.Put("/{id}", adminHandler.UpdateAdmin)
			r.Delete("/{id}", adminHandler.DeleteAdmin)
		})
	})

	return r
}
