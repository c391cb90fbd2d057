package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"eduauth/internal/authz"
	"eduauth/internal/domain"
	"eduauth/internal/dto"
	"eduauth/internal/netutil"
	"eduauth/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// XFF can be a list: client, proxy1, proxy2...
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if normalized, ok := netutil.NormalizeIP(ip); ok {
			return normalized
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		if normalized, ok := netutil.NormalizeIP(xr); ok {
			return normalized
		}
	}
	if normalized, ok := netutil.NormalizeIP(r.RemoteAddr); ok {
		return normalized
	}
	return r.RemoteAddr
}

type Services struct {
	Auth     service.AuthService
	Tokens   service.TokenService
	Identity service.IdentityService
	MFA      service.MFAService
	Authz    authz.Deps
}

func NewRouter(s Services) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
			var req dto.LoginRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			res, err := s.Auth.Login(r.Context(), req, clientIP(r), r.UserAgent())
			if err != nil {
				writeAuthError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
		})

		r.Post("/login/2fa", func(w http.ResponseWriter, r *http.Request) {
			var req dto.SecondFactorRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			res, err := s.Auth.SubmitSecondFactor(r.Context(), req, clientIP(r), r.UserAgent())
			if err != nil {
				writeAuthError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
		})

		r.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
			var req dto.RefreshRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			res, err := s.Tokens.Refresh(r.Context(), req.RefreshToken, clientIP(r), r.UserAgent())
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			writeJSON(w, http.StatusOK, res)
		})
	})

	// Everything below requires a valid access token; the route-level
	// evaluators then decide on the resolved identity.
	r.Group(func(r chi.Router) {
		r.Use(WithAccessToken(s.Tokens))

		r.With(Require(authz.Observe(authz.IsAuthenticated{Deps: s.Authz}))).
			Post("/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
				sessionID, _ := SessionIDFromContext(r.Context())
				if err := s.Auth.Logout(r.Context(), sessionID); err != nil {
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

		r.With(Require(authz.Observe(authz.InSchool{Deps: s.Authz}))).
			Get("/v1/schools/current", func(w http.ResponseWriter, r *http.Request) {
				userID, _ := UserIDFromContext(r.Context())
				school, err := s.Identity.ResolveSchool(r.Context(), userID)
				if err != nil {
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				if school == nil {
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				writeJSON(w, http.StatusOK, school)
			})

		r.With(Require(authz.Observe(authz.IsStudent{Deps: s.Authz}))).
			Get("/v1/classes/current", func(w http.ResponseWriter, r *http.Request) {
				userID, _ := UserIDFromContext(r.Context())
				class, err := s.Identity.ResolveClass(r.Context(), userID)
				if err != nil {
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				if class == nil {
					// Independent learner: a student with no class.
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				writeJSON(w, http.StatusOK, class)
			})

		r.With(Require(authz.Observe(authz.IsAuthenticated{Deps: s.Authz}))).
			Route("/v1/mfa", func(r chi.Router) {
				r.Post("/otp", func(w http.ResponseWriter, r *http.Request) {
					var req dto.EnableOTPRequest
					if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
						http.Error(w, "bad request", http.StatusBadRequest)
						return
					}
					userID, _ := UserIDFromContext(r.Context())
					if err := s.MFA.EnableOTP(r.Context(), userID, req.Secret); err != nil {
						http.Error(w, err.Error(), http.StatusBadRequest)
						return
					}
					w.WriteHeader(http.StatusNoContent)
				})

				r.Delete("/otp", func(w http.ResponseWriter, r *http.Request) {
					userID, _ := UserIDFromContext(r.Context())
					if err := s.MFA.DisableFactor(r.Context(), userID, domain.FactorOTP); err != nil {
						http.Error(w, "internal error", http.StatusInternalServerError)
						return
					}
					w.WriteHeader(http.StatusNoContent)
				})

				r.Post("/backup-tokens", func(w http.ResponseWriter, r *http.Request) {
					userID, _ := UserIDFromContext(r.Context())
					tokens, err := s.MFA.GenerateBackupTokens(r.Context(), userID)
					if err != nil {
						if errors.Is(err, domain.ErrFactorNotEnrolled) {
							http.Error(w, "otp factor not enrolled", http.StatusConflict)
							return
						}
						http.Error(w, "internal error", http.StatusInternalServerError)
						return
					}
					writeJSON(w, http.StatusOK, dto.BackupTokensResponse{Tokens: tokens})
				})
			})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeAuthError keeps the rejection surface narrow: every credential or
// factor failure is an unauthorized with a generic message.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidSecondFactor),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrUserDisabled):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
