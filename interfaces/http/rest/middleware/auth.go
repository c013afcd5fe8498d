package middleware

import (
	"errors"
	"net/http"
	"strings"

	"warrantboard/pkg/auth"
	"warrantboard/pkg/common"

	"go.uber.org/zap"
)

// Headers accepted by DevAuthenticate.
const (
	PlayerHeader = "X-Player-ID"
	RolesHeader  = "X-Player-Roles"
)

// Authenticate validates the bearer token and rate limits per player. A nil
// limiter disables rate limiting.
func Authenticate(validator *auth.JWTValidator, limiter auth.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				common.RespondError(w, http.StatusUnauthorized, common.CodeUnauthorized, "Missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					common.RespondError(w, http.StatusUnauthorized, common.CodeUnauthorized, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					common.RespondError(w, http.StatusUnauthorized, common.CodeUnauthorized, "Invalid token signature")
				default:
					common.RespondError(w, http.StatusUnauthorized, common.CodeUnauthorized, "Invalid token")
				}
				return
			}

			if !allow(w, r, limiter, claims.PlayerID, logger) {
				return
			}

			ctx := common.WithPlayerID(r.Context(), claims.PlayerID)
			ctx = common.WithRoles(ctx, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DevAuthenticate trusts the X-Player-ID header. It is only wired when no
// JWT secret is configured outside production.
func DevAuthenticate(limiter auth.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playerID := strings.TrimSpace(r.Header.Get(PlayerHeader))
			if playerID == "" {
				common.RespondError(w, http.StatusUnauthorized, common.CodeUnauthorized, "Missing "+PlayerHeader+" header")
				return
			}
			if !allow(w, r, limiter, playerID, logger) {
				return
			}

			var roles []string
			if raw := r.Header.Get(RolesHeader); raw != "" {
				for _, role := range strings.Split(raw, ",") {
					if role = strings.TrimSpace(role); role != "" {
						roles = append(roles, role)
					}
				}
			}
			ctx := common.WithPlayerID(r.Context(), playerID)
			ctx = common.WithRoles(ctx, roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func allow(w http.ResponseWriter, r *http.Request, limiter auth.RateLimiter, key string, logger *zap.Logger) bool {
	if limiter == nil {
		return true
	}
	allowed, err := limiter.Allow(r.Context(), key)
	if err != nil {
		logger.Error("Rate limiter error", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, common.CodeInternal, "Internal server error")
		return false
	}
	if !allowed {
		common.RespondError(w, http.StatusTooManyRequests, common.CodeRateLimited, "Rate limit exceeded")
		return false
	}
	return true
}

// RequireRole rejects callers holding none of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, have := range common.GetRoles(r.Context()) {
				for _, want := range roles {
					if have == want {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			common.RespondError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
		})
	}
}

// extractToken reads the Authorization header, then the auth_token cookie.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return header
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}
