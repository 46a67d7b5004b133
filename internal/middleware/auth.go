package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/model"
	"github.com/inxsource/sales-assistant-go/internal/repository"
	"github.com/inxsource/sales-assistant-go/internal/util"
)

type contextKey string

const BusinessContextKey contextKey = "business"

func GetBusiness(ctx context.Context) *model.Business {
	if business, ok := ctx.Value(BusinessContextKey).(*model.Business); ok {
		return business
	}
	return nil
}

// AuthMiddleware authenticates dashboard API calls with a business API
// token. Only the sha256 hash of the token is stored.
type AuthMiddleware struct {
	businessRepo repository.BusinessRepository
}

func NewAuthMiddleware(businessRepo repository.BusinessRepository) *AuthMiddleware {
	return &AuthMiddleware{businessRepo: businessRepo}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
			})
			return
		}

		tokenHash := util.HashToken(token)
		business, err := m.businessRepo.FindByAPITokenHash(r.Context(), tokenHash)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: database error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Authentication failed",
			})
			return
		}

		if business == nil {
			log.Warn().Msg("auth middleware: invalid token attempt")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), BusinessContextKey, business)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	// EventSource cannot set headers, so SSE clients pass the token in
	// the query string.
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
