package middleware

import (
	"errors"
	"net/http"
	"strings"
	"taskManager/internal/auth"
	"taskManager/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TokenValidator interface {
	Validate(token string) (uuid.UUID, error)
}

// Authenticate пропускает запрос только с валидным Bearer-токеном
// и кладёт id пользователя в контекст
func Authenticate(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))

			userID, err := tokens.Validate(token)
			if err != nil {
				logger.Warn("HTTP: Отказ в доступе",
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.String("client_ip", r.RemoteAddr))

				writeError(w, http.StatusUnauthorized, authMessage(err), nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "No token, authorization denied"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	default:
		return "Token is not valid"
	}
}

// SecureHeaders базовые заголовки безопасности для JSON API
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
