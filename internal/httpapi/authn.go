package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tradedesk.app/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// requireSession admits requests carrying a valid session token and attaches
// the advisor identity to the request context.
func (a *API) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="tradedesk"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		id, err := a.accounts.Sessions().Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrAuthMissing) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tradedesk"`)
				writeError(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}
			a.logger.Debug("session token rejected", zap.Error(err))
			writeError(w, r, http.StatusForbidden, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), id)))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
