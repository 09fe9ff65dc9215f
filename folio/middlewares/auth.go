package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"folio/folio/config"
	"folio/folio/utils/apperr"
	httputils "folio/folio/utils/http"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const PrincipalKey contextKey = "principal_id"

var errInvalidToken = errors.New("invalid token")

// VerifyToken checks an HS256 token against the configured secret and
// returns its subject.
func VerifyToken(cfg config.Config, tokenStr string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errInvalidToken
	}
	return sub, nil
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func AuthMiddleware(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := BearerToken(r)
			if !ok {
				httputils.WriteError(w, r, apperr.Unauthorized("Unauthorized"))
				return
			}
			principal, err := VerifyToken(cfg, tokenStr)
			if err != nil {
				httputils.WriteError(w, r, apperr.Unauthorized("Unauthorized"))
				return
			}
			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalID returns the subject stored by AuthMiddleware.
func PrincipalID(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(PrincipalKey).(string)
	return p, ok && p != ""
}
