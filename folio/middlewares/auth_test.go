package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"folio/folio/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = config.Config{JWTSecret: "test-secret"}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
}

func TestAuthMiddleware(t *testing.T) {
	var seen string
	h := AuthMiddleware(testCfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims("u1")), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
			Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}), http.StatusUnauthorized},
		{"no subject", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("test-secret"), validClaims("")), http.StatusUnauthorized},
		{"valid", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("test-secret"), validClaims("user-42")), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodPost, "/chat", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
				assert.Empty(t, seen)
			} else {
				assert.Equal(t, "user-42", seen)
			}
		})
	}
}

func TestVerifyTokenRejectsOtherAlgorithms(t *testing.T) {
	tok := sign(t, jwt.SigningMethodHS512, []byte("test-secret"), validClaims("u1"))
	_, err := VerifyToken(testCfg, tok)
	assert.Error(t, err)
}

func TestVerifyTokenIssuer(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret", JWTIssuer: "folio"}
	claims := validClaims("u1")
	_, err := VerifyToken(cfg, sign(t, jwt.SigningMethodHS256, []byte("test-secret"), claims))
	assert.Error(t, err)

	claims.Issuer = "folio"
	sub, err := VerifyToken(cfg, sign(t, jwt.SigningMethodHS256, []byte("test-secret"), claims))
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
}
