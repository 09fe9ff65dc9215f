package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"folio/folio/config"
	"folio/folio/middlewares"
	"folio/folio/prompts"
	"folio/folio/services/llm"
	"folio/folio/services/ratelimit"
	"folio/folio/sources/psql"
	"folio/folio/sources/psql/dao"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testCfg = config.Config{JWTSecret: "controller-secret"}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, psql.Migrate(context.Background(), db))
	return db
}

func testPrompts(t *testing.T) *prompts.Prompts {
	t.Helper()
	p, err := prompts.Load("")
	require.NoError(t, err)
	return p
}

func testToken(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testCfg.JWTSecret))
	require.NoError(t, err)
	return tok
}

// chatFixture is a relay wired to an httptest upstream and a sqlite-backed
// limiter.
type chatFixture struct {
	ctrl     *ChatController
	upstream *httptest.Server
	handler  http.Handler
}

func newChatFixture(t *testing.T, max int, upstream http.HandlerFunc) *chatFixture {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	limiter := ratelimit.NewLimiter(dao.NewRateLimitDAO(setupTestDB(t)), max, time.Hour)
	gateway := llm.NewGatewayClient(srv.URL, "upstream-key", "test-model", 5*time.Second)
	ctrl := NewChatController(gateway, limiter, testPrompts(t))
	return &chatFixture{
		ctrl:     ctrl,
		upstream: srv,
		handler:  middlewares.AuthMiddleware(testCfg)(http.HandlerFunc(ctrl.Relay)),
	}
}

func (f *chatFixture) post(t *testing.T, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}
