package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skomatsu/workchat/internal/config"
	"github.com/skomatsu/workchat/internal/testutil"
	"github.com/skomatsu/workchat/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandlerPanicRecovery(t *testing.T) {
	buf := &bytes.Buffer{}
	app := &WorkChatApp{
		log: testutil.TestLogger(t),
	}

	app.log.SetOutput(buf)

	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("test panic"))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler := app.errorHandler(panicHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "close", rr.Header().Get("Connection"))
	assert.Contains(t, buf.String(), "panic: test panic")
}

func TestErrorHandlerNoPanic(t *testing.T) {
	app := &WorkChatApp{}

	called := false
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler := app.errorHandler(okHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.True(t, called, "expected handler to be called")
}

func TestAuthMiddleware(t *testing.T) {
	app := NewWorkChatApp(
		http.NewServeMux(),
		testutil.TestLogger(t),
		nil,
		nil,
		nil,
		&config.Config{
			SigningKey: []byte("test-signing-key"),
		},
	)

	buf := &bytes.Buffer{}
	app.log.SetOutput(buf)

	tokenHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := UserId(r.Context())
		if !ok {
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	t.Run("valid token", func(t *testing.T) {
		now := time.Now().UTC()
		u := types.User{
			Id:        1,
			Name:      "test",
			Email:     "test@example.com",
			CreatedAt: now,
			UpdatedAt: now,
		}

		token, err := app.createJwtForSession(u, defaultJwtExpiration)
		if err != nil {
			t.Fatalf("failed to create jwt token: %v", err)
		}

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(createJwtCookie(token, defaultJwtExpiration))
		handler := app.authMiddleware(tokenHandler)
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", rr.Body.String())
		assert.Equal(t, "no-store, no-cache, must-revalidate, private", rr.Header().Get("Cache-Control"))
	})

	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		handler := app.authMiddleware(tokenHandler)
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		req.AddCookie(&http.Cookie{
			Name:  tokenCookieKey,
			Value: "invalid-token",
		})
		handler := app.authMiddleware(tokenHandler)
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, buf.String(), "failed to extract user id from token")
	})
}
