package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"reelpass/proj/internal/domain/fields"
	"reelpass/proj/internal/gate"
	"reelpass/proj/internal/pubsub"
	"reelpass/proj/internal/storage/memory"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCookieGate(t *testing.T) {
	app, _ := NewTestApplication(nil, t)

	t.Run("anonymous on protected page redirects to login", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/watchlist", nil)
		app.CookieGate(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
		assert.Equal(t, "/login?redirect=%2Fwatchlist", recorder.Header().Get("Location"))
	})
	t.Run("redirect keeps the query string", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/search?q=dune", nil)
		app.CookieGate(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
		assert.Equal(t, "/login?redirect=%2Fsearch%3Fq%3Ddune", recorder.Header().Get("Location"))
	})
	t.Run("assets and api paths pass without a cookie", func(t *testing.T) {
		for _, path := range []string{"/api/v1/healthcheck", "/_next/chunk.js", "/favicon.ico", "/poster.jpg"} {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, path, nil)
			app.CookieGate(okHandler()).ServeHTTP(recorder, request)
			assert.Equal(t, http.StatusOK, recorder.Code, path)
		}
	})
	t.Run("login page passes without a cookie", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/login", nil)
		app.CookieGate(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
	t.Run("valid marker passes", func(t *testing.T) {
		marker, err := app.codec.Issue("0xabc123abc123abc123abc123abc123abc123abcd")
		assert.NoError(t, err)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/watchlist", nil)
		request.AddCookie(&http.Cookie{Name: gate.SessionCookie, Value: marker})
		app.CookieGate(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
	t.Run("tampered marker redirects", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/watchlist", nil)
		request.AddCookie(&http.Cookie{Name: gate.SessionCookie, Value: "garbage"})
		app.CookieGate(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
	})
}

func TestSessionGate(t *testing.T) {
	t.Run("anonymous on protected page redirects", func(t *testing.T) {
		app, _ := NewTestApplication(nil, t)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/profile", nil)
		app.SessionGate(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
		assert.Equal(t, "/login?redirect=%2Fprofile", recorder.Header().Get("Location"))
	})
	t.Run("anonymous on login page passes", func(t *testing.T) {
		app, _ := NewTestApplication(nil, t)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/login", nil)
		app.SessionGate(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
	t.Run("authenticated passes", func(t *testing.T) {
		fake := &fakeProvider{accounts: []string{"0xABC123abc123abc123abc123abc123abc123abcd"}}
		app, _ := NewTestApplication(fake, t)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/profile", nil)
		app.SessionGate(okHandler()).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
	t.Run("discovery still running serves the loading shell", func(t *testing.T) {
		app := NewApplication(testConfig(), slog.Default(), memory.New(), pubsub.Noop{}, &fakeProvider{})
		t.Cleanup(app.Close)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/watchlist", nil)
		app.SessionGate(okHandler()).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Empty(t, recorder.Header().Get("Location"))
		res := decodeResponse(t, recorder)
		assert.Equal(t, true, res.Data["loading"])
	})
	t.Run("session found during discovery gets a marker cookie", func(t *testing.T) {
		fake := &fakeProvider{accounts: []string{"0xABC123abc123abc123abc123abc123abc123abcd"}}
		app, _ := NewTestApplication(fake, t)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/login", nil)
		app.SessionGate(okHandler()).ServeHTTP(recorder, request)

		cookie := markerCookie(t, recorder)
		assert.Equal(t, fields.Account("0xabc123abc123abc123abc123abc123abc123abcd"), app.codec.Verify(cookie.Value))
	})
}

func markerCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == gate.SessionCookie {
			return cookie
		}
	}
	t.Fatal("no session marker cookie in the response")
	return nil
}

// A wallet authorized before the page loads authenticates the session without
// the connect endpoint ever running. The login hop has to hand out the marker
// cookie, otherwise the cookie gate and the login redirect chase each other
// forever.
func TestPassiveDiscoveryNavigation(t *testing.T) {
	fake := &fakeProvider{accounts: []string{"0xABCDEF1234567890abcdef1234567890ABCDEF12"}}
	app, _ := NewTestApplication(fake, t)
	router := app.routes()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/watchlist", nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
	assert.Equal(t, "/login?redirect=%2Fwatchlist", recorder.Header().Get("Location"))

	recorder = httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodGet, "/login?redirect=%2Fwatchlist", nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusTemporaryRedirect, recorder.Code)
	assert.Equal(t, "/watchlist", recorder.Header().Get("Location"))
	cookie := markerCookie(t, recorder)
	assert.Equal(t, fields.Account("0xabcdef1234567890abcdef1234567890abcdef12"), app.codec.Verify(cookie.Value))

	recorder = httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodGet, "/watchlist", nil)
	request.AddCookie(cookie)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.Limiter.Enabled = true
	cfg.Limiter.Rps = 0
	cfg.Limiter.Burst = 1
	app := NewApplication(cfg, slog.Default(), memory.New(), pubsub.Noop{}, nil)
	t.Cleanup(app.Close)
	handler := app.RateLimiter(okHandler())

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/healthcheck", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/healthcheck", nil))
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
}
