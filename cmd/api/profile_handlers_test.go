package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testWallet = "0xABCDEF1234567890abcdef1234567890ABCDEF12"

func TestGetProfile(t *testing.T) {
	t.Run("anonymous gets unauthorized", func(t *testing.T) {
		app, _ := NewTestApplication(nil, t)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/v1/profile/", nil)
		app.routes().ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
	t.Run("authenticated without profile gets the address label", func(t *testing.T) {
		fake := &fakeProvider{accounts: []string{testWallet}}
		app, _ := NewTestApplication(fake, t)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/v1/profile/", nil)
		app.routes().ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		res := decodeResponse(t, recorder)
		assert.Nil(t, res.Data["profile"])
		assert.Equal(t, "0xabcd…ef12", res.Data["label"])
	})
}

func TestSaveProfile(t *testing.T) {
	newApp := func(t *testing.T) (*Application, http.Handler) {
		fake := &fakeProvider{accounts: []string{testWallet}}
		app, _ := NewTestApplication(fake, t)
		return app, app.routes()
	}

	t.Run("save and reload", func(t *testing.T) {
		_, routes := newApp(t)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPut, "/api/v1/profile/", strings.NewReader(`{"displayName":"  Movie Fan  "}`))
		routes.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		res := decodeResponse(t, recorder)
		profile := res.Data["profile"].(map[string]any)
		assert.Equal(t, "Movie Fan", profile["displayName"])
		assert.Equal(t, true, res.Data["canPersist"])
	})
	t.Run("empty name clears the profile", func(t *testing.T) {
		_, routes := newApp(t)
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPut, "/api/v1/profile/", strings.NewReader(`{"displayName":"Movie Fan"}`))
		routes.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)

		recorder = httptest.NewRecorder()
		request = httptest.NewRequest(http.MethodPut, "/api/v1/profile/", strings.NewReader(`{"displayName":"   "}`))
		routes.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Nil(t, decodeResponse(t, recorder).Data["profile"])
	})
	t.Run("name over 50 chars is rejected", func(t *testing.T) {
		_, routes := newApp(t)
		recorder := httptest.NewRecorder()
		longName := strings.Repeat("a", 51)
		request := httptest.NewRequest(http.MethodPut, "/api/v1/profile/", strings.NewReader(`{"displayName":"`+longName+`"}`))
		routes.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	})
	t.Run("storage failure keeps the profile for the session", func(t *testing.T) {
		fake := &fakeProvider{accounts: []string{testWallet}}
		app, kv := NewTestApplication(fake, t)
		kv.SetFailing(true)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPut, "/api/v1/profile/", strings.NewReader(`{"displayName":"Movie Fan"}`))
		app.routes().ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		res := decodeResponse(t, recorder)
		assert.Equal(t, false, res.Data["canPersist"])
		assert.Equal(t, memoryOnlyMsg, res.Message)
		profile := res.Data["profile"].(map[string]any)
		assert.Equal(t, "Movie Fan", profile["displayName"])
	})
}
