package main

import (
	"errors"
	"net/http"

	"reelpass/proj/internal/domain/fields"
	"reelpass/proj/internal/domain/models"
	"reelpass/proj/internal/gate"
	"reelpass/proj/internal/provider"
)

type sessionResponse struct {
	Account     string          `json:"account,omitempty"`
	Label       string          `json:"label,omitempty"`
	Profile     *models.Profile `json:"profile,omitempty"`
	HasProvider bool            `json:"hasProvider"`
	Ready       bool            `json:"ready"`
	Connecting  bool            `json:"connecting"`
	CanPersist  bool            `json:"canPersist"`
	Error       string          `json:"error,omitempty"`
}

func newSessionResponse(state models.SessionState) sessionResponse {
	res := sessionResponse{
		Account:     state.Account.String(),
		Profile:     state.Profile,
		HasProvider: state.HasProvider,
		Ready:       state.Ready,
		Connecting:  state.Connecting,
		CanPersist:  state.CanPersist,
		Error:       state.Error,
	}
	if !state.Account.IsNull() {
		res.Label = state.Account.Label()
		if state.Profile != nil {
			res.Label = state.Profile.DisplayName
		}
	}
	return res
}

func (app *Application) setMarkerCookie(w http.ResponseWriter, marker string) {
	http.SetCookie(w, &http.Cookie{
		Name:     gate.SessionCookie,
		Value:    marker,
		Path:     "/",
		MaxAge:   int(app.codec.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (app *Application) clearMarkerCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     gate.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ensureMarkerCookie re-issues the marker whenever the live session is
// authenticated but the request carries no valid marker for that account.
// Passive discovery and account-change notifications authenticate the session
// without going through connect; the cookie catches up on the next page hit.
func (app *Application) ensureMarkerCookie(w http.ResponseWriter, r *http.Request, account fields.Account) {
	if cookie, err := r.Cookie(gate.SessionCookie); err == nil && app.codec.Verify(cookie.Value) == account {
		return
	}
	marker, err := app.codec.Issue(account)
	if err != nil {
		app.log.Warn("session marker issue failed", "errMsg", err.Error())
		return
	}
	app.setMarkerCookie(w, marker)
}

// currentAccount resolves the authenticated identity for personalized
// endpoints, or replies 401 and reports false.
func (app *Application) currentAccount(w http.ResponseWriter, r *http.Request) (fields.Account, bool) {
	snapshot := app.session.Snapshot()
	if !snapshot.Authenticated() {
		app.Http.Unauthorized(w, r, "Connect your wallet first")
		return fields.Null, false
	}
	return snapshot.Account, true
}

func (app *Application) getSession(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"session": newSessionResponse(app.session.Snapshot())}, "")
}

func (app *Application) connect(w http.ResponseWriter, r *http.Request) {
	var query struct {
		Redirect string `schema:"redirect"`
	}
	if err := app.decodeQuery(r, &query); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}

	account, err := app.session.Connect(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrProviderUnavailable):
			app.Http.ServiceUnavailable(w, r, "No wallet provider is available in this context")
		case errors.Is(err, provider.ErrRequestConflict):
			app.Http.Conflict(w, r, err.Error())
		case errors.Is(err, provider.ErrNoAccounts):
			app.Http.BadRequest(w, r, err.Error())
		default:
			app.Http.ServerError(w, r, err, "")
		}
		return
	}

	marker, err := app.codec.Issue(account)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.setMarkerCookie(w, marker)

	redirect := query.Redirect
	if redirect == "" || redirect == gate.LoginPath {
		redirect = "/"
	}
	app.Http.Ok(w, r, envelop{
		"session":         newSessionResponse(app.session.Snapshot()),
		"redirect":        redirect,
		"redirectAfterMs": app.cfg.Session.RedirectDelay.Milliseconds(),
	}, "Wallet connected")
}

func (app *Application) disconnect(w http.ResponseWriter, r *http.Request) {
	app.session.Disconnect(r.Context())
	app.clearMarkerCookie(w)
	app.Http.Ok(w, r, envelop{"session": newSessionResponse(app.session.Snapshot())}, "Signed out")
}
