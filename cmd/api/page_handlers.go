package main

import (
	"net/http"

	"reelpass/proj/internal/gate"
)

// page answers the shell request for a gated page. The interesting work already
// happened in the gate middlewares; here we only echo the page name and the
// session the UI should render with.
func (app *Application) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.Http.Ok(w, r, envelop{
			"page":    name,
			"session": newSessionResponse(app.session.Snapshot()),
		}, "")
	}
}

func (app *Application) loginPage(w http.ResponseWriter, r *http.Request) {
	var query struct {
		Redirect string `schema:"redirect"`
	}
	if err := app.decodeQuery(r, &query); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	target := query.Redirect
	if target == "" || target == gate.LoginPath {
		target = "/"
	}

	snapshot := app.session.Snapshot()
	if snapshot.Authenticated() {
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
		return
	}
	app.Http.Ok(w, r, envelop{
		"page":     "login",
		"redirect": target,
		"session":  newSessionResponse(snapshot),
	}, "")
}
