package main

import (
	"net/http"

	"reelpass/proj/internal/lib/validator"
	"reelpass/proj/internal/storage"
)

const memoryOnlyMsg = "Saved for this session only; storage is unavailable"

func (app *Application) getProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := app.currentAccount(w, r)
	if !ok {
		return
	}
	profile := app.profiles.Load(r.Context(), account)
	app.Http.Ok(w, r, envelop{
		"account": account.String(),
		"label":   account.Label(),
		"profile": profile,
	}, "")
}

func (app *Application) saveProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := app.currentAccount(w, r)
	if !ok {
		return
	}
	var input struct {
		DisplayName string `json:"displayName" validate:"max=50"`
	}
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if validationErrs := validator.ValidateStruct(app.validator, input); validationErrs != nil {
		app.Http.UnprocessableEntity(w, r, validationErrs)
		return
	}

	err := app.profiles.Save(r.Context(), account, input.DisplayName)
	if storage.IsUnavailable(err) {
		app.Http.Ok(w, r, envelop{
			"profile":    app.profiles.Load(r.Context(), account),
			"canPersist": false,
		}, memoryOnlyMsg)
		return
	}
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{
		"profile":    app.profiles.Load(r.Context(), account),
		"canPersist": true,
	}, "Profile saved")
}
