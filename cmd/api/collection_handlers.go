package main

import (
	"net/http"

	"reelpass/proj/internal/domain/models"
	"reelpass/proj/internal/storage"
	"reelpass/proj/internal/stores"
)

func (app *Application) listCollection(store *stores.CollectionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := app.currentAccount(w, r)
		if !ok {
			return
		}
		items := store.List(r.Context(), account)
		app.Http.Ok(w, r, envelop{
			"collection": store.Name(),
			"items":      items,
			"count":      len(items),
		}, "")
	}
}

func (app *Application) toggleCollection(store *stores.CollectionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := app.currentAccount(w, r)
		if !ok {
			return
		}
		var movie models.CatalogMovie
		if err := app.readJSONLoose(w, r, &movie); err != nil {
			app.Http.BadRequest(w, r, err.Error())
			return
		}
		if movie.ID == 0 {
			app.Http.BadRequest(w, r, "movie id is required")
			return
		}

		items, err := store.Toggle(r.Context(), account, movie)
		if err != nil && !storage.IsUnavailable(err) {
			app.Http.ServerError(w, r, err, "")
			return
		}

		inList := false
		for _, item := range items {
			if item.ID == movie.ID {
				inList = true
				break
			}
		}
		msg := ""
		if storage.IsUnavailable(err) {
			msg = memoryOnlyMsg
		}
		app.Http.Ok(w, r, envelop{
			"collection": store.Name(),
			"items":      items,
			"inList":     inList,
			"canPersist": !storage.IsUnavailable(err),
		}, msg)
	}
}
