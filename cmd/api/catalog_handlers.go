package main

import (
	"errors"
	"net/http"
	"strings"

	"reelpass/proj/internal/clients/catalog"
)

type pageQuery struct {
	Page int `schema:"page"`
}

func (q *pageQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
}

func (app *Application) popularMovies(w http.ResponseWriter, r *http.Request) {
	var query pageQuery
	if err := app.decodeQuery(r, &query); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	query.normalize()

	page, err := app.catalog.Popular(r.Context(), query.Page)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"movies": page}, "")
}

func (app *Application) searchMovies(w http.ResponseWriter, r *http.Request) {
	var query struct {
		pageQuery
		Query string `schema:"query"`
	}
	if err := app.decodeQuery(r, &query); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	query.normalize()
	query.Query = strings.TrimSpace(query.Query)
	if query.Query == "" {
		app.Http.BadRequest(w, r, "query is required")
		return
	}

	page, err := app.catalog.Search(r.Context(), query.Query, query.Page)
	if err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"movies": page, "query": query.Query}, "")
}

func (app *Application) getMovie(w http.ResponseWriter, r *http.Request) {
	id, extracted := app.extractIDParam(w, r)
	if !extracted {
		return
	}
	movie, err := app.catalog.Movie(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			app.Http.NotFound(w, r, "Movie not found")
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}

	data := envelop{
		"movie":  movie,
		"poster": app.catalog.ImageURL(nullable(movie.PosterPath), ""),
	}
	snapshot := app.session.Snapshot()
	if snapshot.Authenticated() {
		data["inWatchlist"] = app.watchlist.Contains(r.Context(), snapshot.Account, id)
		data["liked"] = app.liked.Contains(r.Context(), snapshot.Account, id)
	}
	app.Http.Ok(w, r, data, "")
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
