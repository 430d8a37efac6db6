package main

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(app.RateLimiter)
	router.Use(app.CookieGate)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Route("/session", func(r chi.Router) {
			r.Get("/", app.getSession)
			r.Post("/connect", app.connect)
			r.Post("/disconnect", app.disconnect)
		})
		r.Route("/profile", func(r chi.Router) {
			r.Get("/", app.getProfile)
			r.Put("/", app.saveProfile)
		})
		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", app.listCollection(app.watchlist))
			r.Post("/toggle", app.toggleCollection(app.watchlist))
		})
		r.Route("/liked", func(r chi.Router) {
			r.Get("/", app.listCollection(app.liked))
			r.Post("/toggle", app.toggleCollection(app.liked))
		})
		r.Route("/movies", func(r chi.Router) {
			r.Get("/popular", app.popularMovies)
			r.Get("/search", app.searchMovies)
			r.Get("/{id}", app.getMovie)
		})
	})
	router.Group(func(r chi.Router) {
		r.Use(app.SessionGate)
		r.Get("/", app.page("home"))
		r.Get("/login", app.loginPage)
		r.Get("/movies/{id}", app.page("movie"))
		r.Get("/watchlist", app.page("watchlist"))
		r.Get("/liked", app.page("liked"))
		r.Get("/profile", app.page("profile"))
		r.Get("/search", app.page("search"))
	})
	return router
}
