package main

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"reelpass/proj/internal/domain/fields"
	"reelpass/proj/internal/gate"
)

func (app *Application) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil && err != http.ErrAbortHandler {
				app.Http.ServerError(w, r, err.(error), "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *Application) RateLimiter(next http.Handler) http.Handler {
	const op = "middlewares.RateLimiter"
	log := app.log.With("op", op)
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	clients := make(map[string]*client)
	var mu sync.Mutex
	go func() {
		for {
			mu.Lock()
			for ip, client := range clients {
				if time.Since(client.lastSeen) > 5*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
			time.Sleep(5 * time.Minute)
		}
	}()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.cfg.Limiter.Enabled {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				app.Http.ServerError(w, r, err, "")
				return
			}
			mu.Lock()
			c, ok := clients[ip]
			if !ok {
				c = &client{limiter: rate.NewLimiter(rate.Limit(app.cfg.Limiter.Rps), app.cfg.Limiter.Burst)}
				clients[ip] = c
			}
			c.lastSeen = time.Now()
			limiter := c.limiter
			mu.Unlock()
			log.Debug("rate limiting", "ip", ip, "Available requests", limiter.Tokens())
			if !limiter.Allow() {
				log.Warn("rate limit exceeded", "ip", ip)
				app.Http.Response(
					w, r,
					envelop{"error": "rate limit exceeded"},
					"Can't process request see an error below.",
					http.StatusTooManyRequests,
				)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CookieGate is the coarse edge check: it only inspects the session-marker
// cookie, never the wallet, so an expired marker with a still-connected wallet
// bounces through login and reconnects without a prompt.
func (app *Application) CookieGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !gate.Protected(path) {
			next.ServeHTTP(w, r)
			return
		}
		account := fields.Null
		if cookie, err := r.Cookie(gate.SessionCookie); err == nil {
			account = app.codec.Verify(cookie.Value)
		}
		if !gate.Authenticated(account) {
			target := gate.RedirectTarget(path, r.URL.RawQuery)
			http.Redirect(w, r, gate.LoginRedirectURL(target), http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionGate is the reactive check over the live session. While discovery is
// still running it answers with a neutral loading shell instead of flashing a
// gated page at an unknown identity.
func (app *Application) SessionGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot := app.session.Snapshot()
		if !snapshot.Ready {
			app.Http.Ok(w, r, envelop{"loading": true}, "Checking your session")
			return
		}
		if snapshot.Authenticated() {
			// Sessions authenticated by passive discovery or an account change
			// have no marker yet; without one the cookie gate would bounce the
			// next navigation back to login forever.
			app.ensureMarkerCookie(w, r, snapshot.Account)
		}
		if gate.Protected(r.URL.Path) && !snapshot.Authenticated() {
			target := gate.RedirectTarget(r.URL.Path, r.URL.RawQuery)
			http.Redirect(w, r, gate.LoginRedirectURL(target), http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}
