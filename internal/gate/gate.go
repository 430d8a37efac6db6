// Package gate holds the single authentication predicate and route matcher
// shared by both enforcement points: the reactive session gate and the coarse
// cookie gate. Keeping them here prevents the two from drifting apart.
package gate

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reelpass/proj/internal/domain/fields"
)

// SessionCookie is the session-marker cookie checked by the coarse gate. It is
// set immediately on a successful connect and cleared on disconnect.
const SessionCookie = "metamask-auth"

const LoginPath = "/login"

// RedirectParam carries the original path+query through the login flow.
const RedirectParam = "redirect"

var fileExtension = regexp.MustCompile(`\.[^/]+$`)

// Authenticated is the predicate both gates implement: a session is
// authenticated exactly when its account is non-null.
func Authenticated(account fields.Account) bool {
	return !account.IsNull()
}

// IsPublic reports whether the path is reachable without authentication.
func IsPublic(path string) bool {
	return path == LoginPath
}

// IsAsset reports whether the path is asset-like and bypasses the gate:
// framework internals, API calls, static files, or any path with a file
// extension.
func IsAsset(path string) bool {
	return strings.HasPrefix(path, "/_next") ||
		strings.HasPrefix(path, "/api") ||
		strings.HasPrefix(path, "/static") ||
		path == "/favicon.ico" ||
		fileExtension.MatchString(path)
}

// Protected reports whether the gate applies to the path at all.
func Protected(path string) bool {
	return !IsAsset(path) && !IsPublic(path)
}

// RedirectTarget rebuilds the original location (path plus query) that login
// should return the user to.
func RedirectTarget(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// LoginRedirectURL builds the login URL carrying the redirect target, unless
// the target is the login path itself.
func LoginRedirectURL(target string) string {
	if target == "" || target == LoginPath {
		return LoginPath
	}
	return LoginPath + "?" + RedirectParam + "=" + url.QueryEscape(target)
}

// MarkerCodec issues and verifies the session-marker value. The marker is a
// signed token carrying the account as subject, so the cookie gate can apply
// the shared predicate without seeing the wallet.
type MarkerCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewMarkerCodec(secret string, ttl time.Duration) *MarkerCodec {
	return &MarkerCodec{secret: []byte(secret), ttl: ttl}
}

func (c *MarkerCodec) Issue(account fields.Account) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   account.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify returns the account carried by a valid marker, or the null identity
// for anything invalid, expired or tampered with.
func (c *MarkerCodec) Verify(marker string) fields.Account {
	token, err := jwt.ParseWithClaims(
		marker,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return fields.Null
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return fields.Null
	}
	return fields.NormalizeAddress(claims.Subject)
}

// TTL returns the marker lifetime, used for the cookie's max age.
func (c *MarkerCodec) TTL() time.Duration {
	return c.ttl
}
