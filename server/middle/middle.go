// Package middle contains HTTP middleware for the hover daemon.
package middle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/tusmolang/tusmoc/server/result"
	"golang.org/x/crypto/bcrypt"
)

type mwFunc http.HandlerFunc

func (sf mwFunc) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	sf(w, req)
}

// Middleware is a function that takes a handler and returns a new handler
// which wraps the given one and provides some additional functionality.
type Middleware func(next http.Handler) http.Handler

// AuthKey is a key in the context of a request populated by an AuthHandler.
type AuthKey int64

// AuthAuthenticated is set in the request context to whether the caller
// presented a token matching the daemon's configured secret.
const AuthAuthenticated AuthKey = iota

var errNoBearerToken = errors.New("no bearer token presented")

// bearerToken extracts the token from a "Authorization: Bearer <token>"
// header. The daemon's auth mode needs nothing more, since there is exactly
// one configured secret rather than per-user sessions.
func bearerToken(req *http.Request) (string, error) {
	hdr := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(hdr, prefix) {
		return "", errNoBearerToken
	}
	tok := strings.TrimSpace(strings.TrimPrefix(hdr, prefix))
	if tok == "" {
		return "", errNoBearerToken
	}
	return tok, nil
}

// AuthHandler is middleware that checks a request's bearer token against a
// single bcrypt-hashed secret — the daemon has no user accounts, so there is
// one shared token rather than a per-user credential store.
type AuthHandler struct {
	secretHash    []byte
	required      bool
	unauthedDelay time.Duration
	next          http.Handler
}

func (ah *AuthHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var authenticated bool

	tok, err := bearerToken(req)
	if err == nil {
		authenticated = bcrypt.CompareHashAndPassword(ah.secretHash, []byte(tok)) == nil
	}

	if ah.required && !authenticated {
		r := result.Unauthorized("", "missing or invalid bearer token")
		time.Sleep(ah.unauthedDelay)
		r.WriteResponse(w)
		return
	}

	ctx := context.WithValue(req.Context(), AuthAuthenticated, authenticated)
	ah.next.ServeHTTP(w, req.WithContext(ctx))
}

// RequireAuth returns middleware that rejects any request not bearing a
// token matching secretHash (a bcrypt hash, never the plaintext secret).
func RequireAuth(secretHash []byte, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return &AuthHandler{
			secretHash:    secretHash,
			unauthedDelay: unauthDelay,
			required:      true,
			next:          next,
		}
	}
}

// OptionalAuth returns middleware that records whether a request bore a
// valid token, but never rejects one that didn't — used when the daemon is
// deployed with auth disabled; downstream, the info endpoint reports the
// recorded AuthAuthenticated value.
func OptionalAuth(secretHash []byte, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return &AuthHandler{
			secretHash:    secretHash,
			unauthedDelay: unauthDelay,
			required:      false,
			next:          next,
		}
	}
}

// DontPanic returns a Middleware that performs a panic check as it exits. If
// the wrapped handler panics, it writes a generic HTTP-500 response instead
// of letting the panic escape to the server's top-level recoverer.
func DontPanic() Middleware {
	return func(next http.Handler) http.Handler {
		return mwFunc(func(w http.ResponseWriter, r *http.Request) {
			defer panicTo500(w, r)
			next.ServeHTTP(w, r)
		})
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicVal interface{}) {
	if panicErr := recover(); panicErr != nil {
		r := result.TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		)
		r.WriteResponse(w)
		return true
	}
	return false
}
