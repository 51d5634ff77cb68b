// Command tusmocd runs the hover daemon: a long-lived HTTP service
// exposing the editor hover index over a small JSON API, with a persistent
// content-hash-keyed cache. It is additive: the in-process hover.Build
// entry point remains the stable, primary interface and nothing about the
// compiler depends on this daemon existing.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	flag "github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/tusmolang/tusmoc/internal/importer"
	"github.com/tusmolang/tusmoc/internal/version"
	"github.com/tusmolang/tusmoc/server/api"
	"github.com/tusmolang/tusmoc/server/dao/sqlite"
	mw "github.com/tusmolang/tusmoc/server/middle"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("tusmocd", flag.ExitOnError)

	showVersion := fs.BoolP("version", "v", false, "print the daemon version and exit")
	listenAddr := fs.StringP("listen", "l", envOr("TUSMOCD_LISTEN_ADDRESS", ":8027"), "address to listen on")
	dataDir := fs.String("data-dir", envOr("TUSMOCD_DATA_DIR", "."), "directory the hover cache database is stored in")
	secret := fs.StringP("secret", "s", os.Getenv("TUSMOCD_AUTH_SECRET"), "bearer token required of callers; auth is disabled if empty")
	unauthDelayMs := fs.Int("unauth-delay-ms", 500, "milliseconds to pause before responding to a rejected request")
	stdRoot := fs.String("std-root", "", "standard library root directory for include resolution")
	libRoots := fs.StringArrayP("lib-root", "L", nil, "additional module search root (repeatable)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Println(version.Daemon)
		return nil
	}

	cache, err := sqlite.Open(*dataDir)
	if err != nil {
		return fmt.Errorf("opening hover cache: %w", err)
	}
	defer cache.Close()

	a := api.API{
		Roots:       importer.Roots{LibRoots: *libRoots, StdRoot: *stdRoot},
		UnauthDelay: time.Duration(*unauthDelayMs) * time.Millisecond,
		Cache:       cache,
	}

	var authMW mw.Middleware
	if *secret != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*secret), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing configured secret: %w", err)
		}
		authMW = mw.RequireAuth(hash, a.UnauthDelay)
	} else {
		authMW = mw.OptionalAuth(nil, a.UnauthDelay)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestCorrelation)
	r.Use(mw.DontPanic())

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.Use(authMW)
		r.Get("/info", a.HTTPGetInfo())
		r.Post("/index", a.HTTPPostIndex())
		r.Get("/index/{key}", a.HTTPGetIndex())
	})

	fmt.Printf("tusmocd %s listening on %s\n", version.Daemon, *listenAddr)
	return http.ListenAndServe(*listenAddr, r)
}

// requestCorrelation stamps every request with a v4 UUID correlation ID in
// the X-Correlation-ID response header, independent of chi's own short
// request ID, for correlating daemon logs with an editor's own request
// tracing.
func requestCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("X-Correlation-ID", uuid.New().String())
		next.ServeHTTP(w, req)
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
