// Package api provides the hover daemon's HTTP endpoints.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/tusmolang/tusmoc/internal/importer"
	"github.com/tusmolang/tusmoc/server/dao/sqlite"
	"github.com/tusmolang/tusmoc/server/result"
	"github.com/tusmolang/tusmoc/server/serr"
)

// PathPrefix is the prefix of every path in the API. Routers should mount a
// sub-router that routes all requests to the API at this path.
const PathPrefix = "/v1"

// API holds the parameters HTTP endpoints need: where to resolve includes
// from and how long to delay a rejected request before responding.
type API struct {
	// Roots configures where a submitted document's `include`s are
	// searched for, same as a compile invocation.
	Roots importer.Roots

	// UnauthDelay is the amount of time a request will pause before
	// responding with an HTTP-401/403/500, to deprioritize such requests
	// from processing and I/O.
	UnauthDelay time.Duration

	// Cache persists computed hover indices keyed by content hash.
	Cache *sqlite.Cache
}

// parseJSON decodes req's JSON body into v. v must be a pointer. Returns an
// error wrapping serr.ErrBodyUnmarshal if the content type or JSON itself is
// malformed.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if strings.ToLower(contentType) != "application/json" {
		return serr.New("request content-type is not application/json", serr.ErrBodyUnmarshal)
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}
	return nil
}

// EndpointFunc handles one HTTP request and returns the Result to send.
type EndpointFunc func(req *http.Request) result.Result

// Endpoint wraps ep as an http.HandlerFunc: it recovers panics into an
// HTTP-500, logs the outcome, and applies UnauthDelay to rejected requests.
func (api API) Endpoint(ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)
		r := ep(req)

		if r.Status == 0 {
			logHTTPResponse("ERROR", req, http.StatusInternalServerError, "endpoint result was never populated")
			http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
			return
		}

		if err := r.PrepareMarshaledResponse(); err != nil {
			newResp := result.Err(r.Status, "An internal server error occurred", "could not marshal JSON response: "+err.Error())
			newResp.WriteResponse(w)
			return
		}

		if r.IsErr {
			logHTTPResponse("ERROR", req, r.Status, r.InternalMsg)
		} else {
			logHTTPResponse("INFO", req, r.Status, r.InternalMsg)
		}

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(api.UnauthDelay)
		}

		r.WriteResponse(w)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicVal interface{}) {
	if panicErr := recover(); panicErr != nil {
		result.TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		).WriteResponse(w)
		return true
	}
	return false
}

func logHTTPResponse(level string, req *http.Request, respStatus int, msg string) {
	for len(level) < 5 {
		level += " "
	}
	remoteIP := strings.SplitN(req.RemoteAddr, ":", 2)[0]
	log.Printf("%s %s %s %s: HTTP-%d %s", level, remoteIP, req.Method, req.URL.Path, respStatus, msg)
}
