package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tusmolang/tusmoc/internal/hover"
	"github.com/tusmolang/tusmoc/server/dao/sqlite"
	"github.com/tusmolang/tusmoc/server/result"
	"github.com/tusmolang/tusmoc/server/serr"
)

// IndexRequest is the body of POST /v1/index.
type IndexRequest struct {
	Filename    string   `json:"filename"`
	Source      string   `json:"source"`
	SearchRoots []string `json:"searchRoots"`
}

// IndexResponse is the body returned by both index endpoints.
type IndexResponse struct {
	Key   string      `json:"key"`
	Index hover.Index `json:"index"`
	Cache string      `json:"cache"` // "hit" or "computed"
}

// HTTPPostIndex returns a HandlerFunc that builds (or retrieves from cache)
// a hover index for a submitted document.
func (api API) HTTPPostIndex() http.HandlerFunc {
	return api.Endpoint(api.epPostIndex)
}

func (api API) epPostIndex(req *http.Request) result.Result {
	var body IndexRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest("The request body was malformed", "%s", err.Error())
	}
	if body.Filename == "" {
		return result.BadRequest("filename is required")
	}

	key := sqlite.Key(body.Source)

	if cached, err := api.Cache.Get(req.Context(), key); err == nil {
		return result.OK(IndexResponse{Key: key, Index: cached, Cache: "hit"}, "served cached hover index for %s", body.Filename)
	}

	roots := api.Roots
	roots.LibRoots = append(append([]string{}, roots.LibRoots...), body.SearchRoots...)

	idx := hover.Build(body.Filename, body.Source, roots)

	if err := api.Cache.Put(req.Context(), key, body.Filename, idx); err != nil {
		return result.InternalServerError("caching hover index: %s", err.Error())
	}

	return result.OK(IndexResponse{Key: key, Index: idx, Cache: "computed"}, "computed hover index for %s", body.Filename)
}

// HTTPGetIndex returns a HandlerFunc that retrieves a previously computed
// hover index by its content-hash key.
func (api API) HTTPGetIndex() http.HandlerFunc {
	return api.Endpoint(api.epGetIndex)
}

func (api API) epGetIndex(req *http.Request) result.Result {
	key := chi.URLParam(req, "key")
	if key == "" {
		return result.BadRequest("key is required")
	}

	idx, err := api.Cache.Get(req.Context(), key)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound("no cached index for key %q", key)
		}
		return result.InternalServerError("retrieving cached index %q: %s", key, err.Error())
	}

	return result.OK(IndexResponse{Key: key, Index: idx, Cache: "hit"}, "served cached hover index for key %s", key)
}
