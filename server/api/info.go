package api

import (
	"net/http"

	"github.com/tusmolang/tusmoc/internal/version"
	"github.com/tusmolang/tusmoc/server/middle"
	"github.com/tusmolang/tusmoc/server/result"
)

// InfoModel is the response body of GET /v1/info.
type InfoModel struct {
	Version struct {
		Compiler string `json:"compiler"`
		Daemon   string `json:"daemon"`
	} `json:"version"`
	Authenticated bool `json:"authenticated"`
}

// HTTPGetInfo returns a HandlerFunc reporting the compiler/daemon version
// and whether the caller authenticated.
func (api API) HTTPGetInfo() http.HandlerFunc {
	return api.Endpoint(api.epGetInfo)
}

func (api API) epGetInfo(req *http.Request) result.Result {
	authed, _ := req.Context().Value(middle.AuthAuthenticated).(bool)

	var resp InfoModel
	resp.Version.Compiler = version.Compiler
	resp.Version.Daemon = version.Daemon
	resp.Authenticated = authed

	return result.OK(resp, "client got API info (authenticated=%v)", authed)
}
