// Package rpc builds connect handlers and clients for the plain message types in
// pkg/api, without generated code.
package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// Route is one procedure and the connect handler serving it.
type Route struct {
	Procedure string
	Handler   http.Handler
}

// Unary wraps fn as a connect unary handler speaking JSON.
func Unary[Req, Res any](
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts ...connect.HandlerOption,
) Route {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	return Route{
		Procedure: procedure,
		Handler:   connect.NewUnaryHandler(procedure, fn, opts...),
	}
}

// NewServiceHandler returns the "/<service>/" mount path and a handler dispatching to
// routes by exact procedure path.
func NewServiceHandler(service string, routes ...Route) (string, http.Handler) {
	handlers := make(map[string]http.Handler, len(routes))
	for _, r := range routes {
		handlers[r.Procedure] = r.Handler
	}
	return "/" + service + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// NewClient returns a JSON connect client for one procedure on baseURL.
func NewClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts ...connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}
