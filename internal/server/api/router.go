package api

import (
	"context"
	"log/slog"
	"net"
	"strings"
)

// Request contains route parameters and the JSON payload from the command.
type Request struct {
	Ctx     context.Context
	Params  map[string]string
	Payload string
}

// Response holds the JSON string to return to the client.
type Response struct {
	JSON string
}

// HandlerFunc processes a request and populates the response. The logger
// provided is a connection-scoped logger enriched with remote address
// metadata by the API server.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// StreamHandlerFunc handles long-lived TCP connections used for the
// "watch/{id}" property-change notification stream. The handler takes
// ownership of the connection and should close it when done.
type StreamHandlerFunc func(conn net.Conn, params map[string]string, logger *slog.Logger) error

// Router implements simple path pattern matching with placeholders in {name}.
type Router struct {
	routes       []routeEntry
	streamRoutes []streamRouteEntry
}

type routeEntry struct {
	pattern         string
	originalPattern string
	parts           []string
	handler         HandlerFunc
}

type streamRouteEntry struct {
	pattern         string
	originalPattern string
	parts           []string
	handler         StreamHandlerFunc
}

// NewRouter returns a new Router instance.
func NewRouter() *Router { return &Router{} }

// Register registers a handler for a path pattern like "device/{id}/reset".
func (r *Router) Register(pattern string, handler HandlerFunc) {
	p := strings.ToLower(pattern)
	parts := strings.Split(p, "/")
	r.routes = append(r.routes, routeEntry{pattern: p, originalPattern: pattern, parts: parts, handler: handler})
}

// RegisterStream registers a StreamHandler for long-lived TCP connections.
func (r *Router) RegisterStream(pattern string, handler StreamHandlerFunc) {
	p := strings.ToLower(pattern)
	parts := strings.Split(p, "/")
	r.streamRoutes = append(r.streamRoutes, streamRouteEntry{pattern: p, originalPattern: pattern, parts: parts, handler: handler})
}

// Match returns the HandlerFunc and params if the given path matches any
// registered pattern. Returns nil if none match.
func (r *Router) Match(path string) (HandlerFunc, map[string]string) {
	return matchRoutes(r.routes, path)
}

// MatchStream returns the StreamHandler and params if the given path matches
// any registered stream pattern. Returns nil if none match.
func (r *Router) MatchStream(path string) (StreamHandlerFunc, map[string]string) {
	p := strings.ToLower(path)
	parts := strings.Split(p, "/")
	for _, rt := range r.streamRoutes {
		if len(rt.parts) != len(parts) {
			continue
		}
		if params, ok := matchParts(rt, parts); ok {
			return rt.handler, params
		}
	}
	return nil, nil
}

func matchRoutes(routes []routeEntry, path string) (HandlerFunc, map[string]string) {
	p := strings.ToLower(path)
	parts := strings.Split(p, "/")
	for _, rt := range routes {
		if len(rt.parts) != len(parts) {
			continue
		}
		if params, ok := matchParts(rt, parts); ok {
			return rt.handler, params
		}
	}
	return nil, nil
}

// namer is implemented by routeEntry and streamRouteEntry so matchParts can
// share the placeholder-extraction logic between both route tables.
type namer interface {
	patternParts() []string
	originalParts() []string
}

func (e routeEntry) patternParts() []string       { return e.parts }
func (e routeEntry) originalParts() []string       { return strings.Split(e.originalPattern, "/") }
func (e streamRouteEntry) patternParts() []string  { return e.parts }
func (e streamRouteEntry) originalParts() []string { return strings.Split(e.originalPattern, "/") }

func matchParts[T namer](rt T, parts []string) (map[string]string, bool) {
	patternParts := rt.patternParts()
	originalParts := rt.originalParts()
	params := map[string]string{}
	for i := range parts {
		if strings.HasPrefix(patternParts[i], "{") && strings.HasSuffix(patternParts[i], "}") {
			name := originalParts[i][1 : len(originalParts[i])-1]
			params[name] = parts[i]
			continue
		}
		if patternParts[i] != parts[i] {
			return nil, false
		}
	}
	return params, true
}
