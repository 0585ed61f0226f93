// Package catalog holds the request types a virtual user can issue against a
// URL shortener, and the cumulative weight table used to pick between them.
package catalog

import (
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/torosent/shortload/internal/valuespace"
)

// RequestType describes one kind of request. Path and Query are templates;
// every distinct {name} placeholder receives an independently sampled value.
// A RequestType is immutable once the catalog is built.
type RequestType struct {
	Name       string
	Weight     int
	Method     string
	Path       string
	Query      string
	Acceptable StatusSet
}

// Request is a concrete request after placeholder substitution.
type Request struct {
	Method   string
	Path     string
	RawQuery string
}

// Default returns the built-in URL shortener workload.
func Default() []RequestType {
	return []RequestType{
		{Name: "get_url", Weight: 50, Method: http.MethodGet, Path: "/{id}", Acceptable: NewStatusSet(http.StatusTemporaryRedirect, http.StatusNotFound)},
		{Name: "shorten_url", Weight: 20, Method: http.MethodPost, Path: "/", Query: "url={id}", Acceptable: NewStatusSet(http.StatusOK, http.StatusBadRequest)},
		{Name: "delete_url", Weight: 5, Method: http.MethodDelete, Path: "/{id}", Acceptable: NewStatusSet(http.StatusOK, http.StatusBadRequest)},
		{Name: "modify_url", Weight: 10, Method: http.MethodPut, Path: "/{id}", Query: "url={id2}", Acceptable: NewStatusSet(http.StatusOK, http.StatusBadRequest)},
		{Name: "get_url_stats", Weight: 15, Method: http.MethodGet, Path: "/{id}/stats", Acceptable: NewStatusSet(http.StatusOK, http.StatusNotFound)},
	}
}

// Build samples one value per distinct placeholder and substitutes them into
// the path and query templates.
func (rt *RequestType) Build(space valuespace.Space, rnd *rand.Rand) Request {
	values := make(map[string]string, 2)
	return Request{
		Method:   rt.Method,
		Path:     expand(rt.Path, values, space, rnd),
		RawQuery: expand(rt.Query, values, space, rnd),
	}
}

// Placeholders returns the distinct placeholder names in order of appearance.
func (rt *RequestType) Placeholders() []string {
	var names []string
	seen := map[string]bool{}
	for _, tmpl := range []string{rt.Path, rt.Query} {
		for _, name := range placeholderNames(tmpl) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func expand(tmpl string, values map[string]string, space valuespace.Space, rnd *rand.Rand) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	var sb strings.Builder
	sb.Grow(len(tmpl) + 8)
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		end += open
		sb.WriteString(rest[:open])
		name := rest[open+1 : end]
		val, ok := values[name]
		if !ok {
			val = strconv.Itoa(space.Sample(rnd))
			values[name] = val
		}
		sb.WriteString(val)
		rest = rest[end+1:]
	}
	return sb.String()
}

func placeholderNames(tmpl string) []string {
	var names []string
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return names
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return names
		}
		names = append(names, rest[open+1:open+end])
		rest = rest[open+end+1:]
	}
}
