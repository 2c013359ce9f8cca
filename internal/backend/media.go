package backend

import (
	"regexp"
	"strings"
)

// mediaPathRE matches a backend-local media reference: document identifier,
// page number, filename.
var mediaPathRE = regexp.MustCompile(`^([^/]+)/page_(\d+)/([^/]+)$`)

// MediaResolver rewrites backend-local media references into URLs the
// client can fetch. It runs before media is stored in a turn, so the
// transcript only ever holds fetchable URLs.
type MediaResolver struct {
	base string
}

// NewMediaResolver creates a resolver rooted at the API base URL.
func NewMediaResolver(baseURL string) *MediaResolver {
	return &MediaResolver{base: strings.TrimRight(baseURL, "/")}
}

// Resolve rewrites one doc/page_n/file reference into an absolute URL on
// the API's image endpoint. References that don't match the shape pass
// through unchanged; unrecognized formats are not errors.
func (r *MediaResolver) Resolve(path string) string {
	m := mediaPathRE.FindStringSubmatch(path)
	if m == nil {
		return path
	}
	return r.base + "/api/images/" + m[1] + "/page_" + m[2] + "/" + m[3]
}

// ResolveAll maps Resolve over paths, preserving order.
func (r *MediaResolver) ResolveAll(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = r.Resolve(p)
	}
	return out
}
