package catalog

import (
	"net/url"
	"strings"
)

const routePrefix = "#/product/"

// ProductURL builds the shareable link for a product. Any query or fragment
// already on base is dropped first.
func ProductURL(base, id string) string {
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	return base + routePrefix + id
}

// ParseRoute extracts the product id from a "#/product/{id}" fragment, or
// from a full URL carrying one.
func ParseRoute(route string) (string, bool) {
	i := strings.Index(route, routePrefix)
	if i < 0 {
		return "", false
	}
	id := route[i+len(routePrefix):]
	if j := strings.IndexAny(id, "/?#"); j >= 0 {
		id = id[:j]
	}
	id, err := url.PathUnescape(id)
	if err != nil || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}
