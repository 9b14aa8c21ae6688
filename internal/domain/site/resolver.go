// Package site decides how an inbound request is served based on its host
// and path. It has no HTTP or storage dependencies.
package site

import (
	"regexp"
	"strings"
)

// Well-known paths
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	HomePath      = "/home"
	SitesPrefix   = "/sites/"
)

// DefaultPrimaryHost is used when the request carries no Host header
const DefaultPrimaryHost = "datadikcilebar.my.id"

// DefaultRootHosts is the allow-list of hostnames that serve the marketing site.
// Matching is exact: no suffix or wildcard comparison is performed.
var DefaultRootHosts = []string{
	"localhost:3000",
	"datadikcilebar.my.id",
	"www.datadikcilebar.my.id",
	"datadik-cilebar.vercel.app",
	"kemendikdasmen.go.id",
	"www.kemendikdasmen.go.id",
}

var ignoredPrefixes = []string{"/api/", "/_next/", "/_static/", "/_vercel/"}

// fileLikePath matches paths whose last segment looks like a filename (favicon.ico, robots.txt)
var fileLikePath = regexp.MustCompile(`/[\w-]+\.\w+$`)

// RouteKind describes what the HTTP layer should do with a request
type RouteKind int

const (
	// RouteIgnore leaves the request untouched (assets, API namespace)
	RouteIgnore RouteKind = iota
	// RoutePass serves the request as-is
	RoutePass
	// RouteRewrite serves Target internally without changing the browser URL
	RouteRewrite
	// RouteRedirect sends the client to Target
	RouteRedirect
)

// String returns the route kind name
func (k RouteKind) String() string {
	switch k {
	case RouteIgnore:
		return "ignore"
	case RoutePass:
		return "pass"
	case RouteRewrite:
		return "rewrite"
	case RouteRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Request is the input to Resolve
type Request struct {
	Host       string
	Path       string
	RawQuery   string
	HasSession bool
}

// Route is the routing decision for a request
type Route struct {
	Kind RouteKind
	// Target is the rewrite path (with query) or redirect location
	Target string
	// Path and RawQuery are the rewrite target split apart. Path may
	// itself contain '?' when the original path did.
	Path     string
	RawQuery string
	// Tenant is the slug for tenant-routed requests, empty otherwise
	Tenant string
}

// Resolver resolves requests against a root host allow-list
type Resolver struct {
	rootHosts   map[string]struct{}
	primaryHost string
}

// NewResolver creates a resolver. Empty arguments fall back to the defaults.
func NewResolver(rootHosts []string, primaryHost string) *Resolver {
	if len(rootHosts) == 0 {
		rootHosts = DefaultRootHosts
	}
	if primaryHost == "" {
		primaryHost = DefaultPrimaryHost
	}
	set := make(map[string]struct{}, len(rootHosts))
	for _, h := range rootHosts {
		set[h] = struct{}{}
	}
	return &Resolver{rootHosts: set, primaryHost: primaryHost}
}

// PrimaryHost returns the fallback marketing hostname
func (r *Resolver) PrimaryHost() string {
	return r.primaryHost
}

// IsRootHost reports whether host is literally in the allow-list
func (r *Resolver) IsRootHost(host string) bool {
	_, ok := r.rootHosts[host]
	return ok
}

// TenantSlug returns the tenant slug for host, or root=true when host serves
// the marketing site. The slug is the leftmost label and is never validated here.
func (r *Resolver) TenantSlug(host string) (slug string, root bool) {
	host = r.normalizeHost(host)
	if r.IsRootHost(host) {
		return "", true
	}
	return strings.Split(host, ".")[0], false
}

// IsIgnoredPath reports whether path bypasses routing entirely
func IsIgnoredPath(path string) bool {
	for _, p := range ignoredPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return fileLikePath.MatchString(path)
}

// Resolve computes where a request should be served. The allow-list is checked
// before the tenant fallback, and the session gate applies to every host.
func (r *Resolver) Resolve(req Request) Route {
	path := req.Path
	if path == "" {
		path = "/"
	}
	if IsIgnoredPath(path) {
		return Route{Kind: RouteIgnore}
	}

	if strings.HasPrefix(path, DashboardPath) && !req.HasSession {
		return Route{Kind: RouteRedirect, Target: LoginPath}
	}
	if path == LoginPath && req.HasSession {
		return Route{Kind: RouteRedirect, Target: DashboardPath}
	}

	slug, root := r.TenantSlug(req.Host)
	if root {
		if path == "/" {
			return Route{Kind: RouteRewrite, Target: HomePath, Path: HomePath}
		}
		return Route{Kind: RoutePass}
	}

	rewritten := SitesPrefix + slug + path
	target := rewritten
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}
	return Route{Kind: RouteRewrite, Target: target, Path: rewritten, RawQuery: req.RawQuery, Tenant: slug}
}

func (r *Resolver) normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return r.primaryHost
	}
	return host
}

var defaultResolver = NewResolver(nil, "")

// Resolve resolves req against the default allow-list
func Resolve(req Request) Route {
	return defaultResolver.Resolve(req)
}

// TenantSlug resolves host against the default allow-list
func TenantSlug(host string) (string, bool) {
	return defaultResolver.TenantSlug(host)
}

// IsRootHost checks host against the default allow-list
func IsRootHost(host string) bool {
	return defaultResolver.IsRootHost(host)
}
