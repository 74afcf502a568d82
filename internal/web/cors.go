// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package web

import (
	"net/http"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// corsMaxAge is the preflight cache lifetime in seconds.
const corsMaxAge = "600"

// CORSOptions configures cross-origin access. Origins are glob patterns
// ("https://*.example.com") or "*" for any origin. A wildcard inside a
// pattern matches within one host label and never crosses '.' or ':'.
type CORSOptions struct {
	Origins          []string
	AllowCredentials bool
	Methods          []string
	Headers          []string
}

// originSeparators bound a pattern wildcard to one host label.
var originSeparators = []rune{'.', ':'}

type corsPolicy struct {
	anyOrigin        bool
	origins          []glob.Glob
	allowCredentials bool
	methods          string
	headers          string
}

func newCORSPolicy(opts CORSOptions) (*corsPolicy, error) {
	p := &corsPolicy{
		allowCredentials: opts.AllowCredentials,
		methods:          strings.Join(opts.Methods, ", "),
		headers:          strings.Join(opts.Headers, ", "),
	}
	for _, pattern := range opts.Origins {
		if pattern == "*" {
			p.anyOrigin = true
			continue
		}
		g, err := glob.Compile(pattern, originSeparators...)
		if err != nil {
			return nil, oops.Code("CORS_ORIGIN_INVALID").With("origin", pattern).Wrap(err)
		}
		p.origins = append(p.origins, g)
	}
	return p, nil
}

func (p *corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	for _, g := range p.origins {
		if g.Match(origin) {
			return true
		}
	}
	return false
}

// wrap answers preflight requests and decorates responses for allowed
// origins. It runs outside the router so OPTIONS never reaches routing.
func (p *corsPolicy) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		allowed := p.allows(origin)
		if allowed {
			h.Set("Access-Control-Allow-Origin", origin)
			if p.allowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if !allowed {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
