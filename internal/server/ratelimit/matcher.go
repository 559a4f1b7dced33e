package ratelimit

import (
	"path"
	"strings"
)

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Config paths may use "*" for a single path segment (e.g., "/sessions/*/describe"),
// and paths ending with "/" match by prefix.
func MatchEndpoint(reqPath string, method string, configs []EndpointConfig) *EndpointConfig {
	// Special case: health check endpoint is unlimited
	if reqPath == "/health" && method == "GET" {
		return &EndpointConfig{Path: "/health", Method: method}
	}

	// Exact and wildcard matches first
	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		if config.Path == reqPath {
			return config
		}
		if strings.Contains(config.Path, "*") {
			if ok, err := path.Match(config.Path, reqPath); err == nil && ok {
				return config
			}
		}
	}

	// Prefix match (for paths ending with "/")
	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(reqPath, config.Path) {
			return config
		}
	}

	return nil
}
