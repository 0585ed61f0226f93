// Package config provides configuration loading and parsing for shortload.
package config

import (
	"fmt"
	"net/http"
	"strings"
)

// parseHeaderEntries converts "Key=Value" or "Key: Value" entries into a
// canonicalised header map.
func parseHeaderEntries(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, val, ok := splitHeader(entry)
		if !ok {
			return nil, fmt.Errorf("header must be in key=value format: %s", entry)
		}
		if key == "" {
			return nil, fmt.Errorf("header key cannot be empty")
		}
		if strings.ContainsAny(key, "\r\n") || strings.ContainsAny(val, "\r\n") {
			return nil, fmt.Errorf("invalid header %q", entry)
		}
		out[key] = val
	}
	return out, nil
}

func splitHeader(entry string) (string, string, bool) {
	sep := strings.IndexAny(entry, "=:")
	if sep < 0 {
		return "", "", false
	}
	key := http.CanonicalHeaderKey(strings.TrimSpace(entry[:sep]))
	return key, strings.TrimSpace(entry[sep+1:]), true
}

// canonicalHeaders rewrites header keys read from a config file.
func canonicalHeaders(in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := http.CanonicalHeaderKey(strings.TrimSpace(k))
		if key == "" {
			return nil, fmt.Errorf("header key cannot be empty")
		}
		if strings.ContainsAny(key, "\r\n") || strings.ContainsAny(v, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", key)
		}
		out[key] = v
	}
	return out, nil
}
