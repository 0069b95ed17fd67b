// Package headers parses the "Key: Value" header arguments accepted by the CLI.
package headers

import (
	"fmt"
	"net/http"
	"strings"
)

// ParseHeaders converts "Key: Value" strings into a map keyed by canonical header name.
// Entries without a colon or with an empty key are skipped; later entries win.
func ParseHeaders(h []string) map[string]string {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		k, v, err := ParseHeader(hdr)
		if err != nil {
			continue
		}
		m[k] = v
	}
	return m
}

// ParseHeader splits a single "Key: Value" string
func ParseHeader(hdr string) (string, string, error) {
	k, v, ok := strings.Cut(hdr, ":")
	k = strings.TrimSpace(k)
	if !ok || k == "" || strings.ContainsAny(k, " \t") {
		return "", "", fmt.Errorf("invalid header %q (want \"Key: Value\")", hdr)
	}
	return http.CanonicalHeaderKey(k), strings.TrimSpace(v), nil
}

// Merge returns base overlaid with override. Neither map is modified.
func Merge(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range override {
		out[http.CanonicalHeaderKey(k)] = v
	}
	return out
}
