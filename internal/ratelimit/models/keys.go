package models

import (
	"fmt"
	"strings"
)

// KeyPrefix represents the type of rate limit key.
type KeyPrefix string

const (
	KeyPrefixIP    KeyPrefix = "ip"
	KeyPrefixRoute KeyPrefix = "route"
)

// NewClientKey builds the window key for one client address on one path:
// "ip:<ip>:<path>". Both segments are sanitized so an IPv6 address or a path
// containing ':' cannot collide with another client's window.
func NewClientKey(ip, path string) string {
	if ip == "" {
		ip = "unknown"
	}
	return fmt.Sprintf("%s:%s:%s", KeyPrefixIP, sanitizeKeySegment(ip), sanitizeKeySegment(path))
}

// NewRouteKey is NewClientKey for a route-specific limit. It lives in its own
// namespace so that a route limit and the global limit on the same path keep
// separate windows.
func NewRouteKey(ip, path string) string {
	if ip == "" {
		ip = "unknown"
	}
	return fmt.Sprintf("%s:%s:%s", KeyPrefixRoute, sanitizeKeySegment(ip), sanitizeKeySegment(path))
}

// sanitizeKeySegment escapes delimiter characters in key segments.
//
// Escape rules (order matters):
//  1. Escape '_' to '__' (escape the escape character first)
//  2. Escape ':' to '_c' (escape the delimiter)
//
// Examples:
//   - "2001:db8::1" → "2001_cdb8_c_c1"
//   - "/api/a_b"    → "/api/a__b"
//
// No two distinct inputs produce the same sanitized output.
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
