package validator

import (
	"net"
	"strings"
)

// ValidTarget reports whether target looks like something the prober can
// reach: an IP literal or a plausible hostname. Empty targets are invalid.
func ValidTarget(target string) bool {
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}

	if net.ParseIP(target) != nil {
		return true
	}

	// Bare hostname, no scheme or port garbage.
	if strings.ContainsAny(target, " /:") {
		return false
	}
	return true
}

// IsIPv4 reports whether target parses as an IPv4 address.
func IsIPv4(target string) bool {
	ip := net.ParseIP(strings.TrimSpace(target))
	return ip != nil && ip.To4() != nil
}
