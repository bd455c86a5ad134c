package scan

import (
	"strings"

	"sitescan/internal/domain"
	"sitescan/pkg/validator"
)

// gatewaySentinel replaces the final addressing component of an IPv4
// primary address when no gateway is configured.
const gatewaySentinel = "1"

// GatewayAddress returns the secondary address to probe for an endpoint:
// the configured gateway when present, otherwise the primary with its
// last octet replaced by the sentinel. Returns "" when nothing can be
// derived (non-IPv4 primary).
func GatewayAddress(ep domain.Endpoint) string {
	if gw := strings.TrimSpace(ep.Gateway); gw != "" {
		return gw
	}
	return deriveGateway(ep.IP)
}

func deriveGateway(primary string) string {
	if !validator.IsIPv4(primary) {
		return ""
	}
	parts := strings.Split(strings.TrimSpace(primary), ".")
	if len(parts) != 4 {
		return ""
	}
	parts[3] = gatewaySentinel
	return strings.Join(parts, ".")
}
