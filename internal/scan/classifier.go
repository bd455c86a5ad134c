package scan

import "sitescan/internal/domain"

// Classify derives the tri-state health status for one endpoint.
// An unknown gateway result classifies the same as an unreachable one,
// but the distinction is preserved in the persisted row.
func Classify(serverUp bool, gatewayUp domain.TriState) domain.Status {
	switch {
	case serverUp:
		return domain.StatusUp
	case gatewayUp == domain.TriTrue:
		return domain.StatusDegraded
	default:
		return domain.StatusDown
	}
}
