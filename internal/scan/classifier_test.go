package scan

import (
	"testing"

	"sitescan/internal/domain"
)

func TestClassifyIsTotal(t *testing.T) {
	tests := []struct {
		serverUp  bool
		gatewayUp domain.TriState
		want      domain.Status
	}{
		{true, domain.TriTrue, domain.StatusUp},
		{true, domain.TriFalse, domain.StatusUp},
		{true, domain.TriUnknown, domain.StatusUp},
		{false, domain.TriTrue, domain.StatusDegraded},
		{false, domain.TriFalse, domain.StatusDown},
		{false, domain.TriUnknown, domain.StatusDown},
	}
	for _, tt := range tests {
		got := Classify(tt.serverUp, tt.gatewayUp)
		if got != tt.want {
			t.Errorf("Classify(%v, %s) = %s, want %s", tt.serverUp, tt.gatewayUp, got, tt.want)
		}
	}
}

func TestGatewayAddress(t *testing.T) {
	tests := []struct {
		name string
		ep   domain.Endpoint
		want string
	}{
		{"configured gateway wins", domain.Endpoint{IP: "10.1.2.50", Gateway: "10.1.2.254"}, "10.1.2.254"},
		{"derived from ipv4", domain.Endpoint{IP: "10.1.2.50"}, "10.1.2.1"},
		{"already sentinel", domain.Endpoint{IP: "10.1.2.1"}, "10.1.2.1"},
		{"ipv6 not derivable", domain.Endpoint{IP: "fd00::1"}, ""},
		{"hostname not derivable", domain.Endpoint{IP: "store.example.com"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GatewayAddress(tt.ep); got != tt.want {
				t.Fatalf("GatewayAddress(%+v) = %q, want %q", tt.ep, got, tt.want)
			}
		})
	}
}
