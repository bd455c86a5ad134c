package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingDigits = regexp.MustCompile(`^(\d+)`)

// Endpoint is one monitored target from the inventory. Identity plus
// primary IP form the natural key used to join rows across runs.
type Endpoint struct {
	ID        string   `json:"store"`
	IP        string   `json:"ip"`
	Gateway   string   `json:"gateway,omitempty"`
	GroupCode string   `json:"dc_code,omitempty"`
	GroupName string   `json:"dc_name,omitempty"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	State     string   `json:"state,omitempty"`
	ZIP       string   `json:"zip,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (e Endpoint) Key() string {
	return e.ID + "|" + e.IP
}

// GroupCodeOf extracts the grouping code from an identity: its leading
// digits, capped at four.
func GroupCodeOf(id string) string {
	m := leadingDigits.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return ""
	}
	if len(m[1]) > 4 {
		return m[1][:4]
	}
	return m[1]
}

// SortKey orders endpoints by numeric identity prefix, then by the raw
// identity string. Identities without a numeric prefix sort last.
func SortKey(id string) (int64, string) {
	m := leadingDigits.FindStringSubmatch(id)
	if m == nil {
		return 1 << 40, id
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 1 << 40, id
	}
	return n, id
}

// Less reports whether identity a sorts before identity b under the
// stable endpoint ordering.
func Less(a, b string) bool {
	an, as := SortKey(a)
	bn, bs := SortKey(b)
	if an != bn {
		return an < bn
	}
	return as < bs
}
