package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"sitescan/internal/domain"
	"sitescan/pkg/validator"
)

var ErrNoEndpoints = errors.New("inventory has no usable rows")

// fieldAliases maps each canonical inventory field to the header
// spellings accepted on input. Headers are matched after lowercasing and
// stripping spaces, so "Store Number" and "storenumber" are the same.
var fieldAliases = map[string][]string{
	"store":     {"storenumber", "store", "storeno", "storenbr"},
	"ip":        {"ipaddress", "ip", "ipaddr"},
	"gateway":   {"gateway", "gw", "gatewayip"},
	"address":   {"address"},
	"city":      {"city"},
	"state":     {"state"},
	"zip":       {"zip", "zipcode", "postalcode"},
	"latitude":  {"latitude", "lat"},
	"longitude": {"longitude", "long", "lng", "lon"},
}

// resolveHeadersFor resolves a CSV header row into canonical field ->
// column index, once per load. Unmatched fields map to -1.
func resolveHeadersFor(headers []string, aliases map[string][]string) map[string]int {
	norm := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "")
		key = strings.TrimPrefix(key, "\ufeff")
		if _, exists := norm[key]; !exists {
			norm[key] = i
		}
	}

	resolved := make(map[string]int, len(aliases))
	for field, names := range aliases {
		resolved[field] = -1
		for _, alias := range names {
			if idx, ok := norm[alias]; ok {
				resolved[field] = idx
				break
			}
		}
	}
	return resolved
}

// Load reads the endpoint inventory from a CSV file. Rows without an
// identity or primary address are skipped; a file with zero usable rows
// is a fatal input error.
func Load(path string, groups *GroupLookup, log *slog.Logger) ([]domain.Endpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inventory %s: %w", path, err)
	}
	defer f.Close()

	endpoints, err := parse(f, groups, log)
	if err != nil {
		return nil, fmt.Errorf("read inventory %s: %w", path, err)
	}
	return endpoints, nil
}

func parse(r io.Reader, groups *GroupLookup, log *slog.Logger) ([]domain.Endpoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoEndpoints
		}
		return nil, fmt.Errorf("read headers: %w", err)
	}

	cols := resolveHeadersFor(headers, fieldAliases)
	if cols["store"] < 0 || cols["ip"] < 0 {
		return nil, errors.New("inventory must include StoreNumber and IPAddress headers")
	}

	var endpoints []domain.Endpoint
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		ep := domain.Endpoint{
			ID:      field(record, cols["store"]),
			IP:      field(record, cols["ip"]),
			Gateway: field(record, cols["gateway"]),
			Address: field(record, cols["address"]),
			City:    field(record, cols["city"]),
			State:   field(record, cols["state"]),
			ZIP:     field(record, cols["zip"]),
		}
		if ep.ID == "" || !validator.ValidTarget(ep.IP) {
			skipped++
			continue
		}

		ep.Latitude = parseFloat(field(record, cols["latitude"]))
		ep.Longitude = parseFloat(field(record, cols["longitude"]))
		ep.GroupCode = domain.GroupCodeOf(ep.ID)
		ep.GroupName = groups.Name(ep.GroupCode)

		endpoints = append(endpoints, ep)
	}

	if skipped > 0 {
		log.Warn("skipped unusable inventory rows", "skipped", skipped)
	}
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	return endpoints, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
