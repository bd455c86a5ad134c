package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// GroupLookup maps a DC code to its display name. Unknown codes get a
// deterministic placeholder so downstream output never shows a blank.
type GroupLookup struct {
	names map[string]string
}

func NewGroupLookup(names map[string]string) *GroupLookup {
	if names == nil {
		names = map[string]string{}
	}
	return &GroupLookup{names: names}
}

func (g *GroupLookup) Name(code string) string {
	if code == "" {
		return ""
	}
	if name, ok := g.names[code]; ok {
		return name
	}
	return "Unknown DC " + code
}

// LoadGroups reads the DC lookup CSV (City, DC headers). A missing or
// malformed file degrades to an empty lookup with a warning; group names
// are cosmetic and must not fail the run.
func LoadGroups(path string, log *slog.Logger) *GroupLookup {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("DC lookup not loaded, group names will be placeholders", "path", path, "error", err)
		return NewGroupLookup(nil)
	}
	defer f.Close()

	names, err := parseGroups(f)
	if err != nil {
		log.Warn("DC lookup unusable, group names will be placeholders", "path", path, "error", err)
		return NewGroupLookup(nil)
	}
	return NewGroupLookup(names)
}

func parseGroups(r io.Reader) (map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}

	cols := resolveGroupHeaders(headers)
	if cols.dc < 0 {
		return nil, errors.New("DC lookup missing 'DC' header")
	}

	names := make(map[string]string)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		code := field(record, cols.dc)
		if code == "" {
			continue
		}
		city := field(record, cols.city)
		if city == "" {
			city = "DC " + code
		}
		names[code] = city
	}
	return names, nil
}

type groupCols struct {
	city int
	dc   int
}

func resolveGroupHeaders(headers []string) groupCols {
	cols := groupCols{city: -1, dc: -1}
	resolved := resolveHeadersFor(headers, map[string][]string{
		"city": {"city"},
		"dc":   {"dc", "dccode"},
	})
	cols.city = resolved["city"]
	cols.dc = resolved["dc"]
	return cols
}
