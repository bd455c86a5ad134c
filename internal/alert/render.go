package alert

import (
	"fmt"
	"strings"
	"time"

	"sitescan/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// Render formats one transition set into a human-readable alert message:
// a header with type and count, the run id and timestamp, up to maxItems
// itemized lines, and a truncation line when the set is longer.
func Render(kind domain.AlertType, items []domain.Transition, runID string, ts time.Time, maxItems int) string {
	var b strings.Builder

	switch kind {
	case domain.AlertNewOffline:
		fmt.Fprintf(&b, "ALERT - new offline: %d store(s)\n", len(items))
	case domain.AlertBackOnline:
		fmt.Fprintf(&b, "RECOVERED - back online: %d store(s)\n", len(items))
	default:
		fmt.Fprintf(&b, "%s: %d store(s)\n", kind, len(items))
	}
	fmt.Fprintf(&b, "run %s at %s\n", runID, ts.Format(timeLayout))

	shown := items
	if maxItems > 0 && len(shown) > maxItems {
		shown = shown[:maxItems]
	}
	for _, item := range shown {
		row := item.Row
		name := row.GroupName
		if name == "" {
			name = "-"
		}
		if kind == domain.AlertBackOnline {
			fmt.Fprintf(&b, "  %s (%s) %s - last seen offline %s\n",
				row.ID, name, row.IP, item.LastSeen.Format(timeLayout))
		} else {
			fmt.Fprintf(&b, "  %s (%s) %s - %s\n", row.ID, name, row.IP, row.Status)
		}
	}
	if rest := len(items) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "  ...and %d more\n", rest)
	}

	return strings.TrimRight(b.String(), "\n")
}
