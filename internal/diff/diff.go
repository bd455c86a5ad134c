// Package diff detects reachability transitions between two consecutive
// snapshots of the same inventory.
package diff

import (
	"sort"

	"sitescan/internal/domain"
)

// Transitions holds the endpoints that crossed between reachable and
// unreachable since the prior snapshot, in stable endpoint order.
type Transitions struct {
	NewOffline []domain.Transition
	BackOnline []domain.Transition
}

// Detect joins the new snapshot against the prior one by endpoint key.
// Endpoints absent from the prior snapshot produce no transition; a nil
// or empty prior snapshot means no prior data and therefore none at all.
func Detect(prior, current []domain.SnapshotRow) Transitions {
	var t Transitions
	if len(prior) == 0 {
		return t
	}

	prev := make(map[string]domain.SnapshotRow, len(prior))
	for _, row := range prior {
		prev[row.Key()] = row
	}

	for _, row := range current {
		p, ok := prev[row.Key()]
		if !ok {
			continue
		}
		switch {
		case p.ServerUp && !row.ServerUp:
			t.NewOffline = append(t.NewOffline, domain.Transition{Row: row})
		case !p.ServerUp && row.ServerUp:
			t.BackOnline = append(t.BackOnline, domain.Transition{Row: row, LastSeen: p.Timestamp})
		}
	}

	sortTransitions(t.NewOffline)
	sortTransitions(t.BackOnline)
	return t
}

func sortTransitions(items []domain.Transition) {
	sort.SliceStable(items, func(i, j int) bool {
		return domain.Less(items[i].Row.ID, items[j].Row.ID)
	})
}
