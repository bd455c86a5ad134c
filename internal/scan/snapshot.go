package scan

import (
	"sort"
	"time"

	"sitescan/internal/domain"
)

// BuildRows materializes one snapshot row per endpoint from the pass
// outcome, in the stable endpoint ordering. The row set is a total
// covering of the inventory for the run.
func BuildRows(runID string, ts time.Time, endpoints []domain.Endpoint, out *PassOutcome) []domain.SnapshotRow {
	rows := make([]domain.SnapshotRow, 0, len(endpoints))
	for _, ep := range endpoints {
		k := ep.Key()
		serverUp := out.ServerUp[k]
		gatewayUp := out.GatewayUp[k]
		status := Classify(serverUp, gatewayUp)

		rows = append(rows, domain.SnapshotRow{
			RunID:       runID,
			Timestamp:   ts,
			ID:          ep.ID,
			GroupCode:   ep.GroupCode,
			GroupName:   ep.GroupName,
			IP:          ep.IP,
			Gateway:     ep.Gateway,
			ServerUp:    serverUp,
			GatewayUp:   gatewayUp,
			Status:      status,
			StatusCode:  status.Code(),
			FailedStage: out.FailedStage[k],
			Address:     ep.Address,
			City:        ep.City,
			State:       ep.State,
			ZIP:         ep.ZIP,
			Latitude:    ep.Latitude,
			Longitude:   ep.Longitude,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return domain.Less(rows[i].ID, rows[j].ID)
	})
	return rows
}

// Failures filters a snapshot down to its non-UP rows, preserving order.
func Failures(rows []domain.SnapshotRow) []domain.SnapshotRow {
	var out []domain.SnapshotRow
	for _, r := range rows {
		if r.Status != domain.StatusUp {
			out = append(out, r)
		}
	}
	return out
}
