package domain

import "time"

// SnapshotRow is one endpoint's state for one run. Rows are created once
// per run and never mutated; a run's row set covers the whole inventory.
type SnapshotRow struct {
	RunID       string    `json:"run_id"`
	Timestamp   time.Time `json:"timestamp"`
	ID          string    `json:"store"`
	GroupCode   string    `json:"dc_code,omitempty"`
	GroupName   string    `json:"dc_name,omitempty"`
	IP          string    `json:"ip"`
	Gateway     string    `json:"gateway,omitempty"`
	ServerUp    bool      `json:"server_up"`
	GatewayUp   TriState  `json:"gateway_up"`
	Status      Status    `json:"status"`
	StatusCode  int       `json:"status_code"`
	FailedStage FailStage `json:"failed_stage,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	ZIP         string    `json:"zip,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
}

func (r SnapshotRow) Key() string {
	return r.ID + "|" + r.IP
}

type PhaseTimings struct {
	Initial time.Duration `json:"initial"`
	Retry   time.Duration `json:"retry"`
	Final   time.Duration `json:"final"`
	Gateway time.Duration `json:"gateway"`
	Publish time.Duration `json:"publish"`
}

// RunSummary aggregates one run. RunID is the primary key linking the
// summary, its snapshot rows and its alert records.
type RunSummary struct {
	RunID             string        `json:"run_id"`
	Timestamp         time.Time     `json:"timestamp"`
	Source            string        `json:"source"`
	TotalEndpoints    int           `json:"total_endpoints"`
	InitialResponding int           `json:"initial_responding"`
	InitialTimeouts   int           `json:"initial_timeouts"`
	RetryRecovered    int           `json:"retry_recovered"`
	FinalRecovered    int           `json:"final_recovered"`
	FinalTimeouts     int           `json:"final_timeouts"`
	GatewayChecked    bool          `json:"gateway_checked"`
	GatewayOnline     int           `json:"gateway_online"`
	GatewayOffline    int           `json:"gateway_offline"`
	NewOffline        int           `json:"new_offline"`
	BackOnline        int           `json:"back_online"`
	Duration          time.Duration `json:"duration"`
	Phases            PhaseTimings  `json:"phases"`
}

type AlertType string

const (
	AlertNewOffline AlertType = "new_offline"
	AlertBackOnline AlertType = "back_online"
)

// AlertRecord is the persisted outcome of one alert type for one run.
// Delivered is Unknown when no delivery was attempted.
type AlertRecord struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Type      AlertType `json:"type"`
	Count     int       `json:"count"`
	Message   string    `json:"message"`
	Attempted bool      `json:"attempted"`
	Delivered TriState  `json:"delivered"`
	Detail    string    `json:"detail,omitempty"`
}

// Transition is one endpoint crossing between reachable and unreachable
// relative to the prior snapshot. LastSeen carries the prior row's
// timestamp (for back_online: last seen offline at).
type Transition struct {
	Row      SnapshotRow `json:"row"`
	LastSeen time.Time   `json:"last_seen,omitempty"`
}
