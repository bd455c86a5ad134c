package domain

type Status string

const (
	StatusUp       Status = "UP"
	StatusDegraded Status = "DEGRADED"
	StatusDown     Status = "DOWN"
)

// Code returns the numeric status used by dashboard consumers:
// 0=UP, 1=DEGRADED, 2=DOWN.
func (s Status) Code() int {
	switch s {
	case StatusUp:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// TriState is a three-valued reachability result. Unknown means the
// check never ran, which is not the same thing as a failed check.
type TriState string

const (
	TriTrue    TriState = "true"
	TriFalse   TriState = "false"
	TriUnknown TriState = "unknown"
)

func TriFromBool(b bool) TriState {
	if b {
		return TriTrue
	}
	return TriFalse
}

type FailStage string

const (
	FailStageNone    FailStage = ""
	FailStageRetry   FailStage = "retry"
	FailStageFinal   FailStage = "final"
	FailStageGateway FailStage = "gateway"
)
