package services

// Status describes how the last served dataset was produced.
type Status int32

const (
	StatusUnknown Status = iota
	StatusFresh
	StatusFromCache
	StatusDegradedRateLimit
	StatusDegradedTransport
	StatusNoData
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "served-fresh"
	case StatusFromCache:
		return "served-from-cache"
	case StatusDegradedRateLimit:
		return "served-from-cache-degraded-due-to-rate-limit"
	case StatusDegradedTransport:
		return "served-from-cache-degraded-due-to-transport-error"
	case StatusNoData:
		return "no-data-available"
	default:
		return "unknown"
	}
}

// Degraded reports whether the dataset behind this status may be stale.
func (s Status) Degraded() bool {
	return s == StatusDegradedRateLimit || s == StatusDegradedTransport
}
