package domain

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusEnded      Status = "ended"
)

// rank orders statuses along the only legal direction of travel.
func (s Status) rank() int {
	switch s {
	case StatusNotStarted:
		return 0
	case StatusActive:
		return 1
	case StatusEnded:
		return 2
	default:
		return -1
	}
}

// Precedes reports whether moving from s to next never goes backwards.
func (s Status) Precedes(next Status) bool {
	return s.rank() >= 0 && next.rank() >= s.rank()
}
