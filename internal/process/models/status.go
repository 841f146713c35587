package models

// Status is the normalized, cross-kind status category.
type Status string

const (
	StatusOpen             Status = "open"
	StatusClosed           Status = "closed"
	StatusUpcoming         Status = "upcoming"
	StatusPending          Status = "pending"
	StatusAccepted         Status = "accepted"
	StatusRejected         Status = "rejected"
	StatusCompleted        Status = "completed"
	StatusThresholdReached Status = "threshold_reached"
	StatusInProgress       Status = "in_progress"
)

var allStatuses = []Status{
	StatusOpen,
	StatusClosed,
	StatusUpcoming,
	StatusPending,
	StatusAccepted,
	StatusRejected,
	StatusCompleted,
	StatusThresholdReached,
	StatusInProgress,
}

// AllStatuses returns the closed set of categories.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// IsValid reports whether s belongs to the closed set.
func (s Status) IsValid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
