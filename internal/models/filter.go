package models

// EventFilter narrows the approved-events feed. Zero values mean "no
// constraint"; filters are additive (logical AND).
type EventFilter struct {
	City     string
	Date     string
	KidsOnly bool
}

// CalendarDay is one day of a month grid. Days with no events carry an
// empty (non-nil) Events slice rather than being omitted.
type CalendarDay struct {
	Date   string  `json:"date"`
	Events []Event `json:"events"`
}
