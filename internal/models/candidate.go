package models

// Candidate is a normalized, not-yet-persisted event produced by the
// importer. Source and SourceID are both set for imports; a manual
// submission routed through the upsert engine leaves both empty.
type Candidate struct {
	Title    string
	Date     string
	WhenText string
	City     string
	Kids     bool
	URL      string
	Source   string
	SourceID string
}

// SyncReport is the aggregate outcome of one sync run.
type SyncReport struct {
	Added   int `json:"added"`
	Errors  int `json:"errors"`
	Sources int `json:"sources"`
}
