package session

import "time"

// MaxSummaryTables caps how many result names a history entry keeps.
const MaxSummaryTables = 5

type Summary struct {
	ResultsCount int      `json:"results_count"`
	SearchTimeMS float64  `json:"search_time_ms"`
	TableNames   []string `json:"table_names"`
}

// NewSummary builds the projection stored with each query, keeping only the
// first MaxSummaryTables names.
func NewSummary(count int, searchTimeMS float64, names []string) Summary {
	if len(names) > MaxSummaryTables {
		names = names[:MaxSummaryTables]
	}
	return Summary{
		ResultsCount: count,
		SearchTimeMS: searchTimeMS,
		TableNames:   append(make([]string, 0, len(names)), names...),
	}
}

type QueryEntry struct {
	Timestamp       time.Time `json:"timestamp"`
	Query           string    `json:"query"`
	ResponseSummary Summary   `json:"response_summary"`
}

type Document struct {
	SessionID        string       `json:"session_id"`
	CreatedAt        time.Time    `json:"created_at"`
	LastActivity     time.Time    `json:"last_activity"`
	Queries          []QueryEntry `json:"queries"`
	QueryCount       int          `json:"query_count"`
	BookmarkedTables []string     `json:"bookmarked_tables"`
}

func newDocument(id string, now time.Time) Document {
	return Document{
		SessionID:        id,
		CreatedAt:        now,
		LastActivity:     now,
		Queries:          []QueryEntry{},
		BookmarkedTables: []string{},
	}
}

// normalize restores the empty-slice form after decoding so the document
// always serialises lists as [].
func (d *Document) normalize() {
	if d.Queries == nil {
		d.Queries = []QueryEntry{}
	}
	if d.BookmarkedTables == nil {
		d.BookmarkedTables = []string{}
	}
	d.QueryCount = len(d.Queries)
}
