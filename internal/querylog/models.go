package querylog

import "time"

// Entry is one executed discovery query. ID is the event's ULID, so replays
// of the same event insert once.
type Entry struct {
	ID           string    `gorm:"primaryKey;size:26" json:"id"`
	SessionID    string    `gorm:"type:varchar(128);index" json:"session_id"`
	IndexName    string    `gorm:"type:varchar(128);not null" json:"index_name"`
	Query        string    `gorm:"type:text;not null" json:"query"`
	ResultsCount int       `gorm:"not null" json:"results_count"`
	SearchTimeMS float64   `gorm:"not null" json:"search_time_ms"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (Entry) TableName() string { return "query_log" }

// Event is the message published for each query.
type Event struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id,omitempty"`
	IndexName    string    `json:"index_name"`
	Query        string    `json:"query"`
	ResultsCount int       `json:"results_count"`
	SearchTimeMS float64   `json:"search_time_ms"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e Event) Entry() *Entry {
	return &Entry{
		ID:           e.ID,
		SessionID:    e.SessionID,
		IndexName:    e.IndexName,
		Query:        e.Query,
		ResultsCount: e.ResultsCount,
		SearchTimeMS: e.SearchTimeMS,
		CreatedAt:    e.OccurredAt,
	}
}
