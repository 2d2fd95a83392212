package discovery

import "time"

type Request struct {
	Query     string
	IndexName string
	K         int
	N         int
	Alpha     float64
	SessionID string
}

// TableResult is one table returned by the engine. Everything except the
// identifier and name may be missing upstream.
type TableResult struct {
	TableID        string           `json:"table_id"`
	TableName      string           `json:"table_name"`
	Description    *string          `json:"description"`
	RelevanceScore *float64         `json:"relevance_score"`
	RowCount       *int64           `json:"row_count"`
	ColumnCount    *int64           `json:"column_count"`
	Schema         []map[string]any `json:"schema"`
	SampleData     []map[string]any `json:"sample_data"`
	Metadata       map[string]any   `json:"metadata"`
}

type Response struct {
	Query        string        `json:"query"`
	SessionID    *string       `json:"session_id"`
	Results      []TableResult `json:"results"`
	TotalResults int           `json:"total_results"`
	SearchTimeMS float64       `json:"search_time_ms"`
	Timestamp    time.Time     `json:"timestamp"`
}

// TableNames returns the names of the results in rank order.
func (r *Response) TableNames() []string {
	names := make([]string, 0, len(r.Results))
	for _, t := range r.Results {
		names = append(names, t.TableName)
	}
	return names
}

type IndexInfo struct {
	Name        string    `json:"name"`
	TableCount  int       `json:"table_count"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

type AdminIndexInfo struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	TableCount  int       `json:"table_count"`
	SizeMB      int       `json:"size_mb"`
	LastUpdated time.Time `json:"last_updated"`
}
