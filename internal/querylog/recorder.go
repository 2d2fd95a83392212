package querylog

import (
	"context"
	"time"

	"github.com/suPer8Hu/pneuma-api/internal/common"
)

// Recorder delivers query events to the query log, either directly or
// through a queue.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
	Close() error
}

// NewEvent stamps a fresh event with a ULID and the current time.
func NewEvent(sessionID, indexName, query string, resultsCount int, searchTimeMS float64) (Event, error) {
	id, err := common.NewULID()
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:           id,
		SessionID:    sessionID,
		IndexName:    indexName,
		Query:        query,
		ResultsCount: resultsCount,
		SearchTimeMS: searchTimeMS,
		OccurredAt:   time.Now().UTC(),
	}, nil
}

// DirectRecorder writes events straight to the repo.
type DirectRecorder struct {
	repo *Repo
}

func NewDirectRecorder(repo *Repo) *DirectRecorder {
	return &DirectRecorder{repo: repo}
}

func (d *DirectRecorder) Record(ctx context.Context, ev Event) error {
	return d.repo.Insert(ctx, ev.Entry())
}

func (d *DirectRecorder) Close() error { return nil }
