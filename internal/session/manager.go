// Package session keeps a rolling, expiring history of the queries issued in
// each chat session. History is best-effort: storage faults are logged and
// never returned to callers of Get, Append or History.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/pneuma-api/internal/metrics"
	"github.com/suPer8Hu/pneuma-api/internal/store/redisstore"
)

const DefaultTTL = 24 * time.Hour

// Backend is the subset of the key-value store the manager needs.
type Backend interface {
	GetSession(ctx context.Context, id string) ([]byte, error)
	SetSession(ctx context.Context, id string, data []byte, ttl time.Duration) error
	DeleteSession(ctx context.Context, id string) (bool, error)
	CountSessions(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

type Manager struct {
	store   Backend
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewManager(store Backend, ttl time.Duration, m *metrics.Metrics) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, metrics: m, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the stored document, or a fresh unsaved one when the session
// is unknown or the store cannot be read. It never extends the expiry.
func (m *Manager) Get(ctx context.Context, id string) Document {
	raw, err := m.store.GetSession(ctx, id)
	if err != nil {
		if !errors.Is(err, redisstore.ErrNotFound) {
			log.Ctx(ctx).Error().Err(err).Str("session_id", id).Msg("error getting session")
		}
		return newDocument(id, m.now())
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("session_id", id).Msg("corrupt session document")
		return newDocument(id, m.now())
	}
	doc.normalize()
	return doc
}

// Append records one query in the session and rewrites the whole document
// with a fresh expiry. Two concurrent appends to the same session race and
// the later write wins.
func (m *Manager) Append(ctx context.Context, id, query string, summary Summary) {
	doc := m.Get(ctx, id)

	now := m.now()
	doc.Queries = append(doc.Queries, QueryEntry{
		Timestamp:       now,
		Query:           query,
		ResponseSummary: summary,
	})
	doc.QueryCount = len(doc.Queries)
	doc.LastActivity = now

	data, err := json.Marshal(doc)
	if err == nil {
		err = m.store.SetSession(ctx, id, data, m.ttl)
	}
	if err != nil {
		m.metrics.SessionWriteFailed()
		log.Ctx(ctx).Error().Err(err).Str("session_id", id).Msg("error adding query to session")
	}
}

// History returns the session's queries in append order, never nil.
func (m *Manager) History(ctx context.Context, id string) []QueryEntry {
	return m.Get(ctx, id).Queries
}

// Delete removes a session and reports whether it existed.
func (m *Manager) Delete(ctx context.Context, id string) (bool, error) {
	return m.store.DeleteSession(ctx, id)
}

func (m *Manager) ActiveSessions(ctx context.Context) (int64, error) {
	return m.store.CountSessions(ctx)
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}
