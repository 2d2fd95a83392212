// Package discovery adapts the opaque Pneuma engine to the API: it owns the
// one-time setup state, runs engine calls on a worker pool and reshapes the
// engine's output into TableResults.
package discovery

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/suPer8Hu/pneuma-api/internal/engine"
	"golang.org/x/sync/singleflight"
)

var (
	ErrEngineUnavailable = errors.New("pneuma engine not initialized")
	ErrEngine            = errors.New("pneuma engine error")
	ErrTableNotFound     = errors.New("table not found")

	errUnparseable = errors.New("unparseable engine output")
)

// EngineError reports a failed delegated call. It matches ErrEngine with
// errors.Is and unwraps to the cause.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string { return "pneuma " + e.Op + ": " + e.Err.Error() }
func (e *EngineError) Unwrap() error { return e.Err }
func (e *EngineError) Is(target error) bool {
	return target == ErrEngine
}

type Service struct {
	engine       engine.Engine
	pool         *Pool
	defaultIndex string

	ready atomic.Bool
	setup singleflight.Group
}

func NewService(e engine.Engine, pool *Pool, defaultIndex string) *Service {
	if defaultIndex == "" {
		defaultIndex = "default"
	}
	return &Service{engine: e, pool: pool, defaultIndex: defaultIndex}
}

// Initialize runs the engine setup on the pool unless it already succeeded.
// Concurrent callers share a single setup run.
func (s *Service) Initialize(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	return s.runSetup(ctx)
}

// Reload re-runs engine setup. A failure leaves the previous readiness
// unchanged.
func (s *Service) Reload(ctx context.Context) error {
	return s.runSetup(ctx)
}

func (s *Service) runSetup(ctx context.Context) error {
	_, err, _ := s.setup.Do("setup", func() (any, error) {
		log.Ctx(ctx).Info().Msg("initializing pneuma engine")
		_, err := runOn(ctx, s.pool, func() (struct{}, error) {
			if err := s.engine.Setup(context.WithoutCancel(ctx)); err != nil {
				return struct{}{}, err
			}
			s.ready.Store(true)
			return struct{}{}, nil
		})
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("pneuma engine setup failed")
			return nil, &EngineError{Op: "setup", Err: err}
		}
		log.Ctx(ctx).Info().Msg("pneuma engine initialized")
		return nil, nil
	})
	return err
}

func (s *Service) Initialized() bool { return s.ready.Load() }

func (s *Service) Healthy() bool { return s.engine != nil && s.ready.Load() }

func (s *Service) DefaultIndex() string { return s.defaultIndex }

// Query runs a table search. It returns ErrEngineUnavailable before setup
// has completed and an EngineError when the engine fails or its output
// cannot be parsed.
func (s *Service) Query(ctx context.Context, req Request) (*Response, error) {
	if !s.ready.Load() {
		return nil, ErrEngineUnavailable
	}
	if req.IndexName == "" {
		req.IndexName = s.defaultIndex
	}

	log.Ctx(ctx).Info().Str("query", req.Query).Int("k", req.K).Str("index", req.IndexName).Msg("executing pneuma query")

	start := time.Now()
	raw, err := runOn(ctx, s.pool, func() (string, error) {
		return s.engine.QueryIndex(context.WithoutCancel(ctx), req.IndexName, req.Query, req.K, req.N, req.Alpha)
	})
	if err != nil {
		if errors.Is(err, ErrPoolClosed) {
			return nil, ErrEngineUnavailable
		}
		return nil, &EngineError{Op: "query", Err: pkgerrors.Wrapf(err, "index %s", req.IndexName)}
	}

	results, err := convertResults(raw)
	if err != nil {
		return nil, err
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	resp := &Response{
		Query:        req.Query,
		Results:      results,
		TotalResults: len(results),
		SearchTimeMS: elapsed,
		Timestamp:    time.Now().UTC(),
	}
	if req.SessionID != "" {
		sid := req.SessionID
		resp.SessionID = &sid
	}
	return resp, nil
}

// Index and table metadata are not exposed by the engine yet; the values
// below are fixed placeholders.
var placeholderIndexes = []string{"default", "chicago_data", "demo_index"}

func (s *Service) ListIndexes(ctx context.Context) ([]string, error) {
	_ = ctx
	return append([]string(nil), placeholderIndexes...), nil
}

func (s *Service) IndexInfos(ctx context.Context) ([]IndexInfo, error) {
	names, err := s.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	out := make([]IndexInfo, 0, len(names))
	for _, name := range names {
		count := 50
		if name == "default" {
			count = 100
		}
		out = append(out, IndexInfo{Name: name, TableCount: count, CreatedAt: created, LastUpdated: updated})
	}
	return out, nil
}

func (s *Service) AdminIndexInfos(ctx context.Context) ([]AdminIndexInfo, error) {
	names, err := s.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]AdminIndexInfo, 0, len(names))
	for _, name := range names {
		out = append(out, AdminIndexInfo{Name: name, Status: "active", TableCount: 100, SizeMB: 250, LastUpdated: now})
	}
	return out, nil
}

// TableDetails always reports ErrTableNotFound until the engine exposes
// table lookups.
func (s *Service) TableDetails(ctx context.Context, tableID string, includeSample bool, sampleSize int) (*TableResult, error) {
	_, _, _ = tableID, includeSample, sampleSize
	_ = ctx
	return nil, ErrTableNotFound
}
