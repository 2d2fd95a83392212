// Package engine is the boundary to the Pneuma discovery engine. The engine
// is opaque: it is set up once and then answers index queries with a
// serialized JSON document.
package engine

import "context"

type Engine interface {
	// Setup prepares the engine. It must succeed once before queries.
	Setup(ctx context.Context) error
	// QueryIndex returns the engine's raw JSON response document.
	QueryIndex(ctx context.Context, index, query string, k, n int, alpha float64) (string, error)
}

// Options is what the engine factories get from configuration.
type Options struct {
	URL         string
	StoragePath string
	LLMPath     string
	EmbedPath   string
}
