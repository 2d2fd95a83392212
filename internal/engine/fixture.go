package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FixtureEngine answers queries from pre-computed response documents stored
// as {dir}/{index}.json. The query text and tuning parameters are ignored.
type FixtureEngine struct {
	Dir string
}

func NewFixtureEngine(dir string) *FixtureEngine {
	return &FixtureEngine{Dir: dir}
}

func (e *FixtureEngine) Setup(ctx context.Context) error {
	_ = ctx
	info, err := os.Stat(e.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("fixture engine: %s is not a directory", e.Dir)
	}
	return nil
}

func (e *FixtureEngine) QueryIndex(ctx context.Context, index, query string, k, n int, alpha float64) (string, error) {
	_, _, _, _ = query, k, n, alpha
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if index == "" || strings.ContainsAny(index, `/\`) || strings.Contains(index, "..") {
		return "", fmt.Errorf("fixture engine: invalid index name %q", index)
	}
	b, err := os.ReadFile(filepath.Join(e.Dir, index+".json"))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
