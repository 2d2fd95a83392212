package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// HTTPEngine talks to a Pneuma engine process over HTTP.
type HTTPEngine struct {
	BaseURL string
	Opts    Options
	Client  *http.Client
}

type setupReq struct {
	OutPath   string `json:"out_path"`
	LLMPath   string `json:"llm_path"`
	EmbedPath string `json:"embed_path"`
}

type queryIndexReq struct {
	IndexName string  `json:"index_name"`
	Query     string  `json:"query"`
	K         int     `json:"k"`
	N         int     `json:"n"`
	Alpha     float64 `json:"alpha"`
}

func NewHTTPEngine(opts Options) *HTTPEngine {
	baseURL := opts.URL
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}
	return &HTTPEngine{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Opts:    opts,
		// no client timeout: setup loads models and may take minutes
		Client: &http.Client{},
	}
}

func (e *HTTPEngine) Setup(ctx context.Context) error {
	_, err := e.post(ctx, "/setup", setupReq{
		OutPath:   e.Opts.StoragePath,
		LLMPath:   e.Opts.LLMPath,
		EmbedPath: e.Opts.EmbedPath,
	})
	return err
}

func (e *HTTPEngine) QueryIndex(ctx context.Context, index, query string, k, n int, alpha float64) (string, error) {
	body, err := e.post(ctx, "/query_index", queryIndexReq{
		IndexName: index,
		Query:     query,
		K:         k,
		N:         n,
		Alpha:     alpha,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (e *HTTPEngine) post(ctx context.Context, path string, payload any) ([]byte, error) {
	if e.Client == nil {
		return nil, errors.New("pneuma: http client is nil")
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("pneuma %s: %s", path, msg)
	}
	return io.ReadAll(resp.Body)
}
