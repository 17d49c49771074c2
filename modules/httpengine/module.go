// Package httpengine provides a computation engine that submits every
// snapshot to a remote compute service over HTTP.
package httpengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/registry"
)

// DefaultMissingArtifactStatus is the response status (424 Failed
// Dependency) a service uses to report missing precomputed input data.
const DefaultMissingArtifactStatus = http.StatusFailedDependency

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of an `engine "http" { ... }` block.
type Input struct {
	URL                   string            `hcl:"url"`
	Method                string            `hcl:"method,optional"`
	Headers               map[string]string `hcl:"headers,optional"`
	Timeout               string            `hcl:"timeout,optional"`
	MissingArtifactStatus *int              `hcl:"missing_artifact_status,optional"`
}

// Request is the JSON body sent for every computation.
type Request struct {
	Entry    string          `json:"entry"`
	RunID    string          `json:"run_id"`
	Snapshot config.Snapshot `json:"snapshot"`
}

// Engine posts snapshots to a compute service.
type Engine struct {
	client        *http.Client
	url           string
	method        string
	headers       map[string]string
	missingStatus int
	runID         string
}

var _ compute.Engine = (*Engine)(nil)

// NewEngine validates the input and builds an engine with its own client.
func NewEngine(input *Input, runID string) (*Engine, error) {
	u, err := url.Parse(input.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: http engine needs an absolute http(s) url, got %q", config.ErrConfig, input.URL)
	}

	method := strings.ToUpper(strings.TrimSpace(input.Method))
	switch method {
	case "":
		method = http.MethodPost
	case http.MethodPost, http.MethodPut:
	default:
		return nil, fmt.Errorf("%w: http engine method must be POST or PUT, got %q", config.ErrConfig, input.Method)
	}

	timeout := 30 * time.Second
	if input.Timeout != "" {
		timeout, err = time.ParseDuration(input.Timeout)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("%w: invalid http engine timeout %q", config.ErrConfig, input.Timeout)
		}
	}

	e := &Engine{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		url:           u.String(),
		method:        method,
		headers:       input.Headers,
		missingStatus: DefaultMissingArtifactStatus,
		runID:         runID,
	}
	if input.MissingArtifactStatus != nil {
		e.missingStatus = *input.MissingArtifactStatus
	}
	return e, nil
}

// Run submits a single-experiment snapshot.
func (e *Engine) Run(ctx context.Context, snap config.Snapshot) error {
	return e.submit(ctx, "run", snap)
}

// RunMultiExperiment submits the aggregate snapshot.
func (e *Engine) RunMultiExperiment(ctx context.Context, snap config.Snapshot) error {
	return e.submit(ctx, "run_multiexperiment", snap)
}

func (e *Engine) submit(ctx context.Context, entry string, snap config.Snapshot) error {
	logger := ctxlog.FromContext(ctx).With("engine", "http", "entry", entry, "experiment", snap.ExperName)

	body, err := json.Marshal(Request{Entry: entry, RunID: e.runID, Snapshot: snap})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, e.method, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	keys := make([]string, 0, len(e.headers))
	for k := range e.headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		req.Header.Set(k, e.headers[k])
	}

	logger.Debug("Making HTTP request.", "method", e.method, "url", e.url)
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	logger.Debug("Received HTTP response.", "status", resp.Status)

	switch {
	case resp.StatusCode == e.missingStatus:
		return fmt.Errorf("%w: %s", compute.ErrMissingArtifact, strings.TrimSpace(string(msg)))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("compute service returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

// Close releases idle connections.
func (e *Engine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// Register registers the engine factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEngine("http", &registry.RegisteredEngine{
		NewInput: func() any { return new(Input) },
		Create: func(ctx context.Context, env registry.Env, input any) (compute.Engine, error) {
			return NewEngine(input.(*Input), env.RunID)
		},
	})
}
