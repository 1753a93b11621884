package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ai-arena/internal/decision/schema"
)

const maxResponseBytes = 1 << 20

// HTTPProvider posts each Request as JSON to an external endpoint and validates the
// response body against the decision response schema before decoding it.
type HTTPProvider struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	schema   *jsonschema.Schema
}

func NewHTTPProvider(endpoint string, headers map[string]string, timeout time.Duration) (*HTTPProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("decision endpoint is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	compiled, err := jsonschema.CompileString(schema.DecisionResponseV1Name, schema.DecisionResponseV1)
	if err != nil {
		return nil, fmt.Errorf("compile decision schema: %w", err)
	}
	return &HTTPProvider{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
		schema:   compiled,
	}, nil
}

func (p *HTTPProvider) Decide(ctx context.Context, req Request) (Response, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(raw))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("decision provider returned status %d", resp.StatusCode)
	}
	return p.decode(body)
}

func (p *HTTPProvider) decode(body []byte) (Response, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := p.schema.Validate(doc); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return out, nil
}
