package gapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// BatchOp is one method invocation inside a batch submission.
type BatchOp struct {
	Method string
	Args   Args
}

// BatchResult is the outcome of one batch operation. Exactly one of
// Response and Err is set.
type BatchResult struct {
	Op       BatchOp
	Response *Response
	Err      error
}

// BatchResults holds per-operation outcomes in the same order the
// operations were submitted.
type BatchResults []BatchResult

// Failed counts the operations that ended in an error.
func (rs BatchResults) Failed() int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Err returns a PartialBatchFailure when any operation failed, nil when
// every operation succeeded.
func (rs BatchResults) Err() error {
	if n := rs.Failed(); n > 0 {
		return &PartialBatchFailure{Results: rs, Failed: n}
	}
	return nil
}

type plannedOp struct {
	index int
	plan  *RequestPlan
}

// BatchOption tunes one batch submission.
type BatchOption func(*batchConfig)

type batchConfig struct {
	batchOnly bool
}

// BatchOnly rejects submissions containing operations whose service has
// no batch endpoint, instead of dispatching them as sequential calls.
func BatchOnly() BatchOption {
	return func(cfg *batchConfig) { cfg.batchOnly = true }
}

// Batch executes a set of operations, multiplexing the batchable ones
// through their service's batch endpoint and dispatching the rest as
// ordinary sequential calls.
//
// Planning is all-or-nothing: an unknown method, a capability denial, or
// a routing error on any operation fails the whole submission before a
// single request is sent. Execution failures never do; they land in the
// per-operation results, and BatchResults.Err surfaces them as a
// PartialBatchFailure.
func (c *Client) Batch(ctx context.Context, ops []BatchOp, opts ...BatchOption) (BatchResults, error) {
	var cfg batchConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	planned := make([]plannedOp, len(ops))
	for i, op := range ops {
		plan, err := c.Plan(op.Method, op.Args)
		if err != nil {
			return nil, fmt.Errorf("batch operation %d (%s): %w", i, op.Method, err)
		}
		if cfg.batchOnly && !plan.Schema.Batchable {
			return nil, fmt.Errorf("batch operation %d: %w",
				i, &NotBatchableError{Method: plan.Schema.Ref()})
		}
		planned[i] = plannedOp{index: i, plan: plan}
	}

	results := make(BatchResults, len(ops))
	for i, op := range ops {
		results[i].Op = op
	}

	// Group batchable operations by service, keeping first-appearance
	// order so envelopes go out in a predictable sequence.
	groups := make(map[string][]plannedOp)
	var groupOrder []string
	var singles []plannedOp
	for _, p := range planned {
		schema := p.plan.Schema
		if !schema.Batchable {
			singles = append(singles, p)
			continue
		}
		key := schema.Service + ":" + schema.Version
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], p)
	}

	for _, key := range groupOrder {
		group := groups[key]
		limit := group[0].plan.Schema.BatchLimit
		if limit < 1 {
			limit = len(group)
		}
		for start := 0; start < len(group); start += limit {
			end := start + limit
			if end > len(group) {
				end = len(group)
			}
			c.sendEnvelope(ctx, group[start:end], results)
		}
	}

	for _, p := range singles {
		resp, err := c.Execute(ctx, p.plan)
		results[p.index].Response = resp
		results[p.index].Err = err
	}

	return results, nil
}

// sendEnvelope multiplexes one chunk of same-service operations through
// the service's batch endpoint, correlating the per-operation responses
// back to their slots by generated id. An envelope-level failure is
// recorded against every operation in the chunk.
func (c *Client) sendEnvelope(ctx context.Context, chunk []plannedOp, results BatchResults) {
	schema := chunk[0].plan.Schema
	endpoint, err := batchEndpoint(schema.BaseURL, schema.BatchPath)
	if err != nil {
		for _, p := range chunk {
			results[p.index].Err = err
		}
		return
	}

	ids := make(map[string]int, len(chunk))
	requests := make([]map[string]any, 0, len(chunk))
	for _, p := range chunk {
		id := uuid.NewString()
		ids[id] = p.index
		entry := map[string]any{
			"id":     id,
			"method": p.plan.Schema.HTTPVerb,
			"path":   relativeURL(p.plan),
		}
		if p.plan.Body != nil {
			entry["body"] = p.plan.Body
		}
		requests = append(requests, entry)
	}

	header, err := c.capability.Headers(ctx)
	if err != nil {
		for _, p := range chunk {
			results[p.index].Err = err
		}
		return
	}
	resp, err := c.do(ctx, &Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: header,
		Body:   map[string]any{"requests": requests},
	})
	if err != nil {
		for _, p := range chunk {
			results[p.index].Err = err
		}
		return
	}

	entries, _ := resp.Body["responses"].([]any)
	seen := make(map[int]bool, len(chunk))
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := entry["id"].(string)
		index, ok := ids[id]
		if !ok {
			continue
		}
		seen[index] = true
		status := http.StatusOK
		if s, ok := entry["status"].(float64); ok {
			status = int(s)
		}
		body, _ := entry["body"].(map[string]any)
		if status >= 200 && status < 300 {
			results[index].Response = &Response{StatusCode: status, Body: body}
			continue
		}
		results[index].Err = providerErrorFromBody(status, body)
	}
	for _, p := range chunk {
		if !seen[p.index] {
			results[p.index].Err = fmt.Errorf(
				"batch envelope: no response for operation %d (%s)", p.index, p.plan.Schema.Ref())
		}
	}
}

// batchEndpoint joins a service's batch path onto the scheme and host of
// its base URL.
func batchEndpoint(baseURL, batchPath string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("batch endpoint: %w", err)
	}
	return u.Scheme + "://" + u.Host + "/" + strings.TrimPrefix(batchPath, "/"), nil
}

// relativeURL renders a plan's target as the host-relative form batch
// envelope entries carry.
func relativeURL(plan *RequestPlan) string {
	full := plan.URL()
	rel := full
	if u, err := url.Parse(full); err == nil {
		rel = u.EscapedPath()
	}
	if q := plan.Query.Encode(); q != "" {
		rel += "?" + q
	}
	return rel
}
