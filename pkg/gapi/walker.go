package gapi

import (
	"context"
	"strconv"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/discovery"
)

// WalkOption tunes a page iterator before its first fetch.
type WalkOption func(*PageIterator)

// WithPageSize binds the method's page-size parameter for every fetched
// page. Methods without a page-size convention ignore it.
func WithPageSize(n int) WalkOption {
	return func(it *PageIterator) { it.pageSize = n }
}

// PageIterator yields the items of a paginated method one at a time,
// fetching pages lazily. Construction performs no I/O: the first page is
// requested by the first Next. An iterator is single-goroutine; share
// results, not iterators.
type PageIterator struct {
	client *Client
	schema *discovery.MethodSchema
	plan   *RequestPlan

	pageSize int

	buf  []any
	pos  int
	done bool
	err  error
}

// Walk builds an iterator over a paginated method. Non-paginated methods
// fail with NotPaginatedError before any traffic.
func (c *Client) Walk(ref string, args Args, opts ...WalkOption) (*PageIterator, error) {
	plan, err := c.Plan(ref, args)
	if err != nil {
		return nil, err
	}
	schema := plan.Schema
	if !schema.Paginated() {
		return nil, &NotPaginatedError{Method: schema.Ref()}
	}
	it := &PageIterator{client: c, schema: schema, plan: plan}
	for _, opt := range opts {
		opt(it)
	}
	if it.pageSize > 0 && schema.PageSizeParam != "" {
		plan.SetQuery(schema.PageSizeParam, strconv.Itoa(it.pageSize))
	}
	return it, nil
}

// Next returns the next item, fetching the next page when the buffered
// one is exhausted. It returns Done after the final item of the final
// page. Once Next fails, the iterator is spent: every later call returns
// the same error without touching the network.
func (it *PageIterator) Next(ctx context.Context) (any, error) {
	if it.err != nil {
		return nil, it.err
	}
	for it.pos >= len(it.buf) {
		if it.done {
			it.err = Done
			return nil, it.err
		}
		if err := it.fetch(ctx); err != nil {
			it.err = err
			return nil, it.err
		}
	}
	item := it.buf[it.pos]
	it.pos++
	return item, nil
}

// fetch requests the next page and rebinds the continuation token.
// An empty page with a token present keeps walking; a page without a
// token is the last.
func (it *PageIterator) fetch(ctx context.Context) error {
	resp, err := it.client.Execute(ctx, it.plan)
	if err != nil {
		return err
	}

	it.buf = it.buf[:0]
	it.pos = 0
	if resp.Body != nil {
		if items, ok := resp.Body[it.schema.ItemsField].([]any); ok {
			it.buf = append(it.buf, items...)
		}
	}

	token := ""
	if resp.Body != nil {
		token, _ = resp.Body[it.schema.NextTokenField].(string)
	}
	if token == "" {
		it.done = true
		return nil
	}
	it.plan.SetQuery(it.schema.PageTokenParam, token)
	return nil
}

// Collect drains the iterator into a slice. On failure it returns the
// items gathered so far alongside the error.
func (it *PageIterator) Collect(ctx context.Context) ([]any, error) {
	var out []any
	for {
		item, err := it.Next(ctx)
		if err == Done {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
}
