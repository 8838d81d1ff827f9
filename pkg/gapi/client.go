package gapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/auth"
	"github.com/wilsonkkyip/google-apis-go-client/pkg/discovery"
)

// RetryPolicy bounds the client's retry loop for transient failures.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, the first call included.
	MaxAttempts int

	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the policy clients use unless overridden.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     4,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     8 * time.Second,
	}
}

// Validate ensures the policy can drive at least one attempt.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy: MaxAttempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.InitialInterval <= 0 {
		return fmt.Errorf("retry policy: InitialInterval must be positive")
	}
	return nil
}

// Client executes catalog methods against the provider. Every call passes
// the same gate sequence: schema lookup, capability check, parameter
// routing, then transport with retry. A Client is safe for concurrent use.
type Client struct {
	catalog    *discovery.Catalog
	capability *auth.Capability
	transport  Transport
	retry      RetryPolicy
	logger     hclog.Logger
}

// ClientOption mutates a Client during construction.
type ClientOption func(*Client)

// WithTransport replaces the HTTP transport, used by tests to substitute
// a recording fake.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) { c.transport = t }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) { c.retry = p }
}

// WithClientLogger attaches a logger for per-call diagnostics.
func WithClientLogger(l hclog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client over a compiled catalog and a resolved
// capability.
func NewClient(catalog *discovery.Catalog, capability *auth.Capability, opts ...ClientOption) (*Client, error) {
	c := &Client{
		catalog:    catalog,
		capability: capability,
		transport:  NewHTTPTransport(),
		retry:      DefaultRetryPolicy(),
		logger:     hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.retry.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Catalog returns the schema catalog the client resolves methods against.
func (c *Client) Catalog() *discovery.Catalog { return c.catalog }

// Capability returns the resolved capability gating the client's calls.
func (c *Client) Capability() *auth.Capability { return c.capability }

// Call executes one catalog method by reference. The capability gate runs
// before any argument routing or network traffic: a disallowed call
// performs zero I/O.
func (c *Client) Call(ctx context.Context, ref string, args Args) (*Response, error) {
	plan, err := c.Plan(ref, args)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, plan)
}

// Plan resolves and gates a method reference and routes its arguments,
// without executing anything. The batch coordinator uses this to fail a
// whole submission before the first request leaves the process.
func (c *Client) Plan(ref string, args Args) (*RequestPlan, error) {
	schema, err := c.catalog.Describe(ref)
	if err != nil {
		return nil, err
	}
	family, ok := auth.FamilyForService(schema.Service)
	if !ok {
		return nil, fmt.Errorf("method %s: no capability family for service %q", ref, schema.Service)
	}
	if err := c.capability.Allows(family, ref, schema.Mutating()); err != nil {
		return nil, err
	}
	return BuildPlan(schema, args)
}

// Execute sends a previously built plan. Credentials are consulted at
// send time, so a token that expired since the plan was built is
// refreshed before the request goes out.
func (c *Client) Execute(ctx context.Context, plan *RequestPlan) (*Response, error) {
	header, err := c.capability.Headers(ctx)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, plan.Request(header))
}

// do runs one transport request under the retry policy. Provider errors
// that are not temporary stop the loop immediately; everything else is
// retried with exponential backoff until the attempt budget runs out, at
// which point the last failure is reported as a TransientTransportError.
func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.InitialInterval
	policy.MaxInterval = c.retry.MaxInterval

	var (
		resp     *Response
		attempts int
	)
	operation := func() error {
		attempts++
		r, err := c.transport.RoundTrip(ctx, req)
		if err != nil {
			var pe *ProviderError
			if errors.As(err, &pe) && !pe.Temporary() {
				return backoff.Permanent(err)
			}
			c.logger.Debug("retryable failure",
				"method", req.Method, "url", req.URL, "attempt", attempts, "error", err)
			return err
		}
		resp = r
		return nil
	}

	limiter := backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(c.retry.MaxAttempts-1)), ctx)
	if err := backoff.Retry(operation, limiter); err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && !pe.Temporary() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("call %s %s: %w", req.Method, req.URL, ctx.Err())
		}
		return nil, &TransientTransportError{Attempts: attempts, Err: err}
	}
	return resp, nil
}
