package gapi

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/auth"
	"github.com/wilsonkkyip/google-apis-go-client/pkg/discovery"
)

// fakeTransport records every request and answers them through a
// caller-supplied handler.
type fakeTransport struct {
	mu       sync.Mutex
	requests []*Request
	handler  func(req *Request) (*Response, error)
}

func (t *fakeTransport) RoundTrip(_ context.Context, req *Request) (*Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()
	return t.handler(req)
}

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

func (t *fakeTransport) request(i int) *Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requests[i]
}

func fullCapability(t *testing.T) *auth.Capability {
	t.Helper()
	capability, err := auth.StaticTokenCapability("test-token", []string{
		"https://www.googleapis.com/auth/drive",
		"https://www.googleapis.com/auth/youtube",
	})
	require.NoError(t, err)
	return capability
}

func apiKeyCapability(t *testing.T) *auth.Capability {
	t.Helper()
	capability, err := auth.NewResolver().Resolve(
		context.Background(), auth.APIKeyCredential("test-key"))
	require.NoError(t, err)
	return capability
}

// fastRetry keeps retry-path tests from sleeping.
func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}
}

func newTestClient(t *testing.T, capability *auth.Capability, handler func(req *Request) (*Response, error)) (*Client, *fakeTransport) {
	t.Helper()
	catalog, err := discovery.EmbeddedCatalog()
	require.NoError(t, err)

	transport := &fakeTransport{handler: handler}
	client, err := NewClient(catalog, capability,
		WithTransport(transport),
		WithRetryPolicy(fastRetry(3)))
	require.NoError(t, err)
	return client, transport
}

func okHandler(body map[string]any) func(req *Request) (*Response, error) {
	return func(*Request) (*Response, error) {
		return &Response{StatusCode: 200, Body: body}, nil
	}
}

func mustSchema(t *testing.T, ref string) *discovery.MethodSchema {
	t.Helper()
	catalog, err := discovery.EmbeddedCatalog()
	require.NoError(t, err)
	schema, err := catalog.Describe(ref)
	require.NoError(t, err)
	return schema
}
