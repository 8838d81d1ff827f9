package gapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request is the normalized form of one provider call: everything the
// transport needs, already decoded. The transport owns serialization,
// connection pooling, and TLS.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// Response is the normalized, already-decoded provider response. A 204
// response carries a nil Body.
type Response struct {
	StatusCode int
	Body       map[string]any
}

// Transport executes one normalized request. Implementations return a
// *ProviderError for non-2xx statuses so the retry layer can classify
// them; connection-level failures are returned as-is and treated as
// transient.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the default Transport over net/http.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport builds the default transport.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{Client: &http.Client{Timeout: 60 * time.Second}}
}

// RoundTrip serializes and executes the request and decodes the response.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	endpoint := req.URL
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = vs
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, DecodeProviderError(resp.StatusCode, respBody)
	}

	if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return &Response{StatusCode: resp.StatusCode}, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: decoded}, nil
}

// DecodeProviderError builds a ProviderError from a non-2xx response
// body, extracting the Google error envelope
// {"error": {"code": ..., "message": ...}} when present. Exposed for
// callers that issue raw authorized requests beside the schema'd client,
// such as Drive media transfers.
func DecodeProviderError(status int, body []byte) *ProviderError {
	perr := &ProviderError{StatusCode: status}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		perr.Message = envelope.Error.Message
	} else if len(body) > 0 {
		perr.Message = strings.TrimSpace(string(body))
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		perr.Body = raw
	}
	return perr
}

// providerErrorFromBody builds a ProviderError from an already-decoded
// error body, as carried by batch envelope entries.
func providerErrorFromBody(status int, body map[string]any) *ProviderError {
	perr := &ProviderError{StatusCode: status, Body: body}
	if envelope, ok := body["error"].(map[string]any); ok {
		perr.Message, _ = envelope["message"].(string)
	}
	return perr
}
