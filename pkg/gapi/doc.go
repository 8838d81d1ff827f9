// Package gapi is a schema-driven generic client for Google-style HTTP
// APIs. Instead of generated per-API bindings, it validates and routes
// arbitrary keyword arguments against a Discovery-document catalog
// (pkg/discovery), authenticates through a resolved capability (pkg/auth),
// and drives pagination and batching uniformly across APIs with different
// conventions.
//
// A call names its method with the dotted reference syntax and supplies a
// bag of arguments:
//
//	resp, err := client.Call(ctx, "drive:v3.files.get", gapi.Args{
//	    "fileId": "1a2b3c4d5e6f",
//	    "fields": "id,name,mimeType",
//	})
//
// Every argument is checked against the method's schema before any network
// I/O: unknown names, missing required parameters, and unbound URL template
// placeholders all fail locally. Each accepted argument is routed to
// exactly one transport location (URL path segment, query string, or JSON
// body field).
//
// List-shaped methods are traversed with Walk, which yields items in strict
// response order across pages and is explicitly single-pass: a second
// traversal requires a fresh Walk call, since replaying pages would re-hit
// the network and could observe different provider state. Batch groups
// batchable operations of one API family into the fewest envelope calls the
// schema's sub-request limit allows and returns per-operation results in
// input order, with partial failure as a first-class outcome.
//
// Transient transport failures (429, 5xx, connection errors) are retried
// with bounded exponential backoff and jitter; authorization and validation
// failures are never retried.
package gapi
