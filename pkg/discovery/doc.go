// Package discovery loads Google API Discovery documents and compiles them
// into an immutable method catalog.
//
// A Discovery document describes one remote API: its base URL, its resource
// tree, and for every method the HTTP verb, URL template, and recognized
// parameters. Instead of generating per-API bindings from those documents,
// this package parses each document once at startup into a lookup keyed by
// method reference, so that a single generic client can validate and route
// arguments for any method at call time.
//
// # Method references
//
// Methods are addressed with the same dotted reference syntax the documents
// themselves use for method IDs, prefixed with the service and version:
//
//	drive:v3.files.list
//	sheets:v4.spreadsheets.values.batchGet
//	youtube:v3.playlistItems.list
//
// Nested resources ("spreadsheets.values") traverse the document's resource
// tree segment by segment.
//
// # Conventions
//
// The three API families differ silently in their pagination and batching
// surface: the page-token parameter name, the response field carrying the
// continuation token, the field carrying result items, and the batch
// endpoint and its sub-request limit. Those per-service facts are data, not
// code: a Conventions table (defaults compiled in, overridable from YAML)
// supplies them, and the compiled MethodSchema carries the resolved values
// so that callers never branch on the service name.
//
// # Usage
//
//	catalog, err := discovery.EmbeddedCatalog()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	schema, err := catalog.Describe("drive:v3.files.list")
package discovery
