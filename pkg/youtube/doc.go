// Package youtube wraps the YouTube Data v3 list methods of the generic
// gapi client. Videos and Channels fan large id sets out over the
// provider's 50-id-per-call limit and return items in the caller's id
// order; PlaylistItems walks a playlist page by page.
package youtube
