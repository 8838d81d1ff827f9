// Package sheets wraps the Sheets v4 value and spreadsheet methods of
// the generic gapi client with typed helpers: batch reads and writes of
// cell ranges, appends, clears, and spreadsheet-level metadata and
// structural updates.
package sheets
