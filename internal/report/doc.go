// Package report models the two documents a report is made of: the UI schema
// describing each panel and the data snapshot holding its rows.
//
// Schemas keep the key order of the source document, because panel order in
// the navigation follows it. Snapshots are replaced wholesale on every update
// and never patched.
//
// Cell values are a small tagged union (see Value) so callers extract counts
// explicitly instead of probing shapes at runtime. Rows recurse through
// Children; a row's Key hashes its primary label and serves as the expansion
// identity used by tables and charts.
package report
