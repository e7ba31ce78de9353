// Package table builds the display model of a panel table.
//
// Render sorts the panel's rows (the active override, else the schema
// default), pages the top-level rows, splices the children of expanded rows
// under their parents and drops hidden columns. Children never count toward a
// page's size. An empty panel yields a single placeholder row.
//
// Page, sort and expansion state live in a PanelState per panel, created on
// first render and kept across snapshot replacement. The requested page is
// clamped on every render so shrinking data never produces an error.
package table
