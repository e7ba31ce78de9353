// Package ui implements the glance terminal interface on Bubble Tea.
//
// The Model reads report state from a state.Registry, renders the current
// panel through the table pipeline and the chart synchronizer, and writes
// user choices to the preference store. Rendering is a pure function of the
// view models: the same table.View and chart.Series produce the same frame.
//
// # Updates
//
// Other goroutines never touch the model. The composition root sends a
// SnapshotMsg after it stores a snapshot in the registry and a LinkMsg when
// the live channel changes state. While the terminal reports lost focus,
// snapshots stay pending in the registry; regaining focus renders the latest
// one once. Off-screen charts are only marked dirty and repaint when their
// panel is selected.
//
// # Layout
//
//	header        logo, link badge, retries, source, last update
//	overall       summary strip when the report defines one
//	nav | panel   panel list beside the current panel (chart above table)
//	command bar   key hints and transient messages
//
// Below LayoutCompactWidth columns, or with the vertical layout preference,
// the panel list becomes a one-line strip. With autoHideTables on, terminals
// narrower than AutoHideWidth show charts only.
//
// # Keys
//
// Bindings live in keys.go and are matched with key.Matches. The help
// overlay (?) lists them by group. Panel moves, hidden panels, page size,
// hidden columns, chart metric and type, theme and layout persist through
// the preference store. Row expansion, page and sort are per session.
package ui
