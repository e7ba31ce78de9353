// Package state holds the report currently on screen.
//
// # Overview
//
// Registry is the meeting point between the live channel (or the file
// watcher) and the UI. Producers replace the schema and snapshot; the UI and
// the render pipeline read them back through panel-scoped accessors.
//
//	Producer (live.Manager / watch):   Consumer (ui.Model / table.Pipeline):
//	┌──────────────────────┐          ┌──────────────────────┐
//	│ DecodeMessage()      │          │                      │
//	│      ↓               │          │                      │
//	│ reg.SetSnapshot()    │─────────→│ reg.Data(id)         │
//	│      ↓               │ (mutex)  │      ↓               │
//	│ program.Send(msg)    │          │ render visible panel │
//	└──────────────────────┘          └──────────────────────┘
//
// # Validity
//
// A panel is valid when its id is non-empty and it exists in both the schema
// and the snapshot. Panel, Data and ValidPanels only ever return valid panels,
// so an entry present on one side only never reaches navigation, tables or
// charts. The overall stats entry ("general") is never a panel.
//
// # Update Semantics
//
// Snapshots are replaced wholesale, never patched:
//
//	reg.SetSnapshot(snap)
//	→ snapshot = snap
//	→ version++
//	→ pending = true
//
// The pending flag lets the UI defer rendering while the terminal is
// unfocused and then render once against the latest snapshot with
// TakePending. Intermediate snapshots that arrived while unfocused are not
// replayed.
//
// # Concurrency Model
//
// Registry uses a readers-writer lock held only for pointer swaps. Schema and
// snapshot values are treated as immutable once stored; producers always hand
// over freshly decoded documents, so no defensive copy is made on read.
//
// Link carries the outward connection status (connected, connecting,
// disconnected, auth-failed, halted) for the header. It never carries raw
// transport errors.
//
// The zero Registry is ready to use.
package state
