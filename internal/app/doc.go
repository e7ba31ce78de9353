// Package app is the composition root of glance.
//
// # Overview
//
// Run builds a Context from the loaded configuration, loads any report
// files, then supervises three goroutines with an errgroup:
//
//   - the Bubble Tea program
//   - the live channel manager, when a channel URL is configured
//   - the file watcher, when report files are watched instead
//
// Quitting the UI cancels the feeds; a feed error cancels the UI.
//
// # Data Flow
//
//	live.Manager ──OnMessage──> Context.Apply ──> state.Registry
//	                                         └──> program.Send(SnapshotMsg)
//	live.Manager ──OnStatus───> Registry.SetLink ──> program.Send(LinkMsg)
//	watch.Watcher ─────────────> Context.LoadFiles ──> program.Send(SnapshotMsg)
//
// The UI never reads the network or the filesystem. It takes the pending
// snapshot from the registry when it is focused and a SnapshotMsg arrives.
//
// # Errors
//
// Startup failures are returned from Run: unreadable config, a broken
// report file, an invalid channel URL or unusable preference storage.
// Undecodable live messages and half-written watched files are logged and
// skipped.
package app
