// Package sync implements the state-synchronization engine that keeps local
// settings and the remote ticker display consistent.
//
// # Overview
//
// The Controller owns a single run-loop goroutine. Everything that can change
// the session (scheduler ticks, local edits, fetch completions, push
// completions, timer expiries) arrives as an event on that loop, so the
// session has exactly one writer. Readers on other goroutines observe it
// through an internal/state.Store snapshot published after every change.
//
// # Polling Scheduler
//
// State fetch cadence adapts to the active display mode:
//
//	live, music, flights, flight_tracker    1s
//	sports, my_teams                        5s
//	stocks                                  30s
//	weather, clock                          600s
//
// A local mode switch opens a 30s burst window that pins slower modes to the
// fast tier, so the user sees the display react to the change. The device
// roster refreshes on its own fixed 30s cadence, independent of mode.
//
// # Edit Gate
//
// Local edits run through an optimistic lock so a stale poll can never revert
// what the user just typed:
//
//	Idle ──edit──> Editing ──debounce──> Saving ──push done──> Unlocking ──grace──> Idle
//	  ^               ^  ^                  │                      │
//	  │               │  └──────edit────────┘                      │
//	  └───────────────┴────────────edit────────────────────────────┘
//
// While the gate is held, incoming snapshots are discarded and the poll clock
// is not advanced. Each edit restarts the 1.5s debounce; when it fires, the
// settings are serialized once and pushed. Edits that land during Saving or
// Unlocking supersede the in-flight push (which still runs to completion) and
// re-arm the debounce. After the push settles, a short grace hold (300ms
// inside a burst window, 2.5s otherwise) keeps the gate closed so the forced
// reconciliation fetch that follows reflects the write.
//
// A debounced body that hashes to the last acknowledged push is skipped
// entirely. A push that fails in transport is never resent; reconciliation
// reveals whether it landed. A push rejected as forbidden clears the pairing
// through internal/pairing and is never retried.
//
// # Components
//
//   - scheduler.go: due-time rules for state and roster fetches
//   - gate.go: the edit-lock state machine
//   - controller.go: the run loop, events, and public operations
package sync
