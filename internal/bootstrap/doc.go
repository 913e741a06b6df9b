// Package bootstrap drives the first-run sequence: resolve a defaults list,
// install every entry, then hand control back to the host and remove the
// bootstrap unit from disk.
//
// The controller moves through these states:
//
//	Idle -> ResolvingDefaults -> Installing -> Cleanup -> Done
//	                   \
//	                    -> Aborted (no defaults list available)
//
// A controller runs at most once.
package bootstrap
