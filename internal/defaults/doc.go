// Package defaults decides which modules a fresh installation should get.
//
// The install list comes from the first source in a fixed chain that yields
// a non-empty list: the bundled defaults.json, the global "defaults" config
// scope, the bootstrap unit's own scope, the CONCIERGE_DEFAULTS environment
// variable, and finally a remote wiki page whose table is parsed by
// ParseTable. Sources are evaluated lazily, so the network is only touched
// when every local source came up empty.
package defaults
