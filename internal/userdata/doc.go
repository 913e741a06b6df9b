// Package userdata resolves the on-disk layout of a concierge installation:
// the home root, the modules root new modules are cloned into, the root path
// holding the bundled defaults.json, and the run log directory. Every location
// can be overridden with a CONCIERGE_* environment variable.
package userdata
