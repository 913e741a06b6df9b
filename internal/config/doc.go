// Package config loads the first-run settings from ~/.concierge/config.yaml,
// an optional .env file next to the installation root, and CONCIERGE_*
// environment variables. It also exposes the scoped sections the host uses
// to hand a module its own configuration (the "defaults" scope and the
// bootstrap unit's scope).
package config
