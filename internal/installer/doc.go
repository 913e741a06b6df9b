// Package installer clones default modules into the modules root and reports
// the version each one declares. A batch install runs every entry at once and
// returns only after the slowest has settled; one bad entry never stops the
// others.
package installer
