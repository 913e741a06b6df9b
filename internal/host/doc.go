// Package host is a minimal module host over a modules root directory. Every
// subdirectory holding a readable descriptor counts as a module.
package host
