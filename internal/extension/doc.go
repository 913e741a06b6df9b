// Package extension places module repositories on disk. A clone is staged in
// a hidden sibling ".tmp" directory and renamed into place only when git succeeds,
// so a failed or timed-out clone never leaves a half-populated module
// directory behind.
package extension
