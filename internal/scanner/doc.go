// Package scanner enumerates the files beneath a project root.
//
// A Scanner walks lazily and can be re-walked any number of times. Directories
// are skipped when their path contains any configured ignore fragment as a
// plain substring, so a fragment like ".git" also hides ".github".
package scanner
