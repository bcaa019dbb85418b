// Package readers classifies files by extension and reads them through a
// closed set of reader variants (text, image, byte) registered once at
// startup.
//
// Extensions with no registered reader are dropped from a run with a warning.
// Probing an unknown extension against every reader is available but off by
// default.
package readers
