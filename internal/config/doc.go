// Package config loads, normalizes, and validates checkpoint tool settings.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as CHECKPOINT_LOG_LEVEL.
// The Config type centralizes the knobs the sequences and the CLI need:
// default ignore fragments, reader worker counts, encryption iterations, the
// IO permission mode, and log output.
//
// Project-level state (the checkpoint list, current checkpoint, root path)
// is not stored here; it lives in the JSON record inside each project's
// hidden checkpoint directory.
package config
