// Package services defines shared utilities consumed by the checkpoint
// sequences and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, step names, and checkpoint
//     names for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     configuration errors, precondition violations, or missing state.
//
// Use these helpers when wiring new sequence steps so operational behaviour
// (error classification, observability) stays uniform across the tool.
package services
