// Package checkpoint creates, restores and deletes encrypted snapshots of a
// project directory.
//
// Every operation runs as a sequence. Create splices the IO sequence (walk,
// group, resolve readers, read, encrypt) ahead of a persist step; the other
// operations are single-step sequences. On disk a project looks like:
//
//	<root>/.checkpoint/.config             project config
//	<root>/.checkpoint/crypt.key           encryption key
//	<root>/.checkpoint/history.db          operation journal
//	<root>/.checkpoint/<name>/<name>.json  manifest: path -> token
//	<root>/.checkpoint/<name>/.metadata    directory -> files
//
// Restore overwrites every file in the manifest but never removes files that
// were created after the checkpoint. Operations take no lock; running two of
// them against the same root at once is the caller's problem.
package checkpoint
