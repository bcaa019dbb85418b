// Command checkpoint creates, restores and deletes encrypted snapshots of a
// project directory.
//
//	checkpoint init   -p ./project
//	checkpoint create -p ./project -n before-refactor
//	checkpoint restore -p ./project -n before-refactor
//
// The single-entry form "checkpoint -a create -n NAME -p PATH" is accepted as
// well.
package main
