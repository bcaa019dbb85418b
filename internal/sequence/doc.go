// Package sequence runs ordered chains of named steps.
//
// Steps are registered explicitly with an integer order and run strictly one
// after another, highest order first by default. A step may receive the
// previous step's result. The first failure aborts the run and is returned as
// a *StepError carrying the step's display name. Progress is reported through
// injected Observers rather than shared global state, and an end hook runs
// after every execution whether it succeeded or not.
package sequence
