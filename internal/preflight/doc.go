// Package preflight provides readiness checks for the binaries, directories
// and services bsrbot depends on.
//
// The run command executes RunAll before touching the headset and refuses to
// start when a required check fails; `bsrbot check` renders the same results
// for the operator. Each check returns a Result rather than an error so the
// full report can be shown at once.
package preflight
