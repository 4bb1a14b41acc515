// Package monitoring holds the process-wide log sinks used by the simulation
// packages. Both sinks are plain printf-style functions so tests can capture
// or mute them without pulling in a logging framework.
package monitoring

import "log"

// Logf receives operational messages: world generation, run lifecycle,
// store and server events. It defaults to log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// Diagf receives per-tick diagnostics (scan and localisation detail). It is
// muted until SetDiagLogger installs a sink, since a session emits one or
// more lines per step.
var Diagf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// SetLogger replaces the operational logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	Logf = orNoop(f)
}

// SetDiagLogger replaces the diagnostic logger. Passing nil mutes it again.
func SetDiagLogger(f func(format string, v ...interface{})) {
	Diagf = orNoop(f)
}

// Mute silences both sinks and returns a func restoring the previous ones.
func Mute() (restore func()) {
	prevLog, prevDiag := Logf, Diagf
	SetLogger(nil)
	SetDiagLogger(nil)
	return func() {
		Logf, Diagf = prevLog, prevDiag
	}
}

func orNoop(f func(format string, v ...interface{})) func(format string, v ...interface{}) {
	if f == nil {
		return func(string, ...interface{}) {}
	}
	return f
}
