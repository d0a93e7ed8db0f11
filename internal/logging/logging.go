// Package logging centralizes the debug-printf pattern the teacher
// repo repeats in every package (Paxos.x, KVPaxos.log, the package-level
// DPrintf helpers gated on a Debug constant): one place that decides
// whether debug output is enabled, instead of a recompiled constant
// per package. Since this process is long-running, verbosity is an
// environment variable rather than a build-time constant.
package logging

import (
	"log"
	"os"
)

var debug = os.Getenv("PAXKV_DEBUG") != ""

// Debugf logs a formatted debug line when PAXKV_DEBUG is set. Callers
// should only pay for the format work when debug is on, mirroring the
// teacher's "if Debug > 0" guard.
func Debugf(format string, args ...interface{}) {
	if debug {
		log.Printf("DEBUG "+format, args...)
	}
}

// Errorf always logs; it's for conditions the propagation policy
// requires to be logged and dropped (decode errors, storage errors).
func Errorf(format string, args ...interface{}) {
	log.Printf("ERROR "+format, args...)
}

// Infof always logs; for daemon lifecycle events (startup, shutdown,
// listener bound).
func Infof(format string, args ...interface{}) {
	log.Printf("INFO "+format, args...)
}
