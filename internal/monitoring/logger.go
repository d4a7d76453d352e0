// Package monitoring holds the process-wide diagnostic logger shared
// by the evaluation pipeline.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to
// log.Printf; quiet batch runs and tests replace it via SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
