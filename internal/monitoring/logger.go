// Package monitoring holds the grader's diagnostic logger.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Infof logs a progress message.
func Infof(format string, v ...interface{}) {
	Logf(format, v...)
}

// Warnf logs a recoverable problem, such as a submission frame that is
// missing or unreadable and has been scored as zero.
func Warnf(format string, v ...interface{}) {
	Logf("[warn] "+format, v...)
}
