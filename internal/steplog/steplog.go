// Package steplog provides tagged phase logging for the weekly batch run.
// Every phase emits a start line and a done/failed line with elapsed time,
// so a failed region or loader is visible in the log without a debugger.
package steplog

import (
	"log"
	"time"
)

// Start logs the beginning of a phase and returns a completion func.
// Call the returned func with the phase's final error (nil on success).
func Start(tag, msg string) func(error) {
	log.Printf("%s %s", tag, msg)
	t0 := time.Now()
	return func(err error) {
		elapsed := time.Since(t0).Round(10 * time.Millisecond)
		if err != nil {
			log.Printf("%s failed (%s): %v", tag, elapsed, err)
			return
		}
		log.Printf("%s done (%s)", tag, elapsed)
	}
}

// Infof logs an informational line under a tag.
func Infof(tag, format string, args ...interface{}) {
	log.Printf(tag+" "+format, args...)
}

// Warnf logs a warning line under a tag.
func Warnf(tag, format string, args ...interface{}) {
	log.Printf(tag+" WARNING: "+format, args...)
}

// Errorf logs an error line under a tag.
func Errorf(tag, format string, args ...interface{}) {
	log.Printf(tag+" ERROR: "+format, args...)
}
