package db

import (
	"strings"
	"time"

	"github.com/banshee-data/bev-grader/internal/timeutil"
)

const (
	maxBusyAttempts  = 5
	initialBusyDelay = 10 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn until it succeeds, fails with a non-busy error, or
// maxBusyAttempts is reached, doubling the delay between attempts.
func retryOnBusy(clock timeutil.Clock, fn func() error) error {
	delay := initialBusyDelay
	var err error
	for attempt := 1; attempt <= maxBusyAttempts; attempt++ {
		err = fn()
		if !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyAttempts {
			clock.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
