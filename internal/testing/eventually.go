// Package pstesting holds small helpers shared by the test suites.
package pstesting

import (
	"testing"
	"time"
)

// Eventually polls condition until it returns true or timeout elapses,
// failing the test on timeout.
func Eventually(t testing.TB, timeout, interval time.Duration, condition func() bool, msg ...string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	if condition() {
		return
	}
	if len(msg) > 0 {
		t.Fatalf("condition not met within %v: %s", timeout, msg[0])
	}
	t.Fatalf("condition not met within %v", timeout)
}
