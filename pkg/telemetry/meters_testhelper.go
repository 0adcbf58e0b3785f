package telemetry

import "sync"

// ResetMetersForTest clears cached meter instruments so tests can
// reinitialize them against a fresh MeterProvider. This is intended for
// use in test code only.
func ResetMetersForTest() {
	metersOnce = sync.Once{}
	metersInitErr = nil
	redactionCallCounter = nil
	redactionSpanCounter = nil
	redactionLatency = nil
	restoreCallCounter = nil
	auditVerdictCounter = nil
}
