// Package timeouts defines shared timeout constants used across kindred
// commands so server and client boundaries agree on the same durations.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work during graceful
// shutdown.
const Shutdown = 5 * time.Second

// SchedulerStop caps how long the daily scheduler waits for a running batch
// when the process is stopping.
const SchedulerStop = 30 * time.Second

// BatchRun bounds a single daily batch invocation.
const BatchRun = 30 * time.Minute
