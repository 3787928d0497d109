// Package app runs the daily companion lifecycle batch and exposes it over
// HTTP, a cron scheduler and a gRPC health endpoint.
package app
