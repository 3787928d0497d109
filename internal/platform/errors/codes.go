// Package errors provides structured errors with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidRunDate  Code = "INVALID_RUN_DATE"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeMethodNotAllow  Code = "METHOD_NOT_ALLOWED"

	// Lifecycle errors
	CodeCompanionNotFound    Code = "COMPANION_NOT_FOUND"
	CodeCompanionDead        Code = "COMPANION_DEAD"
	CodeEvolutionPathMissing Code = "EVOLUTION_PATH_MISSING"
	CodeBatchInProgress      Code = "BATCH_IN_PROGRESS"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeStorage  Code = "STORAGE_FAILURE"
)

// HTTPStatus maps the code to the HTTP status reported by the cron endpoint.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidRunDate:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeMethodNotAllow:
		return http.StatusMethodNotAllowed
	case CodeCompanionNotFound, CodeNotFound, CodeEvolutionPathMissing:
		return http.StatusNotFound
	case CodeCompanionDead, CodeBatchInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
