package dto

import (
	"net/http"
	"strings"
)

// Error codes surfaced by the HTTP layer itself
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Stock shortfalls and batch references arrive in request bodies, so they
// report as 400 rather than 404 or 422.
var errorCodeHTTPStatus = map[string]int{
	"NOT_FOUND":                http.StatusNotFound,
	"ALREADY_EXISTS":           http.StatusConflict,
	"CONCURRENCY_CONFLICT":     http.StatusConflict,
	"INVALID_STATE":            http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":       http.StatusBadRequest,
	"INSUFFICIENT_BATCH_STOCK": http.StatusBadRequest,
	"BATCH_NOT_FOUND":          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	"INVALID_INPUT":            http.StatusBadRequest,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Validation codes follow the INVALID_<FIELD> convention and map to 400;
// anything unknown is treated as an internal error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
