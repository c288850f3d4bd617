package access

import (
	"net/http"

	"github.com/Abraxas-365/cae/pkg/errx"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("ACCESS")

// Error codes
var (
	CodeAccessLogNotFound = ErrRegistry.Register("LOG_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Access log not found")
	CodeInvalidRequest    = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid access data")
	CodeInvalidDirection  = ErrRegistry.Register("INVALID_DIRECTION", errx.TypeValidation, http.StatusBadRequest, "Direction must be ENTRY or EXIT")
	CodeSiteRequired      = ErrRegistry.Register("SITE_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "A site is required")
)

// Helper functions

func ErrAccessLogNotFound() *errx.Error {
	return ErrRegistry.New(CodeAccessLogNotFound)
}

func ErrInvalidRequest() *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest)
}

func ErrInvalidDirection() *errx.Error {
	return ErrRegistry.New(CodeInvalidDirection)
}

func ErrSiteRequired() *errx.Error {
	return ErrRegistry.New(CodeSiteRequired)
}
