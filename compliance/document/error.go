package document

import (
	"net/http"

	"github.com/Abraxas-365/cae/pkg/errx"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("DOCUMENT")

// Error codes
var (
	CodeDocumentNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Document not found")
	CodeInvalidRequest          = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid document data")
	CodeInvalidType             = ErrRegistry.Register("INVALID_TYPE", errx.TypeValidation, http.StatusBadRequest, "Unknown document type for this owner")
	CodeUnsupportedFile         = ErrRegistry.Register("UNSUPPORTED_FILE", errx.TypeValidation, http.StatusBadRequest, "Unsupported file type")
	CodeFileTooLarge            = ErrRegistry.Register("FILE_TOO_LARGE", errx.TypeValidation, http.StatusRequestEntityTooLarge, "File exceeds the maximum size")
	CodeOwnerNotFound           = ErrRegistry.Register("OWNER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Document owner not found")
	CodeInvalidStatusTransition = ErrRegistry.Register("INVALID_STATUS_TRANSITION", errx.TypeBusiness, http.StatusConflict, "Document status change not allowed")
	CodeNotUnderReview          = ErrRegistry.Register("NOT_UNDER_REVIEW", errx.TypeBusiness, http.StatusConflict, "Document is not waiting for review")
	CodeRejectionReasonRequired = ErrRegistry.Register("REJECTION_REASON_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "A rejection reason is required")
	CodeExpiryRequired          = ErrRegistry.Register("EXPIRY_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "This document type requires an expiry date")
	CodeStorageFailed           = ErrRegistry.Register("STORAGE_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to store document file")
	CodeQueueEnqueueFailed      = ErrRegistry.Register("QUEUE_ENQUEUE_FAILED", errx.TypeExternal, http.StatusServiceUnavailable, "Failed to queue document for validation")
	CodeInspectionFailed        = ErrRegistry.Register("INSPECTION_FAILED", errx.TypeExternal, http.StatusBadGateway, "Automatic document inspection failed")
	CodeMaxRetriesReached       = ErrRegistry.Register("MAX_RETRIES_REACHED", errx.TypeInternal, http.StatusInternalServerError, "Document validation failed after all retries")
)

// Helper functions
func ErrDocumentNotFound() *errx.Error {
	return ErrRegistry.New(CodeDocumentNotFound)
}

func ErrInvalidRequest() *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest)
}

func ErrInvalidType() *errx.Error {
	return ErrRegistry.New(CodeInvalidType)
}

func ErrUnsupportedFile() *errx.Error {
	return ErrRegistry.New(CodeUnsupportedFile)
}

func ErrFileTooLarge() *errx.Error {
	return ErrRegistry.New(CodeFileTooLarge)
}

func ErrOwnerNotFound() *errx.Error {
	return ErrRegistry.New(CodeOwnerNotFound)
}

func ErrInvalidStatusTransition() *errx.Error {
	return ErrRegistry.New(CodeInvalidStatusTransition)
}

func ErrNotUnderReview() *errx.Error {
	return ErrRegistry.New(CodeNotUnderReview)
}

func ErrRejectionReasonRequired() *errx.Error {
	return ErrRegistry.New(CodeRejectionReasonRequired)
}

func ErrExpiryRequired() *errx.Error {
	return ErrRegistry.New(CodeExpiryRequired)
}

func ErrStorageFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStorageFailed, cause)
}

func ErrQueueEnqueueFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeQueueEnqueueFailed, cause)
}

func ErrInspectionFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeInspectionFailed, cause)
}

func ErrMaxRetriesReached() *errx.Error {
	return ErrRegistry.New(CodeMaxRetriesReached)
}
