package worker

import (
	"net/http"

	"github.com/Abraxas-365/cae/pkg/errx"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("WORKER")

// Error codes
var (
	CodeWorkerNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Worker not found")
	CodePersonIDAlreadyExists = ErrRegistry.Register("PERSON_ID_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "A worker with this DNI/NIE already exists")
	CodeInvalidPersonID       = ErrRegistry.Register("INVALID_PERSON_ID", errx.TypeValidation, http.StatusBadRequest, "Invalid personal ID (DNI/NIE)")
	CodeInvalidRequest        = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid worker data")
	CodeWorkerAlreadyActive   = ErrRegistry.Register("ALREADY_ACTIVE", errx.TypeBusiness, http.StatusConflict, "Worker is already active")
	CodeWorkerAlreadyInactive = ErrRegistry.Register("ALREADY_INACTIVE", errx.TypeBusiness, http.StatusConflict, "Worker is already inactive")
	CodeCompanyNotOpen        = ErrRegistry.Register("COMPANY_ARCHIVED", errx.TypeBusiness, http.StatusConflict, "Workers cannot be added to an archived company")
)

// Helper functions
func ErrWorkerNotFound() *errx.Error {
	return ErrRegistry.New(CodeWorkerNotFound)
}

func ErrPersonIDAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodePersonIDAlreadyExists)
}

func ErrInvalidPersonID() *errx.Error {
	return ErrRegistry.New(CodeInvalidPersonID)
}

func ErrInvalidRequest() *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest)
}

func ErrWorkerAlreadyActive() *errx.Error {
	return ErrRegistry.New(CodeWorkerAlreadyActive)
}

func ErrWorkerAlreadyInactive() *errx.Error {
	return ErrRegistry.New(CodeWorkerAlreadyInactive)
}

func ErrCompanyNotOpen() *errx.Error {
	return ErrRegistry.New(CodeCompanyNotOpen)
}
