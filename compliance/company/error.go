package company

import (
	"net/http"

	"github.com/Abraxas-365/cae/pkg/errx"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("COMPANY")

// Error codes
var (
	CodeCompanyNotFound         = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Company not found")
	CodeCompanyAlreadyExists    = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "A company with this CIF already exists")
	CodeInvalidTaxID            = ErrRegistry.Register("INVALID_TAX_ID", errx.TypeValidation, http.StatusBadRequest, "Invalid company tax ID (CIF)")
	CodeInvalidRequest          = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid company data")
	CodeCompanyArchived         = ErrRegistry.Register("ARCHIVED", errx.TypeBusiness, http.StatusConflict, "Company is archived")
	CodeInvalidStatusTransition = ErrRegistry.Register("INVALID_STATUS_TRANSITION", errx.TypeBusiness, http.StatusConflict, "Company status change not allowed")
	CodeParentNotFound          = ErrRegistry.Register("PARENT_NOT_FOUND", errx.TypeValidation, http.StatusBadRequest, "Parent company not found")
	CodeChainTooDeep            = ErrRegistry.Register("CHAIN_TOO_DEEP", errx.TypeBusiness, http.StatusUnprocessableEntity, "Subcontracting chain exceeds the allowed depth")
	CodeChainCycle              = ErrRegistry.Register("CHAIN_CYCLE", errx.TypeBusiness, http.StatusUnprocessableEntity, "A company cannot subcontract itself")
)

// Helper functions
func ErrCompanyNotFound() *errx.Error {
	return ErrRegistry.New(CodeCompanyNotFound)
}

func ErrCompanyAlreadyExists() *errx.Error {
	return ErrRegistry.New(CodeCompanyAlreadyExists)
}

func ErrInvalidTaxID() *errx.Error {
	return ErrRegistry.New(CodeInvalidTaxID)
}

func ErrInvalidRequest() *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest)
}

func ErrCompanyArchived() *errx.Error {
	return ErrRegistry.New(CodeCompanyArchived)
}

func ErrInvalidStatusTransition() *errx.Error {
	return ErrRegistry.New(CodeInvalidStatusTransition)
}

func ErrParentNotFound() *errx.Error {
	return ErrRegistry.New(CodeParentNotFound)
}

func ErrChainTooDeep() *errx.Error {
	return ErrRegistry.New(CodeChainTooDeep).WithDetail("max_depth", MaxChainDepth)
}

func ErrChainCycle() *errx.Error {
	return ErrRegistry.New(CodeChainCycle)
}
