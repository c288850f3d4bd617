package access

import (
	"time"

	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

// Direction is which way a person crosses the site gate
type Direction string

const (
	DirectionEntry Direction = "ENTRY"
	DirectionExit  Direction = "EXIT"
)

func (d Direction) IsValid() bool {
	return d == DirectionEntry || d == DirectionExit
}

// Result is the gate decision
type Result string

const (
	ResultGranted Result = "GRANTED"
	ResultDenied  Result = "DENIED"
)

func (r Result) IsValid() bool {
	return r == ResultGranted || r == ResultDenied
}

// DenyReason explains a DENIED result; empty when granted
type DenyReason string

const (
	DenyInvalidPersonID DenyReason = "INVALID_PERSON_ID"
	DenyUnknownWorker   DenyReason = "UNKNOWN_WORKER"
	DenyWorkerInactive  DenyReason = "WORKER_INACTIVE"
	DenyCompanyInactive DenyReason = "COMPANY_INACTIVE"
	DenyNonCompliant    DenyReason = "NON_COMPLIANT"
)

var denyLabels = map[DenyReason]i18n.Key{
	DenyInvalidPersonID: i18n.KeyDenyInvalidPersonID,
	DenyUnknownWorker:   i18n.KeyDenyUnknownWorker,
	DenyWorkerInactive:  i18n.KeyDenyWorkerInactive,
	DenyCompanyInactive: i18n.KeyDenyCompanyInactive,
	DenyNonCompliant:    i18n.KeyDenyNonCompliant,
}

// Label is the translation key shown on the gate display
func (r DenyReason) Label() i18n.Key {
	return denyLabels[r]
}

// AccessLog is one gate decision. Missing lists the required document
// types that blocked a NON_COMPLIANT entry.
type AccessLog struct {
	ID         kernel.AccessLogID      `db:"id" json:"id"`
	TenantID   kernel.TenantID         `db:"tenant_id" json:"tenant_id"`
	SiteID     kernel.SiteID           `db:"site_id" json:"site_id"`
	WorkerID   *kernel.WorkerID        `db:"worker_id" json:"worker_id,omitempty"`
	CompanyID  *kernel.CompanyID       `db:"company_id" json:"company_id,omitempty"`
	PersonID   string                  `db:"person_id" json:"person_id"`
	Direction  Direction               `db:"direction" json:"direction"`
	Result     Result                  `db:"result" json:"result"`
	DenyReason DenyReason              `db:"deny_reason" json:"deny_reason,omitempty"`
	Missing    []document.DocumentType `db:"missing" json:"missing,omitempty"`
	OccurredAt time.Time               `db:"occurred_at" json:"occurred_at"`
	RecordedBy string                  `db:"recorded_by" json:"recorded_by"`
}

// ============================================================================
// Domain Methods
// ============================================================================

func (l *AccessLog) IsGranted() bool {
	return l.Result == ResultGranted
}

// Facts is what is known about the person at the gate when deciding
type Facts struct {
	PersonIDValid    bool
	WorkerKnown      bool
	WorkerActive     bool
	CompanyActive    bool
	WorkerCompliant  bool
	CompanyCompliant bool
}

// Decide applies the gate rules in order. Exits of known workers are always
// granted so nobody is kept inside a site.
func Decide(direction Direction, f Facts) (Result, DenyReason) {
	switch {
	case !f.PersonIDValid:
		return ResultDenied, DenyInvalidPersonID
	case !f.WorkerKnown:
		return ResultDenied, DenyUnknownWorker
	case direction == DirectionExit:
		return ResultGranted, ""
	case !f.WorkerActive:
		return ResultDenied, DenyWorkerInactive
	case !f.CompanyActive:
		return ResultDenied, DenyCompanyInactive
	case !f.WorkerCompliant || !f.CompanyCompliant:
		return ResultDenied, DenyNonCompliant
	}
	return ResultGranted, ""
}
