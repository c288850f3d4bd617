package document

import (
	"time"

	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/kernel"
)

// OwnerType tells whether a document belongs to a company or to a worker
type OwnerType string

const (
	OwnerCompany OwnerType = "COMPANY"
	OwnerWorker  OwnerType = "WORKER"
)

func (o OwnerType) IsValid() bool {
	return o == OwnerCompany || o == OwnerWorker
}

// DocumentStatus is the validation lifecycle of an uploaded document
type DocumentStatus string

const (
	StatusPending        DocumentStatus = "PENDING"         // Uploaded, waiting in the queue
	StatusValidating     DocumentStatus = "VALIDATING"      // A worker is inspecting it
	StatusValid          DocumentStatus = "VALID"           // Accepted, counts towards compliance
	StatusRejected       DocumentStatus = "REJECTED"        // Failed a hard rule or a reviewer rejected it
	StatusReviewRequired DocumentStatus = "REVIEW_REQUIRED" // Needs a coordinator
	StatusExpired        DocumentStatus = "EXPIRED"         // Was valid, expiry date passed
	StatusSuperseded     DocumentStatus = "SUPERSEDED"      // A newer upload of the same type replaced it
)

func (s DocumentStatus) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsFinal reports whether no automatic transition leaves this status
func (s DocumentStatus) IsFinal() bool {
	return s == StatusRejected || s == StatusExpired || s == StatusSuperseded
}

var statusLabels = map[DocumentStatus]i18n.Key{
	StatusPending:        i18n.KeyStatusPending,
	StatusValidating:     i18n.KeyStatusValidating,
	StatusValid:          i18n.KeyStatusValid,
	StatusRejected:       i18n.KeyStatusRejected,
	StatusReviewRequired: i18n.KeyStatusReviewRequired,
	StatusExpired:        i18n.KeyStatusExpired,
	StatusSuperseded:     i18n.KeyStatusSuperseded,
}

func (s DocumentStatus) Label() i18n.Key {
	return statusLabels[s]
}

// transitions is the closed status machine
var transitions = map[DocumentStatus][]DocumentStatus{
	StatusPending:        {StatusValidating, StatusSuperseded},
	StatusValidating:     {StatusValid, StatusRejected, StatusReviewRequired, StatusPending},
	StatusReviewRequired: {StatusValid, StatusRejected, StatusSuperseded},
	StatusValid:          {StatusExpired, StatusSuperseded},
	StatusRejected:       {StatusSuperseded},
	StatusExpired:        {StatusSuperseded},
}

// CanTransition reports whether from → to is allowed
func CanTransition(from, to DocumentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Document struct {
	ID              kernel.DocumentID `db:"id" json:"id"`
	TenantID        kernel.TenantID   `db:"tenant_id" json:"tenant_id"`
	CompanyID       kernel.CompanyID  `db:"company_id" json:"company_id"`
	OwnerType       OwnerType         `db:"owner_type" json:"owner_type"`
	OwnerID         string            `db:"owner_id" json:"owner_id"`
	Type            DocumentType      `db:"type" json:"type"`
	FileName        string            `db:"file_name" json:"file_name"`
	FilePath        string            `db:"file_path" json:"-"`
	FileType        string            `db:"file_type" json:"file_type"`
	FileSize        int64             `db:"file_size" json:"file_size"`
	Status          DocumentStatus    `db:"status" json:"status"`
	IssuedAt        *time.Time        `db:"issued_at" json:"issued_at,omitempty"`
	ExpiresAt       *time.Time        `db:"expires_at" json:"expires_at,omitempty"`
	Validation      *Validation       `db:"validation" json:"validation,omitempty"`
	Attempts        int               `db:"attempts" json:"attempts"`
	LastError       string            `db:"last_error" json:"last_error,omitempty"`
	UploadedBy      string            `db:"uploaded_by" json:"uploaded_by,omitempty"`
	ReviewedBy      *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	RejectionReason string            `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// Validation is what the automatic check extracted and concluded
type Validation struct {
	Extraction  Extraction     `json:"extraction"`
	Outcome     DocumentStatus `json:"outcome"`
	Issues      []i18n.Key     `json:"issues,omitempty"`
	ValidatedAt time.Time      `json:"validated_at"`
}

// ============================================================================
// Domain Methods
// ============================================================================

func (d *Document) transition(to DocumentStatus) error {
	if !CanTransition(d.Status, to) {
		return ErrInvalidStatusTransition().
			WithDetail("from", string(d.Status)).
			WithDetail("to", string(to))
	}
	d.Status = to
	d.UpdatedAt = time.Now()
	return nil
}

// StartValidation is called by a worker when it picks the job up
func (d *Document) StartValidation() error {
	if err := d.transition(StatusValidating); err != nil {
		return err
	}
	d.Attempts++
	return nil
}

// Requeue puts a document whose validation crashed back into the queue state
func (d *Document) Requeue(reason string) error {
	if err := d.transition(StatusPending); err != nil {
		return err
	}
	d.LastError = reason
	return nil
}

// ApplyValidation records the automatic outcome. Dates read from the
// document replace the ones the uploader typed in.
func (d *Document) ApplyValidation(v Validation) error {
	if err := d.transition(v.Outcome); err != nil {
		return err
	}
	d.Validation = &v
	d.LastError = ""
	if issued := v.Extraction.Issued(); issued != nil {
		d.IssuedAt = issued
	}
	if expiry := v.Extraction.Expiry(); expiry != nil {
		d.ExpiresAt = expiry
	}
	if v.Outcome == StatusRejected && len(v.Issues) > 0 {
		d.RejectionReason = string(v.Issues[0])
	}
	return nil
}

// FailValidation marks a document rejected after retries ran out
func (d *Document) FailValidation(reason string) error {
	if err := d.transition(StatusRejected); err != nil {
		return err
	}
	d.LastError = reason
	d.RejectionReason = reason
	return nil
}

// Approve is a manual review decision
func (d *Document) Approve(reviewer string, expiresAt *time.Time) error {
	if d.Status != StatusReviewRequired {
		return ErrNotUnderReview().WithDetail("status", string(d.Status))
	}
	if expiresAt != nil {
		d.ExpiresAt = expiresAt
	}
	if entry, ok := Lookup(d.Type); ok && entry.RequiresExpiry && d.ExpiresAt == nil {
		return ErrExpiryRequired().WithDetail("type", string(d.Type))
	}
	if err := d.transition(StatusValid); err != nil {
		return err
	}
	d.markReviewed(reviewer)
	d.RejectionReason = ""
	return nil
}

// Reject is a manual review decision; the reason is shown to the contractor
func (d *Document) Reject(reviewer, reason string) error {
	if reason == "" {
		return ErrRejectionReasonRequired()
	}
	if d.Status != StatusReviewRequired {
		return ErrNotUnderReview().WithDetail("status", string(d.Status))
	}
	if err := d.transition(StatusRejected); err != nil {
		return err
	}
	d.markReviewed(reviewer)
	d.RejectionReason = reason
	return nil
}

func (d *Document) markReviewed(reviewer string) {
	now := time.Now()
	d.ReviewedBy = &reviewer
	d.ReviewedAt = &now
}

// Expire moves a valid document past its expiry date to EXPIRED
func (d *Document) Expire() error {
	return d.transition(StatusExpired)
}

// Supersede retires a document replaced by a newer upload
func (d *Document) Supersede() error {
	return d.transition(StatusSuperseded)
}

// IsExpiredAt reports whether the document's expiry date is before now
func (d *Document) IsExpiredAt(now time.Time) bool {
	return d.ExpiresAt != nil && d.ExpiresAt.Before(now)
}

// IsCurrent reports whether the document still represents its owner for its type
func (d *Document) IsCurrent() bool {
	return d.Status != StatusSuperseded
}
