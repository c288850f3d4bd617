package document

import (
	"time"

	"github.com/Abraxas-365/cae/pkg/kernel"
)

const MaxFileSize = 10 * 1024 * 1024 // 10MB

// SupportedFileTypes are the accepted upload extensions
var SupportedFileTypes = []string{"pdf", "jpg", "jpeg", "png"}

// UploadRequest - metadata sent with the multipart file
type UploadRequest struct {
	OwnerType  OwnerType    `json:"owner_type"`
	OwnerID    string       `json:"owner_id"`
	Type       DocumentType `json:"type"`
	IssuedAt   *time.Time   `json:"issued_at,omitempty"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty"`
	FileName   string       `json:"file_name"`
	FileSize   int64        `json:"file_size"`
	UploadedBy string       `json:"uploaded_by,omitempty"`
}

// ListDocumentsRequest - filters for listing
type ListDocumentsRequest struct {
	CompanyID      *kernel.CompanyID        `json:"company_id,omitempty"`
	CompanyIDs     []kernel.CompanyID       `json:"-"`
	OwnerType      OwnerType                `json:"owner_type,omitempty"`
	OwnerID        string                   `json:"owner_id,omitempty"`
	Type           DocumentType             `json:"type,omitempty"`
	Status         DocumentStatus           `json:"status,omitempty"`
	ExpiringBefore *time.Time               `json:"expiring_before,omitempty"`
	IncludeOld     bool                     `json:"include_superseded,omitempty"`
	Pagination     kernel.PaginationOptions `json:"pagination"`
}

// SortColumns whitelists the columns a list can be ordered by
var SortColumns = map[string]string{
	"created_at": "created_at",
	"expires_at": "expires_at",
	"status":     "status",
	"type":       "type",
}

// ApproveRequest - manual approval; expires_at fills in a date the model could not read
type ApproveRequest struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RejectRequest - manual rejection
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ComplianceStatus summarizes an owner's paperwork
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "COMPLIANT"
	NonCompliant ComplianceStatus = "NON_COMPLIANT"
)

// ComplianceSummary - required types vs what the owner currently holds
type ComplianceSummary struct {
	OwnerType OwnerType        `json:"owner_type"`
	OwnerID   string           `json:"owner_id"`
	Status    ComplianceStatus `json:"status"`
	Required  []DocumentType   `json:"required"`
	Valid     []DocumentType   `json:"valid"`
	Missing   []DocumentType   `json:"missing"`
	Expired   []DocumentType   `json:"expired"`
	Pending   []DocumentType   `json:"pending"`
	Rejected  []DocumentType   `json:"rejected"`
}

func (s *ComplianceSummary) IsCompliant() bool {
	return s.Status == Compliant
}

// DocumentTypeResponse - a catalog entry with its localized label
type DocumentTypeResponse struct {
	Type           DocumentType `json:"type"`
	Owner          OwnerType    `json:"owner"`
	RequiresExpiry bool         `json:"requires_expiry"`
	Label          string       `json:"label"`
}
