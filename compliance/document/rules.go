package document

import (
	"strings"
	"time"

	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/Abraxas-365/cae/pkg/taxid"
)

// MinConfidence is the model confidence below which a human must look
const MinConfidence = 0.8

const dateLayout = "2006-01-02"

// Extraction is what the document inspector read from the file
type Extraction struct {
	HolderName   string   `json:"holder_name"`
	HolderTaxID  string   `json:"holder_tax_id"`
	DocumentType string   `json:"document_type"`
	IssueDate    string   `json:"issue_date,omitempty"`
	ExpiryDate   string   `json:"expiry_date,omitempty"`
	Legible      bool     `json:"legible"`
	Confidence   float64  `json:"confidence"`
	Issues       []string `json:"issues,omitempty"`
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// Issued parses IssueDate (YYYY-MM-DD); nil when absent or malformed
func (e Extraction) Issued() *time.Time { return parseDate(e.IssueDate) }

// Expiry parses ExpiryDate (YYYY-MM-DD); nil when absent or malformed
func (e Extraction) Expiry() *time.Time { return parseDate(e.ExpiryDate) }

// Subject is who a document is expected to belong to
type Subject struct {
	OwnerType OwnerType
	TaxID     string // CIF for companies, DNI/NIE for workers
}

// Evaluate applies the acceptance rules to an extraction.
//
// Hard failures (holder or type mismatch, expired, illegible) reject the
// document. Anything the rules cannot decide on their own (unrecognized
// type, missing holder id, missing expiry, low confidence) goes to manual
// review. Only a clean
// extraction is VALID.
func Evaluate(docType DocumentType, subject Subject, ex Extraction, now time.Time) Validation {
	var hard, soft []i18n.Key

	if !ex.Legible {
		hard = append(hard, i18n.KeyIssueIllegible)
	}

	switch detected := DocumentType(strings.ToUpper(strings.TrimSpace(ex.DocumentType))); {
	case detected == "":
		soft = append(soft, i18n.KeyIssueTypeMismatch)
	case detected != docType:
		hard = append(hard, i18n.KeyIssueTypeMismatch)
	}

	switch holder := taxid.Normalize(ex.HolderTaxID); {
	case holder == "":
		soft = append(soft, i18n.KeyIssueHolderMismatch)
	case !holderValid(subject.OwnerType, holder) || holder != taxid.Normalize(subject.TaxID):
		hard = append(hard, i18n.KeyIssueHolderMismatch)
	}

	if entry, ok := Lookup(docType); ok && entry.RequiresExpiry {
		switch expiry := ex.Expiry(); {
		case expiry == nil:
			soft = append(soft, i18n.KeyIssueMissingExpiry)
		case !expiry.After(now):
			hard = append(hard, i18n.KeyIssueExpired)
		}
	}

	if ex.Confidence < MinConfidence {
		soft = append(soft, i18n.KeyIssueLowConfidence)
	}

	v := Validation{Extraction: ex, ValidatedAt: now}
	switch {
	case len(hard) > 0:
		v.Outcome = StatusRejected
		v.Issues = append(hard, soft...)
	case len(soft) > 0:
		v.Outcome = StatusReviewRequired
		v.Issues = soft
	default:
		v.Outcome = StatusValid
	}
	return v
}

func holderValid(o OwnerType, id string) bool {
	if o == OwnerCompany {
		return taxid.ValidateCompanyTaxID(id)
	}
	return taxid.ValidatePersonID(id)
}
