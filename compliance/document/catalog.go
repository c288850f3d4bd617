package document

import (
	"sort"

	"github.com/Abraxas-365/cae/pkg/i18n"
)

// DocumentType is a member of the closed document catalog
type DocumentType string

const (
	// Company documents
	TypeREA                     DocumentType = "REA"
	TypeTC2                     DocumentType = "TC2"
	TypeRNT                     DocumentType = "RNT"
	TypeCivilLiabilityInsurance DocumentType = "CIVIL_LIABILITY_INSURANCE"
	TypeTaxClearance            DocumentType = "TAX_CLEARANCE"
	TypeSocialSecurityClearance DocumentType = "SOCIAL_SECURITY_CLEARANCE"
	TypeRiskAssessment          DocumentType = "RISK_ASSESSMENT"

	// Worker documents
	TypeIDDocument                 DocumentType = "ID_DOCUMENT"
	TypePRLTraining                DocumentType = "PRL_TRAINING"
	TypeMedicalFitness             DocumentType = "MEDICAL_FITNESS"
	TypeEPIDelivery                DocumentType = "EPI_DELIVERY"
	TypeSocialSecurityRegistration DocumentType = "SOCIAL_SECURITY_REGISTRATION"
)

// TypeEntry describes one catalog entry
type TypeEntry struct {
	Type           DocumentType `json:"type"`
	Owner          OwnerType    `json:"owner"`
	RequiresExpiry bool         `json:"requires_expiry"`
	Label          i18n.Key     `json:"-"`
}

var catalog = map[DocumentType]TypeEntry{
	TypeREA:                        {TypeREA, OwnerCompany, true, i18n.KeyDocREA},
	TypeTC2:                        {TypeTC2, OwnerCompany, true, i18n.KeyDocTC2},
	TypeRNT:                        {TypeRNT, OwnerCompany, true, i18n.KeyDocRNT},
	TypeCivilLiabilityInsurance:    {TypeCivilLiabilityInsurance, OwnerCompany, true, i18n.KeyDocCivilLiabilityInsurance},
	TypeTaxClearance:               {TypeTaxClearance, OwnerCompany, true, i18n.KeyDocTaxClearance},
	TypeSocialSecurityClearance:    {TypeSocialSecurityClearance, OwnerCompany, true, i18n.KeyDocSocialSecurityClearance},
	TypeRiskAssessment:             {TypeRiskAssessment, OwnerCompany, false, i18n.KeyDocRiskAssessment},
	TypeIDDocument:                 {TypeIDDocument, OwnerWorker, true, i18n.KeyDocIDDocument},
	TypePRLTraining:                {TypePRLTraining, OwnerWorker, false, i18n.KeyDocPRLTraining},
	TypeMedicalFitness:             {TypeMedicalFitness, OwnerWorker, true, i18n.KeyDocMedicalFitness},
	TypeEPIDelivery:                {TypeEPIDelivery, OwnerWorker, false, i18n.KeyDocEPIDelivery},
	TypeSocialSecurityRegistration: {TypeSocialSecurityRegistration, OwnerWorker, false, i18n.KeyDocSocialSecurityRegistration},
}

// Lookup returns the catalog entry for t
func Lookup(t DocumentType) (TypeEntry, bool) {
	entry, ok := catalog[t]
	return entry, ok
}

func (t DocumentType) IsValid() bool {
	_, ok := catalog[t]
	return ok
}

// RequiredFor lists every type an owner of kind o must hold, sorted
func RequiredFor(o OwnerType) []DocumentType {
	var out []DocumentType
	for t, entry := range catalog {
		if entry.Owner == o {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Catalog returns every entry, company types first
func Catalog() []TypeEntry {
	out := make([]TypeEntry, 0, len(catalog))
	for _, o := range []OwnerType{OwnerCompany, OwnerWorker} {
		for _, t := range RequiredFor(o) {
			out = append(out, catalog[t])
		}
	}
	return out
}
