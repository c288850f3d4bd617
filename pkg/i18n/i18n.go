// Package i18n holds the user-facing labels of the API as closed tables.
// Every Key has a translation for every Locale; Spanish is the fallback.
package i18n

import "strings"

type Locale string

const (
	ES Locale = "es"
	EN Locale = "en"

	DefaultLocale = ES
)

var Locales = []Locale{ES, EN}

// ParseLocale accepts "es", "en" or an Accept-Language header value
func ParseLocale(s string) Locale {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, part := range strings.Split(s, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		lang, _, _ := strings.Cut(tag, "-")
		switch Locale(lang) {
		case ES, EN:
			return Locale(lang)
		}
	}
	return DefaultLocale
}

type Key string

// Identifier validation
const (
	KeyValidCompanyTaxID   Key = "taxid.company.valid"
	KeyInvalidCompanyTaxID Key = "taxid.company.invalid"
	KeyValidPersonID       Key = "taxid.person.valid"
	KeyInvalidPersonID     Key = "taxid.person.invalid"
	KeyInvalidTaxID        Key = "taxid.any.invalid"
)

// Document types
const (
	KeyDocREA                        Key = "document.type.rea"
	KeyDocTC2                        Key = "document.type.tc2"
	KeyDocRNT                        Key = "document.type.rnt"
	KeyDocCivilLiabilityInsurance    Key = "document.type.civil_liability_insurance"
	KeyDocTaxClearance               Key = "document.type.tax_clearance"
	KeyDocSocialSecurityClearance    Key = "document.type.social_security_clearance"
	KeyDocRiskAssessment             Key = "document.type.risk_assessment"
	KeyDocIDDocument                 Key = "document.type.id_document"
	KeyDocPRLTraining                Key = "document.type.prl_training"
	KeyDocMedicalFitness             Key = "document.type.medical_fitness"
	KeyDocEPIDelivery                Key = "document.type.epi_delivery"
	KeyDocSocialSecurityRegistration Key = "document.type.social_security_registration"
)

// Document statuses
const (
	KeyStatusPending        Key = "document.status.pending"
	KeyStatusValidating     Key = "document.status.validating"
	KeyStatusValid          Key = "document.status.valid"
	KeyStatusRejected       Key = "document.status.rejected"
	KeyStatusReviewRequired Key = "document.status.review_required"
	KeyStatusExpired        Key = "document.status.expired"
	KeyStatusSuperseded     Key = "document.status.superseded"
)

// Validation issues raised by the document rules
const (
	KeyIssueHolderMismatch Key = "document.issue.holder_mismatch"
	KeyIssueTypeMismatch   Key = "document.issue.type_mismatch"
	KeyIssueExpired        Key = "document.issue.expired"
	KeyIssueMissingExpiry  Key = "document.issue.missing_expiry"
	KeyIssueIllegible      Key = "document.issue.illegible"
	KeyIssueLowConfidence  Key = "document.issue.low_confidence"
)

// Access deny reasons
const (
	KeyDenyInvalidPersonID Key = "access.deny.invalid_person_id"
	KeyDenyUnknownWorker   Key = "access.deny.unknown_worker"
	KeyDenyWorkerInactive  Key = "access.deny.worker_inactive"
	KeyDenyCompanyInactive Key = "access.deny.company_inactive"
	KeyDenyNonCompliant    Key = "access.deny.non_compliant"
)

var catalog = map[Key]map[Locale]string{
	KeyValidCompanyTaxID:   {ES: "CIF válido", EN: "Valid company tax ID (CIF)"},
	KeyInvalidCompanyTaxID: {ES: "El CIF no es válido", EN: "The company tax ID (CIF) is not valid"},
	KeyValidPersonID:       {ES: "DNI/NIE válido", EN: "Valid personal ID (DNI/NIE)"},
	KeyInvalidPersonID:     {ES: "El DNI/NIE no es válido", EN: "The personal ID (DNI/NIE) is not valid"},
	KeyInvalidTaxID:        {ES: "El identificador fiscal no es válido", EN: "The tax identifier is not valid"},

	KeyDocREA:                        {ES: "Inscripción en el REA", EN: "Accredited Companies Register (REA)"},
	KeyDocTC2:                        {ES: "TC2 de cotización", EN: "Social security contribution list (TC2)"},
	KeyDocRNT:                        {ES: "Relación nominal de trabajadores (RNT)", EN: "Workers nominal list (RNT)"},
	KeyDocCivilLiabilityInsurance:    {ES: "Seguro de responsabilidad civil", EN: "Civil liability insurance"},
	KeyDocTaxClearance:               {ES: "Certificado de estar al corriente con Hacienda", EN: "Tax clearance certificate"},
	KeyDocSocialSecurityClearance:    {ES: "Certificado de estar al corriente con la Seguridad Social", EN: "Social security clearance certificate"},
	KeyDocRiskAssessment:             {ES: "Evaluación de riesgos laborales", EN: "Occupational risk assessment"},
	KeyDocIDDocument:                 {ES: "Documento de identidad", EN: "Identity document"},
	KeyDocPRLTraining:                {ES: "Formación en PRL", EN: "Occupational safety training"},
	KeyDocMedicalFitness:             {ES: "Certificado de aptitud médica", EN: "Medical fitness certificate"},
	KeyDocEPIDelivery:                {ES: "Entrega de EPIs", EN: "Protective equipment delivery"},
	KeyDocSocialSecurityRegistration: {ES: "Alta en la Seguridad Social", EN: "Social security registration"},

	KeyStatusPending:        {ES: "Pendiente", EN: "Pending"},
	KeyStatusValidating:     {ES: "Validando", EN: "Validating"},
	KeyStatusValid:          {ES: "Válido", EN: "Valid"},
	KeyStatusRejected:       {ES: "Rechazado", EN: "Rejected"},
	KeyStatusReviewRequired: {ES: "Requiere revisión", EN: "Review required"},
	KeyStatusExpired:        {ES: "Caducado", EN: "Expired"},
	KeyStatusSuperseded:     {ES: "Sustituido", EN: "Superseded"},

	KeyIssueHolderMismatch: {ES: "El titular del documento no coincide", EN: "The document holder does not match"},
	KeyIssueTypeMismatch:   {ES: "El tipo de documento no coincide", EN: "The document type does not match"},
	KeyIssueExpired:        {ES: "El documento está caducado", EN: "The document has expired"},
	KeyIssueMissingExpiry:  {ES: "No se encuentra la fecha de caducidad", EN: "The expiry date could not be found"},
	KeyIssueIllegible:      {ES: "El documento no es legible", EN: "The document is not legible"},
	KeyIssueLowConfidence:  {ES: "La lectura automática no es fiable", EN: "The automatic reading is not reliable"},

	KeyDenyInvalidPersonID: {ES: "DNI/NIE no válido", EN: "Invalid personal ID"},
	KeyDenyUnknownWorker:   {ES: "Trabajador no registrado", EN: "Unknown worker"},
	KeyDenyWorkerInactive:  {ES: "Trabajador de baja", EN: "Worker is inactive"},
	KeyDenyCompanyInactive: {ES: "Empresa no activa", EN: "Company is not active"},
	KeyDenyNonCompliant:    {ES: "Documentación no conforme", EN: "Documentation not compliant"},
}

// T translates key into locale, falling back to Spanish and then to the key itself
func T(locale Locale, key Key) string {
	entry, ok := catalog[key]
	if !ok {
		return string(key)
	}
	if s, ok := entry[locale]; ok {
		return s
	}
	return entry[DefaultLocale]
}

// Keys lists every key in the catalog
func Keys() []Key {
	keys := make([]Key, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}
	return keys
}
