package kernel

import (
	"net/mail"
	"strings"

	"github.com/Abraxas-365/cae/pkg/taxid"
)

type Email string

// IsValid reports whether the address parses as a bare RFC 5322 address
func (e Email) IsValid() bool {
	s := strings.TrimSpace(string(e))
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func (e Email) Normalize() Email {
	return Email(strings.ToLower(strings.TrimSpace(string(e))))
}

type Phone string

type FirstName string

type LastName string

type CompanyName string

type JobPosition string

type Address string

type BucketURL string

// TaxID is a company tax identifier (CIF). Values are stored normalized.
type TaxID string

func (t TaxID) IsValid() bool    { return taxid.ValidateCompanyTaxID(string(t)) }
func (t TaxID) Normalize() TaxID { return TaxID(taxid.Normalize(string(t))) }
func (t TaxID) String() string   { return string(t) }

// PersonID is a natural-person identifier, either DNI or NIE.
type PersonID string

func (p PersonID) IsValid() bool       { return taxid.ValidatePersonID(string(p)) }
func (p PersonID) Normalize() PersonID { return PersonID(taxid.Normalize(string(p))) }
func (p PersonID) Kind() taxid.Kind    { return taxid.Classify(string(p)) }
func (p PersonID) String() string      { return string(p) }

// Mask hides all but the trailing digits and control letter, for logs and
// listings shown to users outside the owning company.
func (p PersonID) Mask() string {
	n := p.Normalize()
	if !n.IsValid() {
		return "***"
	}
	s := string(n)
	if n.Kind() == taxid.KindNIE {
		return s[:1] + "****" + s[5:]
	}
	return "*****" + s[5:]
}
