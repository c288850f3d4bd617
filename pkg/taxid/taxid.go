package taxid

import (
	"regexp"
	"strings"
	"unicode"
)

// personControlLetters maps n mod 23 to the DNI/NIE control letter.
const personControlLetters = "TRWAGMYFPDXBNJZSQVHLCKE"

// cifControlLetters maps the CIF control digit to its letter form.
const cifControlLetters = "JABCDEFGHI"

var (
	cifShape = regexp.MustCompile(`^[ABCDEFGHJNPQRSUVW][0-9]{7}[0-9A-J]$`)
	dniShape = regexp.MustCompile(`^[0-9]{8}[` + personControlLetters + `]$`)
	nieShape = regexp.MustCompile(`^[XYZ][0-9]{7}[` + personControlLetters + `]$`)
)

// Kind is the identifier class an input was recognised as.
type Kind string

const (
	KindCIF     Kind = "CIF"
	KindDNI     Kind = "DNI"
	KindNIE     Kind = "NIE"
	KindInvalid Kind = "INVALID"
)

func (k Kind) String() string { return string(k) }

// IsPerson reports whether k identifies a natural person
func (k Kind) IsPerson() bool { return k == KindDNI || k == KindNIE }

// Normalize strips whitespace and hyphens and uppercases the rest.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// ValidateCompanyTaxID reports whether s is a valid company identifier (CIF).
func ValidateCompanyTaxID(s string) bool {
	return ValidateCIF(s)
}

// ValidatePersonID reports whether s is a valid DNI or NIE.
func ValidatePersonID(s string) bool {
	return ValidateDNI(s) || ValidateNIE(s)
}

// Classify returns the kind of identifier s is, or KindInvalid when no
// validator accepts it.
func Classify(s string) Kind {
	n := Normalize(s)
	switch {
	case validCIF(n):
		return KindCIF
	case validDNI(n):
		return KindDNI
	case validNIE(n):
		return KindNIE
	default:
		return KindInvalid
	}
}

// Class restricts which identifiers Check accepts.
type Class string

const (
	ClassCompany Class = "company"
	ClassPerson  Class = "person"
	ClassAny     Class = "any"
)

func (c Class) IsValid() bool {
	return c == ClassCompany || c == ClassPerson || c == ClassAny
}

// Check classifies s and reports whether its kind belongs to class.
// A valid identifier of the wrong class is not valid.
func Check(s string, class Class) (Kind, bool) {
	k := Classify(s)
	switch class {
	case ClassCompany:
		return k, k == KindCIF
	case ClassPerson:
		return k, k.IsPerson()
	default:
		return k, k != KindInvalid
	}
}

// ValidateCIF reports whether s is a structurally and arithmetically valid CIF.
func ValidateCIF(s string) bool {
	return validCIF(Normalize(s))
}

// ValidateDNI reports whether s is a valid DNI.
func ValidateDNI(s string) bool {
	return validDNI(Normalize(s))
}

// ValidateNIE reports whether s is a valid NIE.
func ValidateNIE(s string) bool {
	return validNIE(Normalize(s))
}

func validCIF(n string) bool {
	if !cifShape.MatchString(n) {
		return false
	}

	digit, letter := CIFControl(n[1:8])
	got := n[8]

	switch cifControlPolicy(n[0]) {
	case controlDigit:
		return got == digit
	case controlLetter:
		return got == letter
	default:
		return got == digit || got == letter
	}
}

func validDNI(n string) bool {
	if !dniShape.MatchString(n) {
		return false
	}
	return n[8] == personControlLetter(n[:8])
}

func validNIE(n string) bool {
	if !nieShape.MatchString(n) {
		return false
	}
	prefix := byte('0' + strings.IndexByte("XYZ", n[0]))
	return n[8] == personControlLetter(string(prefix)+n[1:8])
}

// CIFControl computes the control digit and control letter for the seven
// central digits of a CIF. The caller guarantees digits is seven ASCII digits.
func CIFControl(digits string) (digit byte, letter byte) {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d = d/10 + d%10
			}
		}
		sum += d
	}
	c := (10 - sum%10) % 10
	return byte('0' + c), cifControlLetters[c]
}

// personControlLetter returns the control letter for an eight digit number.
func personControlLetter(digits string) byte {
	n := 0
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	return personControlLetters[n%23]
}

type controlPolicy int

const (
	controlEither controlPolicy = iota
	controlDigit
	controlLetter
)

// cifControlPolicy decides which control form an organisation type uses.
// Types not listed accept either form: both appear on identifiers in use.
func cifControlPolicy(orgType byte) controlPolicy {
	switch orgType {
	case 'A', 'B', 'E', 'H':
		return controlDigit
	case 'P', 'Q', 'R', 'S', 'W':
		return controlLetter
	default:
		return controlEither
	}
}
