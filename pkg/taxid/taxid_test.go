package taxid

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCIF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"public vector, digit control", "A58818501", true},
		{"digit-only type rejects letter form", "A5881850A", false},
		{"limited company with digit", "B12345674", true},
		{"limited company with letter form", "B1234567D", false},
		{"trailing char outside A-J", "B1234567X", false},
		{"public body with letter", "P1234567D", true},
		{"public body with digit form", "P12345674", false},
		{"religious entity with letter", "R2817613I", true},
		{"foreign entity with letter", "W2345678C", true},
		{"mixed type accepts digit", "C12345674", true},
		{"mixed type accepts letter", "C1234567D", true},
		{"mixed type accepts J for zero", "N0000000J", true},
		{"mixed type accepts 0 for zero", "N00000000", true},
		{"mixed type wrong control", "G12345675", false},
		{"unknown organisation letter", "I12345674", false},
		{"lowercase is normalized", "a58818501", true},
		{"hyphens and spaces are normalized", " a-5881850-1 ", true},
		{"too short", "A5881850", false},
		{"too long", "A588185011", false},
		{"empty", "", false},
		{"spaces only", "   ", false},
		{"garbage", "ABC123", false},
		{"dni is not a cif", "12345678Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCIF(tt.input))
			assert.Equal(t, tt.want, ValidateCompanyTaxID(tt.input))
		})
	}
}

func TestValidateDNI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"canonical zero", "00000000T", true},
		{"common example", "12345678Z", true},
		{"upper bound", "99999999R", true},
		{"wrong letter", "12345678A", false},
		{"letter outside control alphabet", "12345678I", false},
		{"lowercase letter", "12345678z", true},
		{"separated by hyphen", "12345678-Z", true},
		{"seven digits", "1234567Z", false},
		{"letter first", "Z12345678", false},
		{"nie is not a dni", "X1234567L", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateDNI(tt.input))
		})
	}
}

func TestValidateNIE(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"X prefix", "X1234567L", true},
		{"Y prefix", "Y1234567X", true},
		{"Z prefix", "Z1234567R", true},
		{"X zero", "X0000000T", true},
		{"wrong letter", "X1234567T", false},
		{"unsupported prefix", "W1234567L", false},
		{"eight digits after prefix", "X12345678L", false},
		{"normalized", "x 1234567 l", true},
		{"dni is not a nie", "12345678Z", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateNIE(tt.input))
		})
	}
}

func TestValidatePersonID(t *testing.T) {
	inputs := []string{
		"00000000T", "12345678Z", "12345678A", "X1234567L", "Y1234567X",
		"X1234567T", "A58818501", "", "   ", "ABC123",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			want := ValidateDNI(in) || ValidateNIE(in)
			assert.Equal(t, want, ValidatePersonID(in))
		})
	}

	assert.True(t, ValidatePersonID("12345678Z"))
	assert.True(t, ValidatePersonID("X1234567L"))
	assert.False(t, ValidatePersonID("A58818501"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindCIF, Classify("A58818501"))
	assert.Equal(t, KindDNI, Classify("12345678z"))
	assert.Equal(t, KindNIE, Classify("X-1234567-L"))
	assert.Equal(t, KindInvalid, Classify("12345678A"))
	assert.Equal(t, KindInvalid, Classify(""))

	assert.True(t, KindDNI.IsPerson())
	assert.True(t, KindNIE.IsPerson())
	assert.False(t, KindCIF.IsPerson())
	assert.False(t, KindInvalid.IsPerson())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "A58818501", Normalize(" a-5881850 1\t"))
	assert.Equal(t, "", Normalize(" - \n"))
	assert.Equal(t, "X1234567L", Normalize("x1234567l"))
}

// TestNormalizationInvariance checks that casing, spacing and hyphenation
// never change a verdict.
func TestNormalizationInvariance(t *testing.T) {
	variants := func(s string) []string {
		return []string{
			s,
			strings.ToLower(s),
			" " + s + " ",
			s[:1] + "-" + s[1:],
			strings.Join(strings.Split(s, ""), " "),
		}
	}

	validators := map[string]func(string) bool{
		"cif": ValidateCIF,
		"dni": ValidateDNI,
		"nie": ValidateNIE,
	}

	for _, id := range []string{"A58818501", "B1234567D", "C1234567D", "12345678Z", "12345678A", "X1234567L", "Z1234567T"} {
		for name, validate := range validators {
			want := validate(Normalize(id))
			for _, v := range variants(id) {
				assert.Equalf(t, want, validate(v), "%s(%q) differs from normalized form", name, v)
			}
		}
	}
}

// TestMalformedShapesRejected covers inputs that match no identifier shape.
func TestMalformedShapesRejected(t *testing.T) {
	malformed := []string{
		"", " ", "-", "ABC123", "A", "123456789", "AAAAAAAAA", "X123456L",
		"12345678", "ÑÑÑÑÑÑÑÑÑ", "A5881850١", "B1234567K", "\x00\x00\x00",
	}
	for _, s := range malformed {
		assert.False(t, ValidateCIF(s), "cif %q", s)
		assert.False(t, ValidateDNI(s), "dni %q", s)
		assert.False(t, ValidateNIE(s), "nie %q", s)
		assert.Equal(t, KindInvalid, Classify(s))
	}
}

// TestControlMutationFlipsResult replaces the control character of each
// valid identifier with every other candidate and expects rejection.
func TestControlMutationFlipsResult(t *testing.T) {
	cases := []struct {
		id       string
		validate func(string) bool
		alphabet string
	}{
		{"A58818501", ValidateCIF, "0123456789ABCDEFGHIJ"},
		{"P1234567D", ValidateCIF, "0123456789ABCDEFGHIJ"},
		{"12345678Z", ValidateDNI, personControlLetters},
		{"00000000T", ValidateDNI, personControlLetters},
		{"X1234567L", ValidateNIE, personControlLetters},
		{"Y1234567X", ValidateNIE, personControlLetters},
	}

	for _, tc := range cases {
		require.True(t, tc.validate(tc.id), "fixture %s must be valid", tc.id)
		control := tc.id[len(tc.id)-1]
		for i := 0; i < len(tc.alphabet); i++ {
			c := tc.alphabet[i]
			if c == control {
				continue
			}
			mutated := tc.id[:len(tc.id)-1] + string(c)
			assert.Falsef(t, tc.validate(mutated), "mutated %s accepted", mutated)
		}
	}
}

// TestMixedTypeAcceptsExactlyTwoControls checks the lenient organisation
// types accept the digit and the letter form and nothing else.
func TestMixedTypeAcceptsExactlyTwoControls(t *testing.T) {
	body := "2345678"
	digit, letter := CIFControl(body)

	for _, org := range "CDFGJNUV" {
		accepted := 0
		for _, c := range "0123456789ABCDEFGHIJ" {
			if ValidateCIF(string(org) + body + string(c)) {
				accepted++
			}
		}
		assert.Equal(t, 2, accepted, "organisation type %c", org)
		assert.True(t, ValidateCIF(string(org)+body+string(digit)))
		assert.True(t, ValidateCIF(string(org)+body+string(letter)))
	}
}

func TestCIFControl(t *testing.T) {
	tests := []struct {
		digits string
		digit  byte
		letter byte
	}{
		{"5881850", '1', 'A'},
		{"1234567", '4', 'D'},
		{"0000000", '0', 'J'},
		{"1111111", '9', 'I'},
	}
	for _, tt := range tests {
		d, l := CIFControl(tt.digits)
		assert.Equal(t, string(tt.digit), string(d), tt.digits)
		assert.Equal(t, string(tt.letter), string(l), tt.digits)
	}
}

func TestConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.True(t, ValidateCompanyTaxID("A58818501"))
				assert.True(t, ValidatePersonID("X1234567L"))
				assert.False(t, ValidatePersonID("12345678A"))
			}
		}()
	}
	wg.Wait()
}

func BenchmarkValidatePersonID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ValidatePersonID("X1234567L")
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		value string
		class Class
		kind  Kind
		valid bool
	}{
		{"A58818501", ClassCompany, KindCIF, true},
		{"A58818501", ClassPerson, KindCIF, false},
		{"A58818501", ClassAny, KindCIF, true},
		{"12345678z", ClassPerson, KindDNI, true},
		{"x-0000000-t", ClassPerson, KindNIE, true},
		{"12345678Z", ClassCompany, KindDNI, false},
		{"12345678A", ClassAny, KindInvalid, false},
		{"", ClassAny, KindInvalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.value+"/"+string(tt.class), func(t *testing.T) {
			kind, valid := Check(tt.value, tt.class)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.valid, valid)
		})
	}
	assert.False(t, Class("passport").IsValid())
}
