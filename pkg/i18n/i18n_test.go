package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryKeyHasEveryLocale(t *testing.T) {
	for _, key := range Keys() {
		for _, loc := range Locales {
			assert.NotEmpty(t, catalog[key][loc], "%s missing %s", key, loc)
		}
	}
}

func TestT(t *testing.T) {
	assert.Equal(t, "El CIF no es válido", T(ES, KeyInvalidCompanyTaxID))
	assert.Equal(t, "Pending", T(EN, KeyStatusPending))
	assert.Equal(t, "Pendiente", T(Locale("fr"), KeyStatusPending))
	assert.Equal(t, "no.such.key", T(EN, Key("no.such.key")))
}

func TestParseLocale(t *testing.T) {
	cases := map[string]Locale{
		"":                        ES,
		"en":                      EN,
		"EN-gb":                   EN,
		"fr-FR,en;q=0.8":          EN,
		"es-ES,es;q=0.9,en;q=0.8": ES,
		"de":                      ES,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLocale(in), in)
	}
}
