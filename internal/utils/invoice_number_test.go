package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextInvoiceNumber(t *testing.T) {
	prefix := InvoiceNumberPrefix("INV", 2026)
	assert.Equal(t, "INV-2026-", prefix)

	tests := []struct {
		name   string
		latest string
		want   string
	}{
		{"first of the year", "", "INV-2026-0001"},
		{"increments", "INV-2026-0041", "INV-2026-0042"},
		{"grows past four digits", "INV-2026-9999", "INV-2026-10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextInvoiceNumber(prefix, tt.latest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextInvoiceNumber_RejectsForeignNumber(t *testing.T) {
	_, err := NextInvoiceNumber("INV-2026-", "INV-2026-abc")
	assert.Error(t, err)

	_, err = NextInvoiceNumber("INV-2026-", "INV-2025-0003")
	assert.Error(t, err)
}

func TestGenerateInviteCode(t *testing.T) {
	code, err := GenerateInviteCode()
	require.NoError(t, err)
	assert.Regexp(t, `^[2-9A-HJKMNP-Z]{4}-[2-9A-HJKMNP-Z]{4}-[2-9A-HJKMNP-Z]{4}$`, code)
}

func TestNormalizeInviteCode(t *testing.T) {
	cases := map[string]string{
		"K7QF-2M9X-PA4D":   "K7QF-2M9X-PA4D",
		"k7qf-2m9x-pa4d":   "K7QF-2M9X-PA4D",
		" k7qf 2m9x pa4d ": "K7QF-2M9X-PA4D",
		"K7QF2M9XPA4D":     "K7QF-2M9X-PA4D",
		"short":            "SHORT",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeInviteCode(in), in)
	}
}
