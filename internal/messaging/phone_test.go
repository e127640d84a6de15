package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shillz96/carfinderai/internal/lead"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"ten digits", "8085551234", "+18085551234"},
		{"dashed", "808-555-1234", "+18085551234"},
		{"dotted", "808.555.1234", "+18085551234"},
		{"parenthesized", "(808) 555-1234", "+18085551234"},
		{"eleven with country code", "18085551234", "+18085551234"},
		{"seven digits gets local area code", "555-1234", "+18085551234"},
		{"extra leading digits keeps last ten", "0018085551234", "+18085551234"},
		{"too short", "555-12", ""},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, NormalizePhone(tc.raw))
		})
	}
}

func TestExtractPhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{
			name:  "dashed in description",
			text:  "Great car, call 808-555-1234 anytime",
			want:  "+18085551234",
			found: true,
		},
		{
			name:  "parenthesized",
			text:  "Contact (808) 555-9876 after 5pm",
			want:  "+18085559876",
			found: true,
		},
		{
			name:  "bare digits",
			text:  "text me 8085554321",
			want:  "+18085554321",
			found: true,
		},
		{
			name:  "seven digit fallback",
			text:  "call 555-4321 for details",
			want:  "+18085554321",
			found: true,
		},
		{
			name:  "no number",
			text:  "email only please, no calls",
			found: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, found := ExtractPhone(tc.text)
			require.Equal(t, tc.found, found)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInquiryMessage(t *testing.T) {
	t.Parallel()

	l := lead.Lead{Year: 2020, Make: "Toyota", Model: "Camry"}
	assert.Equal(t,
		"Hi, I saw your listing for the 2020 Toyota Camry. Is it still available?",
		InquiryMessage(l))
}

func TestInquiryMessageFallsBackToTitle(t *testing.T) {
	t.Parallel()

	l := lead.Lead{Title: "Clean island car, runs great"}
	assert.Equal(t,
		"Hi, I saw your listing for the Clean island car, runs great. Is it still available?",
		InquiryMessage(l))
}
