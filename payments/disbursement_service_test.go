package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePhoneNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0712345678", "254712345678"},
		{"0112345678", "254112345678"},
		{"712345678", "254712345678"},
		{"254712345678", "254712345678"},
		{"+254 712 345 678", "254712345678"},
		{"07-12-34-56-78", "254712345678"},
	}
	for _, tc := range cases {
		got, err := SanitizePhoneNumber(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestSanitizePhoneNumberRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "12345", "0812345678", "2547123456789", "not a number"} {
		_, err := SanitizePhoneNumber(in)
		assert.Error(t, err, in)
	}
}
