package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  Period
	}{
		{"short form", "Apr-20", Period{Year: 2020, Month: time.April}},
		{"short form single digit month", "Jan-18", Period{Year: 2018, Month: time.January}},
		{"short form december", "Dec-21", Period{Year: 2021, Month: time.December}},
		{"canonical passthrough", "APR2020", Period{Year: 2020, Month: time.April}},
		{"canonical outside short-form corpus", "SEP2024", Period{Year: 2024, Month: time.September}},
		{"surrounding whitespace", "  Mar-19 ", Period{Year: 2019, Month: time.March}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsPure(t *testing.T) {
	first, err := Normalize("Apr-20")
	require.NoError(t, err)
	second, err := Normalize("Apr-20")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "APR2020", first.Token())
}

func TestNormalizeUnrecognizedToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"unknown short form", "Foo-99"},
		{"short form outside corpus", "Apr-99"},
		{"empty", ""},
		{"bad month abbreviation", "ABC2020"},
		{"numeric month", "042020"},
		{"lowercase canonical", "apr2020"},
		{"full month name", "April 2020"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.token)
			require.Error(t, err)

			var tokenErr *UnrecognizedPeriodTokenError
			require.ErrorAs(t, err, &tokenErr)
			assert.Equal(t, tt.token, tokenErr.Token)
		})
	}
}

func TestShortFormTableIsTotal(t *testing.T) {
	// Every short-form token in the known table must map to the
	// canonical form its own text implies.
	require.Len(t, shortFormTokens, 48)
	for short, canonical := range shortFormTokens {
		p, err := Normalize(short)
		require.NoError(t, err, "token %q", short)
		assert.Equal(t, canonical, p.Token(), "token %q", short)
	}
}

func TestPeriodDateAnchor(t *testing.T) {
	p, err := Normalize("Feb-20")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC), p.Date())
}

func TestPeriodOrdering(t *testing.T) {
	dec19 := Period{Year: 2019, Month: time.December}
	jan20 := Period{Year: 2020, Month: time.January}
	jun20 := Period{Year: 2020, Month: time.June}

	assert.True(t, dec19.Before(jan20))
	assert.True(t, jan20.Before(jun20))
	assert.False(t, jun20.Before(jun20))
	assert.False(t, jun20.Before(dec19))

	periods := []Period{jun20, dec19, jan20}
	Sort(periods)
	assert.Equal(t, []Period{dec19, jan20, jun20}, periods)
}
