package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_KnownFormats(t *testing.T) {
	parser := NewParser(Strict)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso", "2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"us slash", "01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"us dash", "01-15-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestParse_PriorityOrder(t *testing.T) {
	// 2024-01-02 is valid ISO; the ISO layout must win even though the
	// string is superficially dash-separated like MM-DD-YYYY.
	parser := NewParser(Strict)

	got, err := parser.Parse("2024-01-02")

	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 2, got.Day())
}

func TestParse_StrictMode_ReturnsFormatError(t *testing.T) {
	parser := NewParser(Strict)

	_, err := parser.Parse("Jan 15, 2024")

	require.Error(t, err)
	var fmtErr *FormatError
	require.ErrorAs(t, err, &fmtErr)
	assert.Equal(t, "Jan 15, 2024", fmtErr.Input)
}

func TestParse_LenientMode_SubstitutesEpoch(t *testing.T) {
	parser := NewParser(Lenient)

	got, err := parser.Parse("not a date")

	require.NoError(t, err)
	assert.True(t, Epoch.Equal(got))
}

func TestParse_EmptyString(t *testing.T) {
	strict := NewParser(Strict)
	lenient := NewParser(Lenient)

	_, err := strict.Parse("")
	require.Error(t, err)

	got, err := lenient.Parse("")
	require.NoError(t, err)
	assert.True(t, Epoch.Equal(got))
}
