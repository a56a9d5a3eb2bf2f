package afip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, 3, 7, 15, 30, 0, 0, time.Local)
	assert.Equal(t, "20250307", FormatDate(d), "CbteFch debe ser AAAAMMDD")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("20251231")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.December, d.Month())
	assert.Equal(t, 31, d.Day())
}

func TestParseDateInvalida(t *testing.T) {
	_, err := ParseDate("2025-12-31")
	assert.Error(t, err, "una fecha con guiones no es formato AFIP")

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestFormatDateParseDateRoundTrip(t *testing.T) {
	orig := time.Date(2026, 2, 28, 0, 0, 0, 0, time.Local)
	parsed, err := ParseDate(FormatDate(orig))
	require.NoError(t, err)
	assert.True(t, orig.Equal(parsed), "el round-trip no debe mover la fecha")
}

func TestFormatTRATimeIncluyeOffset(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, loc)
	assert.Equal(t, "2025-06-01T10:00:00-03:00", FormatTRATime(ts))
}
