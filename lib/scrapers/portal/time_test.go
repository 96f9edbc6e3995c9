package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homework-backend/lib/timezone"
)

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("Jan 20, 2024")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, time.January, 20, 0, 0, 0, 0, timezone.Location), d)

	_, ok = ParseDate("2024-01-20")
	require.False(t, ok, "only the single fixed format is accepted")

	_, ok = ParseDate("")
	require.False(t, ok)

	d, ok = ParseDate("  Feb 1, 2024 ")
	require.True(t, ok)
	require.Equal(t, time.February, d.Month())
}

func TestParsePercent(t *testing.T) {
	p := ParsePercent("85%")
	require.NotNil(t, p)
	require.Equal(t, 85.0, *p)

	p = ParsePercent(" 92.5 % ")
	require.NotNil(t, p)
	require.Equal(t, 92.5, *p)

	require.Nil(t, ParsePercent("N/A"))
	require.Nil(t, ParsePercent(""))
}

func TestCutoff(t *testing.T) {
	now := time.Date(2024, time.January, 25, 0, 0, 0, 0, timezone.Location)
	require.Equal(t,
		time.Date(2024, time.January, 11, 0, 0, 0, 0, timezone.Location),
		Cutoff(now, 14),
	)
	require.Equal(t, now, Cutoff(now, 0))
}
