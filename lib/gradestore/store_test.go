package gradestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homework-backend/lib/gradestore"
	"homework-backend/lib/testutil"
	"homework-backend/lib/timezone"
)

func openStore(t *testing.T) gradestore.Store {
	service := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "gradestore",
		DbSchema: gradestore.Schema,
	})
	return gradestore.NewStore(service.DB)
}

func pct(v float64) *float64 {
	return &v
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, timezone.Location)
}

func TestPushPull(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := day(2024, time.February, 2)

	err := store.Push(ctx, now, []gradestore.Sample{
		{Course: "AP Mathematics", Date: day(2024, time.February, 1), Percent: pct(85)},
		{Course: "AP Mathematics", Date: day(2024, time.January, 15), Percent: pct(82)},
		{Course: "English 10", Date: day(2024, time.February, 1), Percent: nil},
	})
	require.NoError(t, err)

	samples, err := store.Pull(ctx, "", day(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, samples, 3)
	require.Equal(t, "AP Mathematics", samples[0].Course)
	require.Equal(t, day(2024, time.January, 15), samples[0].Date)
	require.Equal(t, 82.0, *samples[0].Percent)
	require.Nil(t, samples[2].Percent)
}

func TestCourseFilter(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := day(2024, time.February, 2)

	err := store.Push(ctx, now, []gradestore.Sample{
		{Course: "AP Mathematics", Date: day(2024, time.February, 1), Percent: pct(85)},
		{Course: "English 10", Date: day(2024, time.February, 1), Percent: pct(91)},
	})
	require.NoError(t, err)

	samples, err := store.Pull(ctx, "math", day(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, "AP Mathematics", samples[0].Course)
}

func TestSameDayReplacement(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	err := store.Push(ctx, day(2024, time.February, 1), []gradestore.Sample{
		{Course: "Biology", Date: day(2024, time.February, 1), Percent: pct(70)},
	})
	require.NoError(t, err)

	// a later push on the same day supersedes the morning's sample
	err = store.Push(ctx, day(2024, time.February, 1).Add(time.Hour*8), []gradestore.Sample{
		{Course: "Biology", Date: day(2024, time.February, 1), Percent: pct(74)},
	})
	require.NoError(t, err)

	samples, err := store.Pull(ctx, "biology", day(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, 74.0, *samples[0].Percent)
}

func TestPullAfterCutoff(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	err := store.Push(ctx, day(2024, time.February, 2), []gradestore.Sample{
		{Course: "Biology", Date: day(2024, time.January, 5), Percent: pct(60)},
		{Course: "Biology", Date: day(2024, time.February, 1), Percent: pct(74)},
	})
	require.NoError(t, err)

	samples, err := store.Pull(ctx, "", day(2024, time.January, 11))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, day(2024, time.February, 1), samples[0].Date)
}
