package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pmb-api/internal/models"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

type numberStoreStub struct {
	numbers   map[string][]string
	count     map[string]int
	lateTaken map[string]bool
	err       error
}

func (s *numberStoreStub) CountByWave(ctx context.Context, waveID string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if c, ok := s.count[waveID]; ok {
		return c, nil
	}
	return len(s.numbers[waveID]), nil
}

func (s *numberStoreStub) ListNumbersByWave(ctx context.Context, waveID string) ([]string, error) {
	return s.numbers[waveID], s.err
}

func (s *numberStoreStub) ExistsNumber(ctx context.Context, waveID, number string) (bool, error) {
	if s.lateTaken[number] {
		return true, nil
	}
	for _, n := range s.numbers[waveID] {
		if n == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *numberStoreStub) issue(waveID, number string) {
	if s.numbers == nil {
		s.numbers = map[string][]string{}
	}
	s.numbers[waveID] = append(s.numbers[waveID], number)
}

type counterStub struct {
	values map[string]int64
	calls  int
}

func (c *counterStub) Next(ctx context.Context, waveID string, floor int64) (int64, error) {
	c.calls++
	if c.values == nil {
		c.values = map[string]int64{}
	}
	if c.values[waveID] < floor {
		c.values[waveID] = floor
	}
	c.values[waveID]++
	return c.values[waveID], nil
}

func januaryWave() models.Wave {
	return models.Wave{ID: "w1", Name: "Gelombang 1", StartDate: models.MustParseDate("2025-01-01"), EndDate: models.MustParseDate("2025-01-31")}
}

func TestAllocateContinuesAfterIssuedNumbers(t *testing.T) {
	store := &numberStoreStub{numbers: map[string][]string{"w1": {"20250115-001", "20250115-002"}}}
	alloc := NewSequenceAllocator(store, nil, 0, nil, nil)

	got, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-01-15"), []models.Wave{januaryWave()})
	require.NoError(t, err)
	assert.Equal(t, "20250115-003", got.Number)
	assert.Equal(t, "w1", got.WaveID)
	assert.Equal(t, 3, got.Sequence)
	assert.Equal(t, 0, got.Probes)
}

func TestAllocateRejectsDateOutsideWaves(t *testing.T) {
	alloc := NewSequenceAllocator(&numberStoreStub{}, nil, 0, nil, nil)

	_, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-06-15"), []models.Wave{januaryWave()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNoWaveForDate))
	assert.Equal(t, 422, appErrors.FromError(err).Status)
}

func TestAllocateProbesPastCollisions(t *testing.T) {
	// One registration was deleted, so the count lags behind the highest number.
	store := &numberStoreStub{numbers: map[string][]string{"w1": {"20250110-002", "20250110-003"}}}
	alloc := NewSequenceAllocator(store, nil, 0, nil, nil)

	got, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-01-10"), []models.Wave{januaryWave()})
	require.NoError(t, err)
	assert.Equal(t, "20250110-004", got.Number)
	assert.Equal(t, 1, got.Probes)
}

func TestAllocateProbesConsecutiveCollisions(t *testing.T) {
	store := &numberStoreStub{
		numbers: map[string][]string{"w1": {"20250110-003", "20250110-004"}},
		count:   map[string]int{"w1": 2},
	}
	alloc := NewSequenceAllocator(store, nil, 0, nil, nil)

	got, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-01-10"), []models.Wave{januaryWave()})
	require.NoError(t, err)
	assert.Equal(t, "20250110-005", got.Number)
	assert.Equal(t, 5, got.Sequence)
	assert.Equal(t, 2, got.Probes)
}

func TestAllocateFinalExistenceCheck(t *testing.T) {
	store := &numberStoreStub{lateTaken: map[string]bool{"20250110-001": true}}
	alloc := NewSequenceAllocator(store, nil, 0, nil, nil)

	got, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-01-10"), []models.Wave{januaryWave()})
	require.NoError(t, err)
	assert.Equal(t, "20250110-002", got.Number)
	assert.Equal(t, 1, got.Probes)
}

func TestAllocateNumbersAreDistinctWithinWave(t *testing.T) {
	store := &numberStoreStub{}
	alloc := NewSequenceAllocator(store, nil, 0, nil, nil)
	waves := []models.Wave{januaryWave()}
	dates := []string{"2025-01-02", "2025-01-02", "2025-01-03", "2025-01-31", "2025-01-02"}

	seen := map[string]struct{}{}
	for i := 0; i < 40; i++ {
		date := models.MustParseDate(dates[i%len(dates)])
		got, err := alloc.Allocate(context.Background(), date, waves)
		require.NoError(t, err)

		assert.True(t, ValidNumber(got.Number), got.Number)
		assert.Equal(t, date.Compact(), got.Number[:8])
		_, dup := seen[got.Number]
		assert.False(t, dup, "duplicate number %s", got.Number)
		seen[got.Number] = struct{}{}
		store.issue(got.WaveID, got.Number)
	}
}

func TestAllocateSequenceExhausted(t *testing.T) {
	t.Run("beyond three digits", func(t *testing.T) {
		store := &numberStoreStub{count: map[string]int{"w1": 999}}
		alloc := NewSequenceAllocator(store, nil, 0, nil, nil)

		_, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-01-20"), []models.Wave{januaryWave()})
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrSequenceExhausted))
	})

	t.Run("probe cap", func(t *testing.T) {
		store := &numberStoreStub{count: map[string]int{"w1": 0}, numbers: map[string][]string{"w1": {
			"20250120-001", "20250120-002", "20250120-003", "20250120-004",
		}}}
		alloc := NewSequenceAllocator(store, nil, 2, nil, nil)

		_, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-01-20"), []models.Wave{januaryWave()})
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrSequenceExhausted))
	})
}

func TestAllocatePropagatesReadFailure(t *testing.T) {
	store := &numberStoreStub{err: errors.New("connection reset")}
	alloc := NewSequenceAllocator(store, nil, 0, nil, nil)

	_, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-01-20"), []models.Wave{januaryWave()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestAllocateWithCounter(t *testing.T) {
	store := &numberStoreStub{numbers: map[string][]string{"w1": {"20250115-001", "20250115-002"}}}
	counter := &counterStub{}
	alloc := NewSequenceAllocator(store, counter, 0, nil, nil)
	assert.Equal(t, "counter", alloc.Strategy())

	first, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-01-15"), []models.Wave{januaryWave()})
	require.NoError(t, err)
	assert.Equal(t, "20250115-003", first.Number)

	// Counter keeps moving even before the first number is stored.
	second, err := alloc.Allocate(context.Background(), models.MustParseDate("2025-01-15"), []models.Wave{januaryWave()})
	require.NoError(t, err)
	assert.Equal(t, "20250115-004", second.Number)
	assert.Equal(t, 2, counter.calls)
}

func TestResolveWaveOverlap(t *testing.T) {
	early := models.Wave{ID: "b", StartDate: models.MustParseDate("2025-01-01"), EndDate: models.MustParseDate("2025-02-15")}
	late := models.Wave{ID: "a", StartDate: models.MustParseDate("2025-02-01"), EndDate: models.MustParseDate("2025-02-28")}
	tie := models.Wave{ID: "a0", StartDate: models.MustParseDate("2025-01-01"), EndDate: models.MustParseDate("2025-03-01")}

	wave, others, err := ResolveWave(models.MustParseDate("2025-02-10"), []models.Wave{late, early})
	require.NoError(t, err)
	assert.Equal(t, "b", wave.ID)
	require.Len(t, others, 1)
	assert.Equal(t, "a", others[0].ID)

	wave, _, err = ResolveWave(models.MustParseDate("2025-02-10"), []models.Wave{late, early, tie})
	require.NoError(t, err)
	assert.Equal(t, "a0", wave.ID)
}

func TestResolveWaveBoundsInclusive(t *testing.T) {
	for _, raw := range []string{"2025-01-01", "2025-01-31"} {
		wave, _, err := ResolveWave(models.MustParseDate(raw), []models.Wave{januaryWave()})
		require.NoError(t, err, raw)
		assert.Equal(t, "w1", wave.ID)
	}
	_, _, err := ResolveWave(models.MustParseDate("2025-02-01"), []models.Wave{januaryWave()})
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	date := models.MustParseDate("2025-03-07")
	assert.Equal(t, "20250307-001", FormatNumber(date, 1))
	assert.Equal(t, "20250307-042", FormatNumber(date, 42))
	assert.Equal(t, "20250307-999", FormatNumber(date, 999))
	assert.False(t, ValidNumber("2025037-001"))
	assert.False(t, ValidNumber("20250307-1000"))
}
