package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/pmb-api/internal/models"
	appErrors "github.com/noah-isme/pmb-api/pkg/errors"
)

// MaxSequence is the largest sequence that fits the three-digit suffix.
const MaxSequence = 999

var registrationNumberPattern = regexp.MustCompile(`^\d{8}-\d{3}$`)

type registrationNumberReader interface {
	CountByWave(ctx context.Context, waveID string) (int, error)
	ListNumbersByWave(ctx context.Context, waveID string) ([]string, error)
	ExistsNumber(ctx context.Context, waveID, number string) (bool, error)
}

// waveSequenceCounter hands out strictly increasing sequence values per wave.
// floor is the number of registrations already stored, so the first value
// handed out for a wave is at least floor+1.
type waveSequenceCounter interface {
	Next(ctx context.Context, waveID string, floor int64) (int64, error)
}

// Allocation is a minted registration number and the wave it belongs to.
type Allocation struct {
	Number   string `json:"number"`
	WaveID   string `json:"wave_id"`
	Sequence int    `json:"sequence"`
	Probes   int    `json:"probes"`
}

// FormatNumber renders YYYYMMDD-NNN.
func FormatNumber(date models.Date, sequence int) string {
	return fmt.Sprintf("%s-%03d", date.Compact(), sequence)
}

// ValidNumber reports whether number has the YYYYMMDD-NNN shape.
func ValidNumber(number string) bool {
	return registrationNumberPattern.MatchString(number)
}

// ResolveWave returns the wave covering date. When several waves overlap on
// date the one with the earliest start wins, ties broken by lowest ID, and
// the losers are returned so the caller can report the data problem.
func ResolveWave(date models.Date, waves []models.Wave) (models.Wave, []models.Wave, error) {
	var candidates []models.Wave
	for _, wave := range waves {
		if wave.Contains(date) {
			candidates = append(candidates, wave)
		}
	}
	if len(candidates) == 0 {
		return models.Wave{}, nil, appErrors.Clone(appErrors.ErrNoWaveForDate,
			fmt.Sprintf("registration date %s is not covered by any wave", date))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.ID < b.ID
	})
	return candidates[0], candidates[1:], nil
}

// SequenceAllocator mints registration numbers that are unique within a
// wave on a best-effort basis. It never writes registrations; the database
// unique constraint on (wave_id, number) is the last line of defence.
type SequenceAllocator struct {
	numbers   registrationNumberReader
	counter   waveSequenceCounter
	maxProbes int
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewSequenceAllocator builds an allocator. A nil counter selects the
// count-then-probe strategy; a non-nil counter reserves sequences atomically.
func NewSequenceAllocator(numbers registrationNumberReader, counter waveSequenceCounter, maxProbes int, metrics *MetricsService, logger *zap.Logger) *SequenceAllocator {
	if maxProbes <= 0 {
		maxProbes = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SequenceAllocator{numbers: numbers, counter: counter, maxProbes: maxProbes, metrics: metrics, logger: logger}
}

// Strategy names the active sequencing strategy.
func (a *SequenceAllocator) Strategy() string {
	if a.counter != nil {
		return "counter"
	}
	return "probe"
}

// Allocate resolves the wave for date and returns the first free number,
// starting from the wave's registration count + 1 and probing upwards past
// numbers that are already issued. The candidate is re-checked against the
// store right before it is returned.
func (a *SequenceAllocator) Allocate(ctx context.Context, date models.Date, waves []models.Wave) (*Allocation, error) {
	wave, overlapping, err := ResolveWave(date, waves)
	if err != nil {
		a.metrics.ObserveAllocation("no_wave", 0)
		return nil, err
	}
	if len(overlapping) > 0 {
		ids := make([]string, len(overlapping))
		for i, w := range overlapping {
			ids[i] = w.ID
		}
		a.logger.Warn("overlapping waves for registration date",
			zap.String("date", date.String()), zap.String("chosen_wave", wave.ID), zap.Strings("ignored_waves", ids))
	}

	count, err := a.numbers.CountByWave(ctx, wave.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations in wave")
	}
	issuedList, err := a.numbers.ListNumbersByWave(ctx, wave.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issued registration numbers")
	}
	issued := make(map[string]struct{}, len(issuedList))
	for _, n := range issuedList {
		issued[n] = struct{}{}
	}

	next, err := a.sequenceSource(ctx, wave.ID, count)
	if err != nil {
		return nil, err
	}

	probes := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seq, err := next()
		if err != nil {
			return nil, err
		}
		if seq > MaxSequence || probes > a.maxProbes {
			a.metrics.ObserveAllocation("exhausted", probes)
			return nil, appErrors.Clone(appErrors.ErrSequenceExhausted,
				fmt.Sprintf("no free registration number in wave %s after %d probes", wave.ID, probes))
		}

		number := FormatNumber(date, seq)
		if _, taken := issued[number]; taken {
			probes++
			continue
		}

		exists, err := a.numbers.ExistsNumber(ctx, wave.ID, number)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify registration number")
		}
		if exists {
			// Issued between the snapshot and now.
			issued[number] = struct{}{}
			probes++
			continue
		}

		a.metrics.ObserveAllocation("ok", probes)
		return &Allocation{Number: number, WaveID: wave.ID, Sequence: seq, Probes: probes}, nil
	}
}

// sequenceSource returns a generator of candidate sequences. The probe
// strategy increments locally from count+1; the counter strategy reserves
// every candidate from the shared counter so concurrent callers never see the
// same value.
func (a *SequenceAllocator) sequenceSource(ctx context.Context, waveID string, count int) (func() (int, error), error) {
	if a.counter == nil {
		seq := count
		return func() (int, error) {
			seq++
			return seq, nil
		}, nil
	}
	return func() (int, error) {
		v, err := a.counter.Next(ctx, waveID, int64(count))
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve registration sequence")
		}
		return int(v), nil
	}, nil
}
