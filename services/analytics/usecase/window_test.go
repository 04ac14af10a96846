package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetpulse/backend/services/analytics/entity"
)

func TestWindowSignals_InterruptionAttribution(t *testing.T) {
	// Bob starts 0.2s after Alice finishes, within the 1.5s gap ceiling.
	log := []entity.Utterance{
		utt("Alice", "hello there", 0, 1),
		utt("Bob", "hi Alice how are you", 1.2, 3),
	}

	win := computeWindowSignals(log, DefaultOptions())

	assert.Equal(t, 1, win.transitions)
	assert.Equal(t, 1, win.interruptions)
	assert.Equal(t, map[string]int{"Bob": 1}, win.interruptionsBy)
	assert.Empty(t, win.silences)
}

func TestWindowSignals_OverlapCountsAsInterruption(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "let me just finish this", 0, 5),
		utt("Bob", "actually", 4, 6),
	}

	win := computeWindowSignals(log, DefaultOptions())

	assert.Equal(t, 1, win.interruptions)
	assert.Equal(t, 1, win.interruptionsBy["Bob"])
}

func TestWindowSignals_SlowHandoverIsNotInterruption(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "done", 0, 1),
		utt("Bob", "my turn", 4, 5),
	}

	win := computeWindowSignals(log, DefaultOptions())

	assert.Equal(t, 1, win.transitions)
	assert.Zero(t, win.interruptions)
}

func TestWindowSignals_StartToStartFallback(t *testing.T) {
	// Alice has no end time; the gap falls back to consecutive starts.
	log := []entity.Utterance{
		utt("Alice", "quick", 0),
		utt("Bob", "quicker", 1),
	}

	win := computeWindowSignals(log, DefaultOptions())

	assert.Equal(t, 1, win.interruptions)
	assert.Equal(t, 1, win.interruptionsBy["Bob"])
}

func TestWindowSignals_SilencePeriod(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "a", 0, 1),
		utt("Bob", "b", 21, 22),
	}

	win := computeWindowSignals(log, DefaultOptions())

	require.Len(t, win.silences, 1)
	assert.Equal(t, entity.SilencePeriod{FromSec: 1, ToSec: 21, DurationSec: 20}, win.silences[0])
	require.NotNil(t, win.longestSilence)
	assert.Equal(t, win.silences[0], *win.longestSilence)

	require.NotNil(t, win.totalSilenceSec)
	assert.InDelta(t, 20.0, *win.totalSilenceSec, 1e-9)
	require.NotNil(t, win.silenceRatio)
	assert.InDelta(t, 20.0/22.0, *win.silenceRatio, 1e-9)
}

func TestWindowSignals_LongestOfSeveralSilences(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "a", 0, 1),
		utt("Bob", "b", 21, 22),
		utt("Alice", "c", 72, 73),
	}

	win := computeWindowSignals(log, DefaultOptions())

	require.Len(t, win.silences, 2)
	require.NotNil(t, win.longestSilence)
	assert.InDelta(t, 50.0, win.longestSilence.DurationSec, 1e-9)
	require.NotNil(t, win.totalSilenceSec)
	assert.InDelta(t, 70.0, *win.totalSilenceSec, 1e-9)
}

func TestWindowSignals_SilenceNeedsPrevEnd(t *testing.T) {
	// Alice has no end time, so the gap cannot be measured honestly and the
	// silence totals stay "no data" rather than a fabricated zero.
	log := []entity.Utterance{
		utt("Alice", "a", 0),
		utt("Bob", "b", 50, 51),
	}

	win := computeWindowSignals(log, DefaultOptions())

	assert.Empty(t, win.silences)
	assert.Nil(t, win.longestSilence)
	assert.Nil(t, win.totalSilenceSec)
	assert.Nil(t, win.silenceRatio)
}

func TestWindowSignals_MeasurableGapsWithoutSilence(t *testing.T) {
	// both gaps are measurable and short, so a real zero is reported
	log := []entity.Utterance{
		utt("Alice", "a", 0, 1),
		utt("Bob", "b", 1.2, 3),
	}

	win := computeWindowSignals(log, DefaultOptions())

	assert.Empty(t, win.silences)
	require.NotNil(t, win.totalSilenceSec)
	assert.Zero(t, *win.totalSilenceSec)
	require.NotNil(t, win.silenceRatio)
	assert.Zero(t, *win.silenceRatio)
}

func TestWindowSignals_TurnTakingRate(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "a", 0, 10),
		utt("Bob", "b", 20, 30),
		utt("Alice", "c", 40, 60),
	}

	win := computeWindowSignals(log, DefaultOptions())

	require.NotNil(t, win.durationSec)
	assert.InDelta(t, 60.0, *win.durationSec, 1e-9)
	require.NotNil(t, win.turnTakingPerMin)
	assert.InDelta(t, 2.0, *win.turnTakingPerMin, 1e-9)
}

func TestWindowSignals_NoTimestampsDegradesToNoData(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "words without timing"),
		utt("Bob", "more words without timing"),
		utt("Alice", "and a reply"),
	}

	win := computeWindowSignals(log, DefaultOptions())

	assert.Nil(t, win.durationSec)
	assert.Nil(t, win.turnTakingPerMin)
	assert.Nil(t, win.totalSilenceSec)
	assert.Nil(t, win.silenceRatio)
	assert.Nil(t, win.longestSilence)
	assert.Empty(t, win.silences)
	assert.Zero(t, win.interruptions)
	// word-based signals stay available
	assert.Equal(t, 2, win.transitions)
	assert.NotEmpty(t, win.recentDominant)
}

func TestWindowSignals_RecentWindowDominant(t *testing.T) {
	// Alice dominated the whole call, Bob dominates the trailing window.
	log := []entity.Utterance{
		utt("Alice", "a b c d e f g h i j k l m n o p q r s t u v w x y z"),
	}
	for i := 0; i < 8; i++ {
		log = append(log, utt("Bob", "short turn"))
	}

	opts := DefaultOptions()
	win := computeWindowSignals(log, opts)

	assert.Equal(t, "Bob", win.recentDominant)
	assert.InDelta(t, 1.0, win.recentDominantShare, 1e-9)

	agg := computeAggregates(log)
	assert.Equal(t, "Alice", agg.dominant)
}

func TestWindowSignals_SingleTimestampedUtterance(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "only me", 5, 9),
	}

	win := computeWindowSignals(log, DefaultOptions())

	require.NotNil(t, win.durationSec)
	assert.InDelta(t, 4.0, *win.durationSec, 1e-9)
	// rate needs two timestamped utterances
	assert.Nil(t, win.turnTakingPerMin)
}
