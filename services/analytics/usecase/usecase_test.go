package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetpulse/backend/pkg/gen"
	"github.com/meetpulse/backend/services/analytics/entity"
	"github.com/meetpulse/backend/services/analytics/storage"
)

func state(utterances ...entity.Utterance) *entity.SessionState {
	return &entity.SessionState{
		SessionID:  "session-1",
		Utterances: utterances,
	}
}

func TestCompute_GreetingScenario(t *testing.T) {
	snap := Compute(state(
		utt("Alice", "hello there", 0, 1),
		utt("Bob", "hi Alice how are you", 1.2, 3),
	), DefaultOptions())

	assert.InDelta(t, 2.0/7.0, snap.SpeakingShare["Alice"].Share, 1e-9)
	assert.InDelta(t, 5.0/7.0, snap.SpeakingShare["Bob"].Share, 1e-9)
	assert.Equal(t, "Bob", snap.DominantSpeaker)
	assert.Equal(t, 1, snap.Interruptions)
	assert.Equal(t, map[string]int{"Bob": 1}, snap.InterruptionsBySpeaker)
	assert.Empty(t, snap.SilencePeriods)
	require.NotNil(t, snap.DurationSec)
	assert.InDelta(t, 3.0, *snap.DurationSec, 1e-9)
}

func TestCompute_SilenceScenario(t *testing.T) {
	snap := Compute(state(
		utt("Alice", "a", 0, 1),
		utt("Bob", "b", 21, 22),
	), DefaultOptions())

	require.Len(t, snap.SilencePeriods, 1)
	assert.InDelta(t, 20.0, snap.SilencePeriods[0].DurationSec, 1e-9)
	require.NotNil(t, snap.LongestSilence)
	assert.Equal(t, snap.SilencePeriods[0], *snap.LongestSilence)
}

func TestCompute_SoloSpeakerScenario(t *testing.T) {
	snap := Compute(&entity.SessionState{
		SessionID: "session-1",
		Utterances: []entity.Utterance{
			utt("Alice", "every single word in this call is mine"),
		},
		Participants: []string{"Alice", "Bob"},
	}, DefaultOptions())

	assert.Empty(t, snap.Underrepresented)
	assert.InDelta(t, 1.0, snap.DominantShare, 1e-9)
	// Bob is present but silent, so the dominance rule still fires
	assert.Equal(t, entity.BalanceNeedsAttention, snap.Balance.Status)
}

func TestCompute_EmptyLog(t *testing.T) {
	snap := Compute(state(), DefaultOptions())

	assert.Empty(t, snap.Speakers)
	assert.Empty(t, snap.SpeakingShare)
	assert.Zero(t, snap.TotalWords)
	assert.Empty(t, snap.DominantSpeaker)
	assert.Nil(t, snap.DurationSec)
	assert.Nil(t, snap.TurnTakingPerMin)
	assert.Nil(t, snap.Timeline)
	assert.Equal(t, entity.BalanceBalanced, snap.Balance.Status)
}

func TestCompute_DegradationWithoutTimestamps(t *testing.T) {
	snap := Compute(state(
		utt("Alice", "plenty of words here"),
		utt("Bob", "and some more"),
	), DefaultOptions())

	assert.Nil(t, snap.DurationSec)
	assert.Nil(t, snap.TurnTakingPerMin)
	assert.Nil(t, snap.TotalSilenceSec)
	assert.Empty(t, snap.SilencePeriods)
	assert.Zero(t, snap.Interruptions)
	assert.Nil(t, snap.Timeline)
	assert.NotEmpty(t, snap.SpeakingShare)
}

func TestCompute_Idempotent(t *testing.T) {
	s := state(
		utt("Alice", "hello there", 0, 1),
		utt("Bob", "hi Alice how are you", 1.2, 3),
		utt("Carol", "sorry I am late", 30, 32),
	)

	first := Compute(s, DefaultOptions())
	second := Compute(s, DefaultOptions())

	assert.Equal(t, first, second)
}

func TestCompute_AppendIsMonotone(t *testing.T) {
	utterances := []entity.Utterance{
		utt("Alice", "one two", 0, 1),
		utt("Bob", "three", 2, 3),
	}

	before := Compute(state(utterances...), DefaultOptions())
	after := Compute(state(append(utterances, utt("Alice", "four five six", 4, 6))...), DefaultOptions())

	assert.GreaterOrEqual(t, after.SpeakingShare["Alice"].WordCount, before.SpeakingShare["Alice"].WordCount)
	assert.GreaterOrEqual(t, after.TotalWords, before.TotalWords)
}

func TestUsecase_SnapshotFromStorage(t *testing.T) {
	ctx := context.Background()
	stg := storage.New(gen.UUID())
	u := New(stg, DefaultOptions())

	require.NoError(t, stg.CreateSession(ctx, "session-1"))
	_, err := stg.AppendUtterance(ctx, "session-1", utt("Alice", "hello there", 0, 1))
	require.NoError(t, err)
	_, err = stg.AppendUtterance(ctx, "session-1", utt("Bob", "hi Alice how are you", 1.2, 3))
	require.NoError(t, err)

	snap, err := u.Snapshot(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Bob", snap.DominantSpeaker)
	assert.Equal(t, 7, snap.TotalWords)
}

func TestUsecase_SnapshotUnknownSession(t *testing.T) {
	u := New(storage.New(gen.UUID()), DefaultOptions())

	_, err := u.Snapshot(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestUsecase_Transcription(t *testing.T) {
	ctx := context.Background()
	stg := storage.New(gen.UUID())
	u := New(stg, DefaultOptions())

	_, err := stg.AppendUtterance(ctx, "session-1", utt("Alice", "hello"))
	require.NoError(t, err)
	_, err = stg.AppendUtterance(ctx, "session-1", utt("Bob", "hi"))
	require.NoError(t, err)

	text, err := u.Transcription(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "[Alice]: hello\n[Bob]: hi\n", text)
}
