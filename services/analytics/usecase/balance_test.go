package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetpulse/backend/services/analytics/entity"
)

func TestClassifyBalance_Balanced(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "one two three four five", 0, 5),
		utt("Bob", "six seven eight nine ten", 10, 15),
	}

	opts := DefaultOptions()
	agg := computeAggregates(log)
	win := computeWindowSignals(log, opts)
	under := underrepresentedBelow(agg, opts.UnderrepresentedShare)

	verdict := classifyBalance(agg, win, under, nil, opts)

	assert.Equal(t, entity.BalanceBalanced, verdict.Status)
	assert.Empty(t, verdict.Reasons)
}

func TestClassifyBalance_RecentDominance(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "a b c d e f g h i j k l m n o p q r s t"),
		utt("Bob", "ok"),
	}

	opts := DefaultOptions()
	agg := computeAggregates(log)
	win := computeWindowSignals(log, opts)

	verdict := classifyBalance(agg, win, nil, nil, opts)

	require.Equal(t, entity.BalanceNeedsAttention, verdict.Status)
	require.NotEmpty(t, verdict.Reasons)
	assert.Contains(t, verdict.Reasons[0], "Alice")
	assert.Contains(t, verdict.Reasons[0], "dominating")
}

func TestClassifyBalance_SoleSpeakerWithoutOthersIsFine(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "talking entirely to myself here"),
	}

	opts := DefaultOptions()
	agg := computeAggregates(log)
	win := computeWindowSignals(log, opts)

	verdict := classifyBalance(agg, win, nil, nil, opts)

	assert.Equal(t, entity.BalanceBalanced, verdict.Status)
}

func TestClassifyBalance_SilentParticipantArmsDominanceRule(t *testing.T) {
	// Bob joined but never spoke; Alice at 100% share still needs attention.
	log := []entity.Utterance{
		utt("Alice", "talking entirely to myself here"),
	}

	opts := DefaultOptions()
	agg := computeAggregates(log)
	win := computeWindowSignals(log, opts)

	verdict := classifyBalance(agg, win, nil, []string{"Alice", "Bob"}, opts)

	assert.Equal(t, entity.BalanceNeedsAttention, verdict.Status)
	assert.Empty(t, underrepresentedBelow(agg, opts.UnderrepresentedShare))
	assert.InDelta(t, 1.0, agg.dominantShare, 1e-9)
}

func TestClassifyBalance_UnderrepresentedTrigger(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "one two three"),
		utt("Bob", "four five six"),
		utt("Carol", "ok"),
	}

	opts := DefaultOptions()
	agg := computeAggregates(log)
	win := computeWindowSignals(log, opts)
	under := underrepresentedBelow(agg, opts.UnderrepresentedShare)
	require.Equal(t, []string{"Carol"}, under)

	verdict := classifyBalance(agg, win, under, nil, opts)

	require.Equal(t, entity.BalanceNeedsAttention, verdict.Status)
	joined := strings.Join(verdict.Reasons, "\n")
	assert.Contains(t, joined, "underrepresented")
	assert.Contains(t, joined, "Carol")
}

func TestClassifyBalance_InterruptionTrigger(t *testing.T) {
	// every transition is an instant handover
	log := []entity.Utterance{
		utt("Alice", "one two three four", 0, 2),
		utt("Bob", "five six seven eight", 2.1, 4),
		utt("Alice", "nine ten eleven twelve", 4.2, 6),
	}

	opts := DefaultOptions()
	agg := computeAggregates(log)
	win := computeWindowSignals(log, opts)
	require.Equal(t, 2, win.interruptions)

	verdict := classifyBalance(agg, win, nil, nil, opts)

	require.Equal(t, entity.BalanceNeedsAttention, verdict.Status)
	assert.Contains(t, strings.Join(verdict.Reasons, "\n"), "interruptions")
}

func TestClassifyBalance_Deterministic(t *testing.T) {
	log := []entity.Utterance{
		utt("Alice", "a b c d e f g h i j", 0, 5),
		utt("Bob", "k", 5.1, 6),
	}

	opts := DefaultOptions()
	agg := computeAggregates(log)
	win := computeWindowSignals(log, opts)
	under := underrepresentedBelow(agg, opts.UnderrepresentedShare)

	first := classifyBalance(agg, win, under, nil, opts)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, classifyBalance(agg, win, under, nil, opts))
	}
}
