package usecase

import (
	"strings"

	"github.com/meetpulse/backend/services/analytics/entity"
)

// aggregates holds the whole-call word statistics. Speakers are kept in
// first-appearance order so the dominant tie-break is stable across runs
// (map iteration order is randomized).
type aggregates struct {
	speakers      []string
	counts        map[string]int
	shares        map[string]entity.SpeakerAggregate
	totalWords    int
	dominant      string
	dominantShare float64
}

// wordCount tokenizes on whitespace and counts non-empty tokens. Utterances
// that tokenize to nothing contribute no words; that is not an error.
func wordCount(text string) int {
	return len(strings.Fields(text))
}

func computeAggregates(utterances []entity.Utterance) aggregates {
	agg := aggregates{
		counts: make(map[string]int),
		shares: make(map[string]entity.SpeakerAggregate),
	}

	for _, u := range utterances {
		if _, seen := agg.counts[u.SpeakerName]; !seen {
			agg.speakers = append(agg.speakers, u.SpeakerName)
		}
		n := wordCount(u.Text)
		agg.counts[u.SpeakerName] += n
		agg.totalWords += n
	}

	if agg.totalWords == 0 {
		return agg
	}

	for _, name := range agg.speakers {
		share := float64(agg.counts[name]) / float64(agg.totalWords)
		agg.shares[name] = entity.SpeakerAggregate{
			WordCount: agg.counts[name],
			Share:     share,
		}
		// strict comparison keeps the first-encountered speaker on ties
		if share > agg.dominantShare {
			agg.dominantShare = share
			agg.dominant = name
		}
	}

	return agg
}

// underrepresentedBelow returns the speakers whose word share falls below
// threshold, in first-appearance order. Underrepresentation is relative to
// the other people in the log: with fewer than two speakers there is nobody
// to be underrepresented against.
func underrepresentedBelow(agg aggregates, threshold float64) []string {
	out := []string{}
	if agg.totalWords == 0 || len(agg.speakers) < 2 {
		return out
	}

	for _, name := range agg.speakers {
		if agg.shares[name].Share < threshold {
			out = append(out, name)
		}
	}
	return out
}

// Underrepresented recomputes the underrepresented set over a raw log with a
// caller-chosen threshold. The coaching prompt builder uses a looser
// threshold than the live diagnostics path, so this is exposed separately
// from Compute.
func Underrepresented(utterances []entity.Utterance, threshold float64) []string {
	return underrepresentedBelow(computeAggregates(utterances), threshold)
}
