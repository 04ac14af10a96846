package usecase

import (
	"github.com/meetpulse/backend/services/analytics/entity"
)

// windowSignals are the recency-biased and timing-derived views over the
// log. Every pointer field is nil when the log carries no usable timing
// data; a zero there would read as a real measurement.
type windowSignals struct {
	recentDominant      string
	recentDominantShare float64
	transitions         int
	interruptions       int
	interruptionsBy     map[string]int
	silences            []entity.SilencePeriod
	longestSilence      *entity.SilencePeriod
	totalSilenceSec     *float64
	silenceRatio        *float64
	turnTakingPerMin    *float64
	durationSec         *float64
}

func computeWindowSignals(utterances []entity.Utterance, opts Options) windowSignals {
	win := windowSignals{
		interruptionsBy: make(map[string]int),
		silences:        []entity.SilencePeriod{},
	}

	// Whole-call dominance is a poor proxy for who needs a nudge right now,
	// so dominance is recomputed over just the trailing window.
	recent := utterances
	if opts.RecentWindowSize > 0 && len(recent) > opts.RecentWindowSize {
		recent = recent[len(recent)-opts.RecentWindowSize:]
	}
	recentAgg := computeAggregates(recent)
	win.recentDominant = recentAgg.dominant
	win.recentDominantShare = recentAgg.dominantShare

	timestamped := 0
	var minStart, maxEnd float64
	for _, u := range utterances {
		if u.StartSec == nil {
			continue
		}
		end := *u.StartSec
		if u.EndSec != nil && *u.EndSec > end {
			end = *u.EndSec
		}
		if timestamped == 0 || *u.StartSec < minStart {
			minStart = *u.StartSec
		}
		if timestamped == 0 || end > maxEnd {
			maxEnd = end
		}
		timestamped++
	}
	if timestamped > 0 {
		d := maxEnd - minStart
		win.durationSec = &d
	}

	measurableGaps := 0
	for i := 1; i < len(utterances); i++ {
		prev, next := utterances[i-1], utterances[i]

		if next.SpeakerName != prev.SpeakerName {
			win.transitions++

			// Interruption heuristic: the next speaker began essentially
			// before or as the prior one finished. No overlap signal exists
			// in the data, so fast turn-taking counts too.
			if gap, ok := transitionGap(prev, next); ok && gap <= opts.InterruptionGapMaxSec {
				win.interruptions++
				win.interruptionsBy[next.SpeakerName]++
			}
		}

		// Silence needs the real end of the prior utterance; approximating
		// it from the start would overstate the gap by the turn's length.
		if prev.EndSec != nil && next.StartSec != nil {
			measurableGaps++
			gap := *next.StartSec - *prev.EndSec
			if gap > opts.SilenceMinSec {
				win.silences = append(win.silences, entity.SilencePeriod{
					FromSec:     *prev.EndSec,
					ToSec:       *next.StartSec,
					DurationSec: gap,
				})
			}
		}
	}

	if len(win.silences) > 0 {
		longest := win.silences[0]
		total := 0.0
		for _, sp := range win.silences {
			total += sp.DurationSec
			if sp.DurationSec > longest.DurationSec {
				longest = sp
			}
		}
		win.longestSilence = &longest
		win.totalSilenceSec = &total
		if win.durationSec != nil && *win.durationSec > 0 {
			ratio := total / *win.durationSec
			win.silenceRatio = &ratio
		}
	} else if measurableGaps > 0 && win.durationSec != nil {
		// A zero total is only honest when at least one gap could actually
		// be measured; otherwise silence stays "no data".
		total := 0.0
		ratio := 0.0
		win.totalSilenceSec = &total
		if *win.durationSec > 0 {
			win.silenceRatio = &ratio
		}
	}

	if timestamped >= 2 && win.durationSec != nil && *win.durationSec > 0 {
		rate := float64(win.transitions) / (*win.durationSec / 60.0)
		win.turnTakingPerMin = &rate
	}

	return win
}

// transitionGap is the seconds between the end of prev and the start of
// next, falling back to start-to-start when prev has no end time. The bool
// is false when timing is too sparse to say anything.
func transitionGap(prev, next entity.Utterance) (float64, bool) {
	if next.StartSec == nil {
		return 0, false
	}
	if prev.EndSec != nil {
		return *next.StartSec - *prev.EndSec, true
	}
	if prev.StartSec != nil {
		return *next.StartSec - *prev.StartSec, true
	}
	return 0, false
}
