package usecase

import (
	"unicode/utf8"

	"github.com/meetpulse/backend/services/analytics/consts"
	"github.com/meetpulse/backend/services/analytics/entity"
)

// computeTimeline maps the timestamped part of the log onto a [0,100]
// percent axis for layered rendering, one segment list per speaker, with
// silence overlays on the same axis. Utterances without a start time cannot
// be placed and are left out. A log with no timestamped utterances yields
// nil: nothing to render, not an error.
func computeTimeline(utterances []entity.Utterance, silences []entity.SilencePeriod, opts Options) *entity.Timeline {
	type span struct {
		speaker    string
		start, end float64
		text       string
	}

	var spans []span
	for _, u := range utterances {
		if u.StartSec == nil {
			continue
		}
		start := *u.StartSec
		end := start + consts.SyntheticEndSec
		if u.EndSec != nil && *u.EndSec > start {
			end = *u.EndSec
		}
		spans = append(spans, span{speaker: u.SpeakerName, start: start, end: end, text: u.Text})
	}
	if len(spans) == 0 {
		return nil
	}

	minStart, maxEnd := spans[0].start, spans[0].end
	for _, sp := range spans[1:] {
		if sp.start < minStart {
			minStart = sp.start
		}
		if sp.end > maxEnd {
			maxEnd = sp.end
		}
	}
	total := maxEnd - minStart
	if total <= 0 {
		total = consts.SyntheticEndSec
	}

	tl := &entity.Timeline{
		Segments: make(map[string][]entity.TimelineSegment),
		Silences: []entity.SilenceOverlay{},
	}

	for _, sp := range spans {
		startPct := (sp.start - minStart) / total * 100
		widthPct := (sp.end - sp.start) / total * 100
		if widthPct < opts.MinSegmentWidthPct {
			widthPct = opts.MinSegmentWidthPct
		}
		if startPct+widthPct > 100 {
			startPct = 100 - widthPct
		}
		if startPct < 0 {
			startPct = 0
		}

		tl.Segments[sp.speaker] = append(tl.Segments[sp.speaker], entity.TimelineSegment{
			SpeakerName: sp.speaker,
			StartPct:    startPct,
			WidthPct:    widthPct,
			Excerpt:     excerpt(sp.text, consts.ExcerptMaxLen),
		})
	}

	for _, s := range silences {
		startPct := (s.FromSec - minStart) / total * 100
		endPct := (s.ToSec - minStart) / total * 100
		if startPct < 0 {
			startPct = 0
		}
		if endPct > 100 {
			endPct = 100
		}
		if endPct <= startPct {
			continue
		}
		tl.Silences = append(tl.Silences, entity.SilenceOverlay{
			StartPct: startPct,
			WidthPct: endPct - startPct,
		})
	}

	return tl
}

// excerpt bounds the tooltip text so snapshots stay small regardless of how
// long a turn ran.
func excerpt(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen]) + "..."
}
