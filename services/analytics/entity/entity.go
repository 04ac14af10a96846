package entity

import (
	"github.com/google/uuid"
)

// Utterance is one finalized, speaker-attributed speech turn. The log of
// utterances is append-only and ordered by arrival; Text is never mutated
// after append. Start/End are seconds since an arbitrary but consistent
// epoch for the session and may be absent when the provider sent no timing.
type Utterance struct {
	ID          uuid.UUID `json:"id"`
	SpeakerID   string    `json:"speaker_id"`
	SpeakerName string    `json:"speaker_name"`
	Text        string    `json:"text"`
	StartSec    *float64  `json:"start_sec,omitempty"`
	EndSec      *float64  `json:"end_sec,omitempty"`
}

// PartialUtterance is the single in-progress utterance of a session. It is
// replaced wholesale on every update, cleared when the matching utterance
// finalizes, and never counted in any metric.
type PartialUtterance struct {
	SpeakerName string `json:"speaker_name"`
	Text        string `json:"text"`
}

// SessionState is a consistent point-in-time copy of one session's data.
// The engine computes over this copy only, so webhook appends racing a
// snapshot query cannot be observed mid-computation.
type SessionState struct {
	SessionID    string
	Utterances   []Utterance
	Partial      *PartialUtterance
	Participants []string
}

type SpeakerAggregate struct {
	WordCount int     `json:"word_count"`
	Share     float64 `json:"share"`
}

type SilencePeriod struct {
	FromSec     float64 `json:"from_sec"`
	ToSec       float64 `json:"to_sec"`
	DurationSec float64 `json:"duration_sec"`
}

// TimelineSegment is a rendering-ready span for one speaker, normalized to
// percent of the session span. WidthPct may be widened to a minimum visual
// width; that widening never feeds back into word or time shares.
type TimelineSegment struct {
	SpeakerName string  `json:"speaker_name"`
	StartPct    float64 `json:"start_pct"`
	WidthPct    float64 `json:"width_pct"`
	Excerpt     string  `json:"excerpt"`
}

// SilenceOverlay is a silence period mapped onto the same [0,100] axis.
type SilenceOverlay struct {
	StartPct float64 `json:"start_pct"`
	WidthPct float64 `json:"width_pct"`
}

type Timeline struct {
	Segments map[string][]TimelineSegment `json:"segments"`
	Silences []SilenceOverlay             `json:"silences"`
}

type BalanceStatus string

const (
	BalanceBalanced       BalanceStatus = "balanced"
	BalanceNeedsAttention BalanceStatus = "needs_attention"
)

type BalanceVerdict struct {
	Status  BalanceStatus `json:"status"`
	Reasons []string      `json:"reasons"`
}

// ParticipationSnapshot is the engine's public output. It is built fresh on
// every query from the current log, never mutated afterwards, and superseded
// by the next query's snapshot. Pointer fields are nil when the log carries
// no timing data; zero is never used to mean "unknown".
type ParticipationSnapshot struct {
	SessionID              string                      `json:"session_id"`
	Speakers               []string                    `json:"speakers"`
	SpeakingShare          map[string]SpeakerAggregate `json:"speaking_share"`
	TotalWords             int                         `json:"total_words"`
	DominantSpeaker        string                      `json:"dominant_speaker,omitempty"`
	DominantShare          float64                     `json:"dominant_share"`
	RecentDominantSpeaker  string                      `json:"recent_dominant_speaker,omitempty"`
	RecentDominantShare    float64                     `json:"recent_dominant_share"`
	Underrepresented       []string                    `json:"underrepresented"`
	TurnTransitions        int                         `json:"turn_transitions"`
	Interruptions          int                         `json:"interruptions"`
	InterruptionsBySpeaker map[string]int              `json:"interruptions_by_speaker"`
	SilencePeriods         []SilencePeriod             `json:"silence_periods"`
	LongestSilence         *SilencePeriod              `json:"longest_silence,omitempty"`
	TotalSilenceSec        *float64                    `json:"total_silence_sec,omitempty"`
	SilenceRatio           *float64                    `json:"silence_ratio,omitempty"`
	TurnTakingPerMin       *float64                    `json:"turn_taking_per_min,omitempty"`
	DurationSec            *float64                    `json:"duration_sec,omitempty"`
	Balance                BalanceVerdict              `json:"balance"`
	Timeline               *Timeline                   `json:"timeline,omitempty"`
}
