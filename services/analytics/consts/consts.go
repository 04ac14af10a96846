package consts

const (
	// Recency window for the "who needs a nudge right now" signals
	DefaultRecentWindowSize = 8

	// Gap thresholds (seconds)
	DefaultInterruptionGapMaxSec = 1.5
	DefaultSilenceMinSec         = 15.0

	// Word-share thresholds
	SummaryShareThreshold = 0.10 // underrepresentation for coaching prompts
	LiveShareThreshold    = 0.20 // underrepresentation for live diagnostics
	DominantShareAlert    = 0.6

	// Interruptions above this fraction of turn transitions flip the verdict
	InterruptionTurnRatioAlert = 0.3

	// Rendering conventions. Never fed back into word/time totals.
	DefaultMinSegmentWidthPct = 2.0
	SyntheticEndSec           = 0.5
	ExcerptMaxLen             = 120
)
