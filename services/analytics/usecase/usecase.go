package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/meetpulse/backend/services/analytics/consts"
	"github.com/meetpulse/backend/services/analytics/entity"
	"github.com/meetpulse/backend/services/analytics/storage"
)

type Usecase interface {
	Snapshot(ctx context.Context, sessionID string) (*entity.ParticipationSnapshot, error)
	Transcription(ctx context.Context, sessionID string) (string, error)
}

// Options are the recognized engine tunables. Zero values fall back to the
// defaults in consts, so a partially filled struct is safe to pass.
type Options struct {
	RecentWindowSize           int
	InterruptionGapMaxSec      float64
	SilenceMinSec              float64
	UnderrepresentedShare      float64
	DominantShareAlert         float64
	InterruptionTurnRatioAlert float64
	MinSegmentWidthPct         float64
}

func DefaultOptions() Options {
	return Options{
		RecentWindowSize:           consts.DefaultRecentWindowSize,
		InterruptionGapMaxSec:      consts.DefaultInterruptionGapMaxSec,
		SilenceMinSec:              consts.DefaultSilenceMinSec,
		UnderrepresentedShare:      consts.LiveShareThreshold,
		DominantShareAlert:         consts.DominantShareAlert,
		InterruptionTurnRatioAlert: consts.InterruptionTurnRatioAlert,
		MinSegmentWidthPct:         consts.DefaultMinSegmentWidthPct,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.RecentWindowSize <= 0 {
		o.RecentWindowSize = def.RecentWindowSize
	}
	if o.InterruptionGapMaxSec <= 0 {
		o.InterruptionGapMaxSec = def.InterruptionGapMaxSec
	}
	if o.SilenceMinSec <= 0 {
		o.SilenceMinSec = def.SilenceMinSec
	}
	if o.UnderrepresentedShare <= 0 {
		o.UnderrepresentedShare = def.UnderrepresentedShare
	}
	if o.DominantShareAlert <= 0 {
		o.DominantShareAlert = def.DominantShareAlert
	}
	if o.InterruptionTurnRatioAlert <= 0 {
		o.InterruptionTurnRatioAlert = def.InterruptionTurnRatioAlert
	}
	if o.MinSegmentWidthPct <= 0 {
		o.MinSegmentWidthPct = def.MinSegmentWidthPct
	}
	return o
}

type usecase struct {
	storage storage.Storage
	opts    Options
}

func New(storage storage.Storage, opts Options) Usecase {
	return &usecase{
		storage: storage,
		opts:    opts.withDefaults(),
	}
}

// Snapshot computes the participation snapshot for one session from a single
// point-in-time read of its log. Concurrent calls are independent; each gets
// its own copy of the log and its own snapshot.
func (u *usecase) Snapshot(ctx context.Context, sessionID string) (*entity.ParticipationSnapshot, error) {
	state, err := u.storage.Session(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	return Compute(state, u.opts), nil
}

func (u *usecase) Transcription(ctx context.Context, sessionID string) (string, error) {
	state, err := u.storage.Session(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}

	var b strings.Builder
	for _, utt := range state.Utterances {
		fmt.Fprintf(&b, "[%s]: %s\n", utt.SpeakerName, utt.Text)
	}
	return b.String(), nil
}

// Compute is the pure assembly of a snapshot from a stable session state.
// It allocates but never blocks, and never mutates its input. Recomputing
// from an unchanged state yields an identical snapshot.
func Compute(state *entity.SessionState, opts Options) *entity.ParticipationSnapshot {
	opts = opts.withDefaults()

	agg := computeAggregates(state.Utterances)
	win := computeWindowSignals(state.Utterances, opts)
	underrepresented := underrepresentedBelow(agg, opts.UnderrepresentedShare)
	balance := classifyBalance(agg, win, underrepresented, state.Participants, opts)
	timeline := computeTimeline(state.Utterances, win.silences, opts)

	speakers := agg.speakers
	if speakers == nil {
		speakers = []string{}
	}

	return &entity.ParticipationSnapshot{
		SessionID:              state.SessionID,
		Speakers:               speakers,
		SpeakingShare:          agg.shares,
		TotalWords:             agg.totalWords,
		DominantSpeaker:        agg.dominant,
		DominantShare:          agg.dominantShare,
		RecentDominantSpeaker:  win.recentDominant,
		RecentDominantShare:    win.recentDominantShare,
		Underrepresented:       underrepresented,
		TurnTransitions:        win.transitions,
		Interruptions:          win.interruptions,
		InterruptionsBySpeaker: win.interruptionsBy,
		SilencePeriods:         win.silences,
		LongestSilence:         win.longestSilence,
		TotalSilenceSec:        win.totalSilenceSec,
		SilenceRatio:           win.silenceRatio,
		TurnTakingPerMin:       win.turnTakingPerMin,
		DurationSec:            win.durationSec,
		Balance:                balance,
		Timeline:               timeline,
	}
}
