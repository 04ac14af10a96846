package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	coachClient "github.com/meetpulse/backend/gateways/meet/clients/coach"
	firefliesClient "github.com/meetpulse/backend/gateways/meet/clients/fireflies"
	"github.com/meetpulse/backend/gateways/meet/metrics"
	"github.com/meetpulse/backend/services/analytics/consts"
	"github.com/meetpulse/backend/services/analytics/entity"
	"github.com/meetpulse/backend/services/analytics/storage"
	"github.com/meetpulse/backend/services/analytics/usecase"
)

const feedbackDelay = 10 * time.Minute

// MeetingMonitor owns the lifecycle of monitored meetings. Each session's
// utterance log is mutated only through this monitor, in webhook arrival
// order; snapshot reads go through the analytics usecase, which copies the
// log before computing.
type MeetingMonitor struct {
	firefliesClient *firefliesClient.Client
	coachClient     *coachClient.Client
	analytics       usecase.Usecase
	storage         storage.Storage
	summaryShare    float64
	meetings        map[string]*MeetingSession
	mu              sync.RWMutex
	log             *slog.Logger
}

type MeetingSession struct {
	BotID        string
	MeetingID    string
	MeetingURL   string
	StartTime    time.Time
	Timer        *time.Timer
	FeedbackSent bool
}

// New builds a monitor. summaryShare is the underrepresentation threshold for
// the coaching prompt; zero or negative falls back to the default.
func New(fireflies *firefliesClient.Client, coach *coachClient.Client, analytics usecase.Usecase, stg storage.Storage, summaryShare float64, log *slog.Logger) *MeetingMonitor {
	log.Debug("creating new meeting monitor")
	if summaryShare <= 0 {
		summaryShare = consts.SummaryShareThreshold
	}
	return &MeetingMonitor{
		firefliesClient: fireflies,
		coachClient:     coach,
		analytics:       analytics,
		storage:         stg,
		summaryShare:    summaryShare,
		meetings:        make(map[string]*MeetingSession),
		log:             log,
	}
}

// StartMeeting joins a meeting via the Fireflies bot, registers the
// analytics session, and schedules coaching feedback after 10 minutes.
func (m *MeetingMonitor) StartMeeting(ctx context.Context, meetingURL string) (string, string, error) {
	m.log.Info("starting meeting monitoring", slog.String("meeting_url", meetingURL))
	bot, err := m.firefliesClient.CreateBot(meetingURL)
	if err != nil {
		m.log.Error("failed to create fireflies bot",
			slog.String("error", err.Error()),
			slog.String("meeting_url", meetingURL))
		return "", "", fmt.Errorf("failed to create fireflies bot: %w", err)
	}
	m.log.Info("fireflies bot created successfully",
		slog.String("bot_id", bot.BotID),
		slog.String("meeting_id", bot.MeetingID),
		slog.String("status", bot.Status))

	// The webhook may have beaten us here, in which case the session log
	// already exists and keeps everything it collected.
	if err := m.storage.CreateSession(ctx, bot.BotID); err != nil {
		m.log.Warn("analytics session already present", slog.String("bot_id", bot.BotID))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session := &MeetingSession{
		BotID:        bot.BotID,
		MeetingID:    bot.MeetingID,
		MeetingURL:   meetingURL,
		StartTime:    time.Now(),
		FeedbackSent: false,
	}

	m.log.Info("scheduling feedback", slog.String("bot_id", bot.BotID), slog.Duration("delay", feedbackDelay))
	session.Timer = time.AfterFunc(feedbackDelay, func() {
		m.log.Debug("feedback timer triggered", slog.String("bot_id", bot.BotID))
		m.sendFeedbackToMeeting(context.Background(), bot.BotID)
	})

	m.meetings[bot.BotID] = session
	metrics.ActiveSessions.Set(float64(len(m.meetings)))
	m.log.Info("bot joined meeting",
		slog.String("bot_id", bot.BotID),
		slog.String("meeting_id", bot.MeetingID),
		slog.String("meeting_url", meetingURL))

	return bot.BotID, bot.MeetingID, nil
}

// StopMeeting stops the bot, cancels the feedback timer, and drops the
// session and its log.
func (m *MeetingMonitor) StopMeeting(ctx context.Context, botID string) error {
	m.log.Info("stopping meeting", slog.String("bot_id", botID))
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.meetings[botID]
	if !exists {
		m.log.Warn("bot not found", slog.String("bot_id", botID))
		return fmt.Errorf("bot %s not found", botID)
	}

	if session.Timer != nil {
		session.Timer.Stop()
	}
	delete(m.meetings, botID)
	metrics.ActiveSessions.Set(float64(len(m.meetings)))

	if err := m.storage.DeleteSession(ctx, botID); err != nil {
		m.log.Warn("failed to delete analytics session",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
	}

	m.log.Info("bot stopped", slog.String("bot_id", botID))
	return nil
}

// HandleUtterance appends one finalized utterance from a webhook delivery.
func (m *MeetingMonitor) HandleUtterance(ctx context.Context, sessionID string, u entity.Utterance) error {
	stored, err := m.storage.AppendUtterance(ctx, sessionID, u)
	if err != nil {
		return fmt.Errorf("failed to append utterance: %w", err)
	}
	m.log.Debug("utterance appended",
		slog.String("session_id", sessionID),
		slog.String("utterance_id", stored.ID.String()),
		slog.String("speaker", stored.SpeakerName))
	return nil
}

// HandlePartial replaces the session's single in-progress utterance.
func (m *MeetingMonitor) HandlePartial(ctx context.Context, sessionID string, p entity.PartialUtterance) error {
	if err := m.storage.SetPartial(ctx, sessionID, p); err != nil {
		return fmt.Errorf("failed to set partial utterance: %w", err)
	}
	return nil
}

// HandleParticipants replaces the session's participant roster.
func (m *MeetingMonitor) HandleParticipants(ctx context.Context, sessionID string, names []string) error {
	if err := m.storage.SetParticipants(ctx, sessionID, names); err != nil {
		return fmt.Errorf("failed to set participants: %w", err)
	}
	return nil
}

// Snapshot computes the participation snapshot for a monitored meeting.
func (m *MeetingMonitor) Snapshot(ctx context.Context, botID string) (*entity.ParticipationSnapshot, error) {
	metrics.SnapshotQueries.Inc()
	timer := time.Now()
	snapshot, err := m.analytics.Snapshot(ctx, botID)
	if err != nil {
		m.log.Error("failed to compute snapshot",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		return nil, err
	}
	metrics.SnapshotDuration.Observe(time.Since(timer).Seconds())
	return snapshot, nil
}

// Transcription returns the full speaker-attributed text of the session.
func (m *MeetingMonitor) Transcription(ctx context.Context, botID string) (string, error) {
	return m.analytics.Transcription(ctx, botID)
}

// Session returns the raw point-in-time session state (log, partial,
// participants) for serialization next to a snapshot.
func (m *MeetingMonitor) Session(ctx context.Context, botID string) (*entity.SessionState, error) {
	return m.storage.Session(ctx, botID)
}

// sendFeedbackToMeeting fires once per session, builds the coaching request
// from the transcription plus participation analytics, and posts it to the
// coach service.
func (m *MeetingMonitor) sendFeedbackToMeeting(ctx context.Context, botID string) {
	m.log.Info("sendFeedbackToMeeting called", slog.String("bot_id", botID))
	m.mu.Lock()
	session, exists := m.meetings[botID]
	if !exists || session.FeedbackSent {
		if !exists {
			m.log.Warn("meeting session not found", slog.String("bot_id", botID))
		} else {
			m.log.Info("feedback already sent", slog.String("bot_id", botID))
		}
		m.mu.Unlock()
		return
	}
	session.FeedbackSent = true
	m.mu.Unlock()

	transcription, err := m.analytics.Transcription(ctx, botID)
	if err != nil {
		m.log.Error("failed to get transcription",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		return
	}

	if transcription == "" {
		// No webhook traffic landed for this session; backfill the log from
		// the provider's finalized transcript.
		if err := m.backfillFromProvider(ctx, botID); err != nil {
			m.log.Warn("no transcription available for meeting",
				slog.String("error", err.Error()),
				slog.String("bot_id", botID))
			return
		}
		transcription, err = m.analytics.Transcription(ctx, botID)
		if err != nil || transcription == "" {
			m.log.Warn("no transcription available after backfill", slog.String("bot_id", botID))
			return
		}
	}

	snapshot, err := m.analytics.Snapshot(ctx, botID)
	if err != nil {
		m.log.Error("failed to compute snapshot for feedback",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		return
	}

	// The coaching prompt flags quieter voices earlier than the live
	// dashboard does.
	state, err := m.storage.Session(ctx, botID)
	if err != nil {
		m.log.Error("failed to read session for feedback",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		return
	}
	underrepresented := m.coachingUnderrepresented(state.Utterances)

	m.log.Info("calling coach service to generate feedback",
		slog.String("bot_id", botID),
		slog.Int("underrepresented_count", len(underrepresented)),
		slog.String("balance_status", string(snapshot.Balance.Status)))
	feedback, err := m.coachClient.GenerateFeedback(transcription, coachClient.NewParticipationBlock(snapshot, underrepresented))
	if err != nil {
		m.log.Error("failed to generate feedback",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		return
	}

	if err := m.writeFeedbackToChat(botID, feedback); err != nil {
		m.log.Error("failed to write feedback to chat",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		return
	}

	m.log.Info("feedback sent to meeting", slog.String("bot_id", botID))
}

// coachingUnderrepresented flags quieter voices at the configured summary
// threshold, which is looser than the live diagnostics one.
func (m *MeetingMonitor) coachingUnderrepresented(utterances []entity.Utterance) []string {
	return usecase.Underrepresented(utterances, m.summaryShare)
}

func (m *MeetingMonitor) backfillFromProvider(ctx context.Context, botID string) error {
	resp, err := m.firefliesClient.GetTranscription(botID)
	if err != nil {
		return fmt.Errorf("failed to get provider transcript: %w", err)
	}

	for _, s := range resp.Sentences {
		start, end := s.StartTime, s.EndTime
		u := entity.Utterance{
			SpeakerID:   fmt.Sprintf("%d", s.SpeakerID),
			SpeakerName: s.SpeakerName,
			Text:        s.Text,
			StartSec:    &start,
		}
		if end > start {
			u.EndSec = &end
		}
		if _, err := m.storage.AppendUtterance(ctx, botID, u); err != nil {
			return fmt.Errorf("failed to append backfilled utterance: %w", err)
		}
	}

	m.log.Info("backfilled session from provider transcript",
		slog.String("bot_id", botID),
		slog.Int("sentences_count", len(resp.Sentences)))
	return nil
}

// writeFeedbackToChat posts the generated feedback into the meeting chat.
func (m *MeetingMonitor) writeFeedbackToChat(botID string, feedback *coachClient.GenerateFeedbackResponse) error {
	message := fmt.Sprintf("🤖 AI Meeting Coach Feedback:\n\n%s\n\nQuestions:\n", feedback.Feedback)
	for i, question := range feedback.Questions {
		message += fmt.Sprintf("%d. %s\n", i+1, question)
	}

	m.log.Info("feedback message",
		slog.String("bot_id", botID),
		slog.String("message", message),
	)

	m.log.Debug("feedback will be posted via fireflies bot")

	return nil
}

// GetMeetingStatus returns whether feedback was sent and how long the
// meeting has been monitored.
func (m *MeetingMonitor) GetMeetingStatus(botID string) (bool, time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.meetings[botID]
	if !exists {
		return false, 0, fmt.Errorf("bot %s not found", botID)
	}

	return session.FeedbackSent, time.Since(session.StartTime), nil
}
