package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meetpulse/backend/gateways/meet/metrics"
	"github.com/meetpulse/backend/gateways/meet/monitor"
	"github.com/meetpulse/backend/pkg/json"
	"github.com/meetpulse/backend/services/analytics/entity"
)

type Handler struct {
	monitor   *monitor.MeetingMonitor
	log       *slog.Logger
	jwtSecret string
}

func New(monitor *monitor.MeetingMonitor, jwtSecret string, log *slog.Logger) *Handler {
	log.Debug("creating new handler")
	return &Handler{
		monitor:   monitor,
		log:       log,
		jwtSecret: jwtSecret,
	}
}

type StartMeetingRequest struct {
	MeetingURL string `json:"meeting_url"`
}

type StartMeetingResponse struct {
	Success   bool   `json:"success"`
	MeetingID string `json:"meeting_id"`
	BotID     string `json:"bot_id"`
	Message   string `json:"message"`
}

type StopMeetingResponse struct {
	Success   bool   `json:"success"`
	MeetingID string `json:"meeting_id"`
	Message   string `json:"message"`
}

type GetSnapshotResponse struct {
	Success      bool                          `json:"success"`
	MeetingID    string                        `json:"meeting_id"`
	Snapshot     *entity.ParticipationSnapshot `json:"snapshot"`
	Utterances   []entity.Utterance            `json:"utterances"`
	Partial      *entity.PartialUtterance      `json:"partial,omitempty"`
	Participants []string                      `json:"participants"`
}

type GetTranscriptionResponse struct {
	Success   bool   `json:"success"`
	MeetingID string `json:"meeting_id"`
	FullText  string `json:"full_text"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	h.log.Debug("registering HTTP routes")
	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", h.HealthCheck)
		api.Post("/webhook", h.Webhook)

		api.Group(func(protected chi.Router) {
			protected.Use(h.Auth)
			protected.Post("/meetings/start", h.StartMeeting)
			protected.Post("/meetings/{bot_id}/stop", h.StopMeeting)
			protected.Get("/meetings/{bot_id}/snapshot", h.GetSnapshot)
			protected.Get("/meetings/{bot_id}/transcription", h.GetTranscription)
			protected.Get("/meetings/{bot_id}/live", h.Live)
		})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	h.log.Info("all routes registered successfully")
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("health check request received",
		slog.String("method", r.Method),
		slog.String("remote_addr", r.RemoteAddr))
	json.WriteJSON(w, http.StatusOK, map[string]bool{"status": true})
}

func (h *Handler) StartMeeting(w http.ResponseWriter, r *http.Request) {
	h.log.Info("start meeting request received",
		slog.String("method", r.Method),
		slog.String("remote_addr", r.RemoteAddr))
	var req StartMeetingRequest
	if err := json.ParseJSON(r, &req); err != nil {
		h.log.Error("failed to decode request", slog.String("error", err.Error()))
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.MeetingURL == "" {
		h.log.Warn("meeting_url is empty")
		http.Error(w, "meeting_url is required", http.StatusBadRequest)
		return
	}

	h.log.Info("starting meeting", slog.String("meeting_url", req.MeetingURL))
	botID, meetingID, err := h.monitor.StartMeeting(r.Context(), req.MeetingURL)
	if err != nil {
		h.log.Error("monitor.StartMeeting returned error",
			slog.String("error", err.Error()),
			slog.String("meeting_url", req.MeetingURL))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.log.Info("meeting started successfully",
		slog.String("bot_id", botID),
		slog.String("meeting_id", meetingID))

	json.WriteJSON(w, http.StatusOK, StartMeetingResponse{
		Success:   true,
		MeetingID: meetingID,
		BotID:     botID,
		Message:   "Bot joined meeting successfully. Feedback will be sent after 10 minutes.",
	})
}

func (h *Handler) StopMeeting(w http.ResponseWriter, r *http.Request) {
	h.log.Info("stop meeting request received",
		slog.String("method", r.Method),
		slog.String("remote_addr", r.RemoteAddr))
	botID := chi.URLParam(r, "bot_id")
	if botID == "" {
		h.log.Warn("bot_id is empty")
		http.Error(w, "bot_id is required", http.StatusBadRequest)
		return
	}

	if err := h.monitor.StopMeeting(r.Context(), botID); err != nil {
		h.log.Error("monitor.StopMeeting returned error",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.log.Info("meeting stopped successfully", slog.String("bot_id", botID))

	json.WriteJSON(w, http.StatusOK, StopMeetingResponse{
		Success:   true,
		MeetingID: botID,
		Message:   "Bot left meeting successfully.",
	})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "bot_id")
	if botID == "" {
		h.log.Warn("bot_id is empty")
		http.Error(w, "bot_id is required", http.StatusBadRequest)
		return
	}

	h.log.Info("computing participation snapshot", slog.String("bot_id", botID))
	snapshot, err := h.monitor.Snapshot(r.Context(), botID)
	if err != nil {
		h.log.Error("monitor.Snapshot returned error",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		http.Error(w, "failed to compute snapshot", http.StatusNotFound)
		return
	}

	state, err := h.monitor.Session(r.Context(), botID)
	if err != nil {
		h.log.Error("failed to read session state",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		http.Error(w, "failed to read session", http.StatusNotFound)
		return
	}

	h.log.Info("snapshot computed",
		slog.String("bot_id", botID),
		slog.Int("total_words", snapshot.TotalWords),
		slog.String("balance_status", string(snapshot.Balance.Status)))

	json.WriteJSON(w, http.StatusOK, GetSnapshotResponse{
		Success:      true,
		MeetingID:    botID,
		Snapshot:     snapshot,
		Utterances:   state.Utterances,
		Partial:      state.Partial,
		Participants: state.Participants,
	})
}

func (h *Handler) GetTranscription(w http.ResponseWriter, r *http.Request) {
	botID := chi.URLParam(r, "bot_id")
	if botID == "" {
		h.log.Warn("bot_id is empty")
		http.Error(w, "bot_id is required", http.StatusBadRequest)
		return
	}

	h.log.Info("retrieving transcription", slog.String("bot_id", botID))
	transcription, err := h.monitor.Transcription(r.Context(), botID)
	if err != nil {
		h.log.Error("monitor.Transcription returned error",
			slog.String("error", err.Error()),
			slog.String("bot_id", botID))
		http.Error(w, "failed to get transcription", http.StatusNotFound)
		return
	}

	json.WriteJSON(w, http.StatusOK, GetTranscriptionResponse{
		Success:   true,
		MeetingID: botID,
		FullText:  transcription,
	})
}
