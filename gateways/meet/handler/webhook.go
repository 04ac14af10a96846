package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/meetpulse/backend/gateways/meet/metrics"
	"github.com/meetpulse/backend/pkg/json"
	"github.com/meetpulse/backend/services/analytics/entity"
)

const (
	TriggerUtterance    = "transcript.utterance"
	TriggerPartial      = "transcript.partial"
	TriggerParticipants = "participants.update"
)

type WebhookRequest struct {
	SessionID    string          `json:"session_id"`
	Trigger      string          `json:"trigger"`
	Utterance    *UtteranceEvent `json:"utterance,omitempty"`
	Partial      *PartialEvent   `json:"partial,omitempty"`
	Participants []Participant   `json:"participants,omitempty"`
}

type UtteranceEvent struct {
	SpeakerID   string   `json:"speaker_id"`
	SpeakerName string   `json:"speaker_name"`
	Text        string   `json:"text"`
	StartSec    *float64 `json:"start_sec,omitempty"`
	EndSec      *float64 `json:"end_sec,omitempty"`
}

type PartialEvent struct {
	SpeakerName string `json:"speaker_name"`
	Text        string `json:"text"`
}

type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type WebhookResponse struct {
	Message string `json:"message"`
}

// Webhook ingests transcript events for a session. Deliveries for one
// session arrive in order and are applied one at a time; authenticity
// verification and deduplication happen upstream of this gateway.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	req := &WebhookRequest{}
	if err := json.ParseJSON(r, req); err != nil {
		h.log.Error("failed to decode webhook payload", slog.String("error", err.Error()))
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid payload"))
		return
	}

	h.log.Debug("webhook event received",
		slog.String("session_id", req.SessionID),
		slog.String("trigger", req.Trigger))

	if req.SessionID == "" {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("session_id is required"))
		return
	}

	metrics.WebhookEvents.WithLabelValues(req.Trigger).Inc()

	var err error
	switch req.Trigger {
	case TriggerUtterance:
		if req.Utterance == nil {
			json.WriteError(w, http.StatusBadRequest, fmt.Errorf("utterance payload is required"))
			return
		}
		err = h.monitor.HandleUtterance(r.Context(), req.SessionID, entity.Utterance{
			SpeakerID:   req.Utterance.SpeakerID,
			SpeakerName: req.Utterance.SpeakerName,
			Text:        req.Utterance.Text,
			StartSec:    req.Utterance.StartSec,
			EndSec:      req.Utterance.EndSec,
		})
	case TriggerPartial:
		if req.Partial == nil {
			json.WriteError(w, http.StatusBadRequest, fmt.Errorf("partial payload is required"))
			return
		}
		err = h.monitor.HandlePartial(r.Context(), req.SessionID, entity.PartialUtterance{
			SpeakerName: req.Partial.SpeakerName,
			Text:        req.Partial.Text,
		})
	case TriggerParticipants:
		names := make([]string, 0, len(req.Participants))
		for _, p := range req.Participants {
			names = append(names, p.Name)
		}
		err = h.monitor.HandleParticipants(r.Context(), req.SessionID, names)
	default:
		h.log.Warn("unknown webhook trigger", slog.String("trigger", req.Trigger))
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("unknown trigger: %s", req.Trigger))
		return
	}

	if err != nil {
		h.log.Error("failed to apply webhook event",
			slog.String("error", err.Error()),
			slog.String("session_id", req.SessionID),
			slog.String("trigger", req.Trigger))
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to apply event"))
		return
	}

	json.WriteJSON(w, http.StatusOK, WebhookResponse{Message: "ok"})
}
