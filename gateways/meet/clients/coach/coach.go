package coach

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	config "github.com/meetpulse/backend/config/meet"
	"github.com/meetpulse/backend/services/analytics/entity"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// GenerateFeedbackRequest carries the raw transcription plus the snapshot
// fields the coaching service embeds into its prompt. The participation
// block is what lets the coach call out dominance and sidelined speakers
// instead of guessing from the text.
type GenerateFeedbackRequest struct {
	Transcription string             `json:"transcription"`
	Participation ParticipationBlock `json:"participation"`
}

type ParticipationBlock struct {
	SpeakingShare     map[string]float64 `json:"speaking_share"`
	DominantSpeaker   string             `json:"dominant_speaker,omitempty"`
	Underrepresented  []string           `json:"underrepresented"`
	Interruptions     int                `json:"interruptions"`
	LongestSilenceSec *float64           `json:"longest_silence_sec,omitempty"`
	BalanceStatus     string             `json:"balance_status"`
	BalanceReasons    []string           `json:"balance_reasons"`
}

type GenerateFeedbackResponse struct {
	Feedback  string   `json:"feedback"`
	Questions []string `json:"questions"`
}

func New(cfg *config.ServiceConfig) *Client {
	log := slog.Default()
	baseURL := fmt.Sprintf("http://%s:%d", cfg.Url, cfg.Port)
	log.Debug("creating coach client",
		slog.String("base_url", baseURL),
		slog.String("service_url", cfg.Url),
		slog.Int("service_port", cfg.Port))
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		log:        log,
	}
}

// NewParticipationBlock maps a snapshot into the prompt fields, swapping in
// the underrepresented set computed at the coaching threshold.
func NewParticipationBlock(snapshot *entity.ParticipationSnapshot, underrepresented []string) ParticipationBlock {
	shares := make(map[string]float64, len(snapshot.SpeakingShare))
	for name, agg := range snapshot.SpeakingShare {
		shares[name] = agg.Share
	}

	block := ParticipationBlock{
		SpeakingShare:    shares,
		DominantSpeaker:  snapshot.DominantSpeaker,
		Underrepresented: underrepresented,
		Interruptions:    snapshot.Interruptions,
		BalanceStatus:    string(snapshot.Balance.Status),
		BalanceReasons:   snapshot.Balance.Reasons,
	}
	if snapshot.LongestSilence != nil {
		d := snapshot.LongestSilence.DurationSec
		block.LongestSilenceSec = &d
	}
	return block
}

func (c *Client) GenerateFeedback(transcription string, participation ParticipationBlock) (*GenerateFeedbackResponse, error) {
	c.log.Info("GenerateFeedback called",
		slog.Int("transcription_length", len(transcription)),
		slog.Int("speakers_count", len(participation.SpeakingShare)),
		slog.String("balance_status", participation.BalanceStatus))

	reqBody := GenerateFeedbackRequest{
		Transcription: transcription,
		Participation: participation,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		c.log.Error("failed to marshal request", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/api/v1/generate-feedback"
	c.log.Info("sending POST request to coach service", slog.String("url", url))
	resp, err := c.httpClient.Post(
		url,
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		c.log.Error("HTTP request failed",
			slog.String("error", err.Error()),
			slog.String("url", url))
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.log.Error("coach service returned error",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var result GenerateFeedbackResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Error("failed to decode response", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.log.Info("feedback generated successfully",
		slog.Int("questions_count", len(result.Questions)),
		slog.Int("feedback_length", len(result.Feedback)))
	return &result, nil
}
