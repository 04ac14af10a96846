package fireflies

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

type CreateBotResponse struct {
	BotID     string `json:"id"`
	MeetingID string `json:"meeting_id"`
	Status    string `json:"status"`
}

// Sentence is one finalized transcript sentence as the provider returns it.
// Timing is in seconds from the start of the recording.
type Sentence struct {
	Text        string  `json:"text"`
	SpeakerName string  `json:"speaker_name"`
	SpeakerID   int     `json:"speaker_id"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
}

type TranscriptionResponse struct {
	MeetingID string     `json:"meeting_id"`
	Sentences []Sentence `json:"sentences"`
}

func New(apiKey string) *Client {
	log := slog.Default()
	log.Debug("creating fireflies client",
		slog.String("base_url", "https://api.fireflies.ai/graphql"),
		slog.Bool("api_key_set", apiKey != ""))
	return &Client{
		apiKey:     apiKey,
		baseURL:    "https://api.fireflies.ai/graphql",
		httpClient: &http.Client{},
		log:        log,
	}
}

// CreateBot asks Fireflies to join the meeting and polls active_meetings
// until the bot id shows up. The bot can take a few seconds to appear.
func (c *Client) CreateBot(meetingURL string) (*CreateBotResponse, error) {
	c.log.Info("CreateBot called", slog.String("meeting_url", meetingURL))

	mutation := `
		mutation {
			addToLiveMeeting(meeting_link: "%s") {
				success
				message
			}
		}
	`

	graphqlQuery := map[string]string{
		"query": fmt.Sprintf(mutation, meetingURL),
	}

	jsonData, err := json.Marshal(graphqlQuery)
	if err != nil {
		c.log.Error("failed to marshal GraphQL mutation", slog.String("error", err.Error()))
		return nil, err
	}

	resp, err := c.sendRequest(jsonData)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Data struct {
			AddToLiveMeeting struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			} `json:"addToLiveMeeting"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Error("failed to decode response", slog.String("error", err.Error()))
		return nil, err
	}

	if len(result.Errors) > 0 {
		c.log.Error("graphql errors", slog.String("error", result.Errors[0].Message))
		return nil, fmt.Errorf("graphql error: %s", result.Errors[0].Message)
	}

	if !result.Data.AddToLiveMeeting.Success {
		return nil, fmt.Errorf("failed to add bot to meeting: %s", result.Data.AddToLiveMeeting.Message)
	}

	c.log.Info("bot join request sent successfully", slog.String("message", result.Data.AddToLiveMeeting.Message))
	c.log.Info("polling for bot ID")

	for i := 0; i < 5; i++ {
		time.Sleep(2 * time.Second)
		id, err := c.findActiveMeetingID(meetingURL)
		if err != nil {
			c.log.Warn("failed to query active meetings", slog.String("error", err.Error()))
			continue
		}
		if id != "" {
			c.log.Info("bot ID found", slog.String("bot_id", id))
			return &CreateBotResponse{
				BotID:     id,
				MeetingID: id,
				Status:    "joining",
			}, nil
		}
		c.log.Debug("bot ID not found yet, retrying...")
	}

	return nil, fmt.Errorf("bot joined but failed to retrieve ID after polling")
}

func (c *Client) findActiveMeetingID(meetingURL string) (string, error) {
	query := `
		query {
			active_meetings {
				id
				meeting_link
			}
		}
	`
	graphqlQuery := map[string]string{
		"query": query,
	}

	jsonData, _ := json.Marshal(graphqlQuery)
	resp, err := c.sendRequest(jsonData)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Data struct {
			ActiveMeetings []struct {
				ID          string `json:"id"`
				MeetingLink string `json:"meeting_link"`
			} `json:"active_meetings"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	for _, meeting := range result.Data.ActiveMeetings {
		if meeting.MeetingLink == meetingURL {
			return meeting.ID, nil
		}
	}
	return "", nil
}

// GetTranscription pulls the full finalized transcript with per-sentence
// speaker attribution and timing. Used as a backfill when a session saw no
// webhook traffic before the coaching timer fired.
func (c *Client) GetTranscription(botID string) (*TranscriptionResponse, error) {
	c.log.Info("GetTranscription called", slog.String("bot_id", botID))

	query := `
		query {
			transcript(id: "%s") {
				id
				title
				sentences {
					text
					speaker_name
					speaker_id
					start_time
					end_time
				}
			}
		}
	`

	graphqlQuery := map[string]string{
		"query": fmt.Sprintf(query, botID),
	}

	jsonData, err := json.Marshal(graphqlQuery)
	if err != nil {
		c.log.Error("failed to marshal GraphQL query", slog.String("error", err.Error()))
		return nil, err
	}

	resp, err := c.sendRequest(jsonData)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Data struct {
			Transcript struct {
				ID        string     `json:"id"`
				Title     string     `json:"title"`
				Sentences []Sentence `json:"sentences"`
			} `json:"transcript"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Error("failed to decode response", slog.String("error", err.Error()))
		return nil, err
	}
	c.log.Debug("transcript decoded",
		slog.String("transcript_id", result.Data.Transcript.ID),
		slog.Int("sentences_count", len(result.Data.Transcript.Sentences)))

	return &TranscriptionResponse{
		MeetingID: result.Data.Transcript.ID,
		Sentences: result.Data.Transcript.Sentences,
	}, nil
}

func (c *Client) sendRequest(jsonData []byte) (*http.Response, error) {
	req, err := http.NewRequest("POST", c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		c.log.Error("failed to create HTTP request", slog.String("error", err.Error()))
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("HTTP request failed", slog.String("error", err.Error()))
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.log.Error("API request failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(body)))
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
