package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/pkg/config"
	"reddit-lead-scout/pkg/logger"
)

const defaultBaseURL = "https://slack.com/api"

// Notifier defines the messaging channel used for opportunity review.
type Notifier interface {
	PostOpportunity(ctx context.Context, opp *entity.Opportunity) (string, error)
	UpdateOpportunity(ctx context.Context, messageTS string, opp *entity.Opportunity) error
	PostDigest(ctx context.Context, digest *dto.DigestSummary) error
}

// Client talks to the Slack Web API over plain HTTP.
type Client struct {
	httpClient *http.Client
	botToken   string
	channelID  string
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a Slack client for the configured channel.
func NewClient(cfg config.Slack, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		botToken:   cfg.BotToken,
		channelID:  cfg.ChannelID,
		baseURL:    defaultBaseURL,
		logger:     log,
	}
}

type postMessageRequest struct {
	Channel string  `json:"channel"`
	TS      string  `json:"ts,omitempty"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks,omitempty"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error"`
}

// PostOpportunity delivers a new opportunity notification with review
// controls and returns the message timestamp used for in-place updates.
func (c *Client) PostOpportunity(ctx context.Context, opp *entity.Opportunity) (string, error) {
	blocks, fallback := BuildOpportunityBlocks(opp)
	resp, err := c.callAPI(ctx, "chat.postMessage", postMessageRequest{
		Channel: c.channelID,
		Text:    fallback,
		Blocks:  blocks,
	})
	if err != nil {
		return "", err
	}
	return resp.TS, nil
}

// UpdateOpportunity re-renders the previously posted notification in place so
// reviewers see the current status instead of stale buttons. It never posts a
// new message.
func (c *Client) UpdateOpportunity(ctx context.Context, messageTS string, opp *entity.Opportunity) error {
	blocks, fallback := BuildOpportunityBlocks(opp)
	_, err := c.callAPI(ctx, "chat.update", postMessageRequest{
		Channel: c.channelID,
		TS:      messageTS,
		Text:    fallback,
		Blocks:  blocks,
	})
	return err
}

// PostDigest delivers the periodic pipeline summary.
func (c *Client) PostDigest(ctx context.Context, digest *dto.DigestSummary) error {
	blocks, fallback := BuildDigestBlocks(digest)
	_, err := c.callAPI(ctx, "chat.postMessage", postMessageRequest{
		Channel: c.channelID,
		Text:    fallback,
		Blocks:  blocks,
	})
	return err
}

func (c *Client) callAPI(ctx context.Context, method string, payload interface{}) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read slack response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack %s returned status %d", method, resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode slack response: %w", err)
	}
	if !apiResp.OK {
		c.logger.Error("Slack API call rejected",
			logger.StringField("method", method),
			logger.StringField("error", apiResp.Error),
		)
		return nil, fmt.Errorf("slack %s failed: %s", method, apiResp.Error)
	}

	return &apiResp, nil
}
