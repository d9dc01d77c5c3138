package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/review/config"
	"reddit-lead-scout/internal/review/dto"
	"reddit-lead-scout/internal/review/service"
	"reddit-lead-scout/pkg/common"
	"reddit-lead-scout/pkg/logger"
	"reddit-lead-scout/pkg/slack"

	"github.com/labstack/echo/v4"
)

// InteractionHandler handles Slack interactive webhook callbacks.
type InteractionHandler struct {
	cfg           *config.Config
	reviewService service.ReviewService
	logger        *logger.Logger
}

// NewInteractionHandler creates a new InteractionHandler.
func NewInteractionHandler(cfg *config.Config, reviewService service.ReviewService, logger *logger.Logger) *InteractionHandler {
	return &InteractionHandler{cfg: cfg, reviewService: reviewService, logger: logger}
}

// RegisterRoutes registers the interaction routes to the Echo group.
func (h *InteractionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/slack/interactions", h.HandleInteraction)
}

// HandleInteraction verifies, parses and processes one Slack interaction.
// Signature failures return 401 with no body so probes learn nothing.
func (h *InteractionHandler) HandleInteraction(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	timestamp := c.Request().Header.Get("X-Slack-Request-Timestamp")
	signature := c.Request().Header.Get("X-Slack-Signature")
	if err := slack.VerifySignature(h.cfg.Slack.SigningSecret, timestamp, signature, body, time.Now()); err != nil {
		h.logger.WarnContext(c.Request().Context(), "Rejected interaction with bad signature",
			logger.ErrorField(err),
		)
		return c.NoContent(http.StatusUnauthorized)
	}

	payload, err := parsePayload(body)
	if err != nil {
		h.logger.WarnContext(c.Request().Context(), "Failed to parse interaction payload", logger.ErrorField(err))
		return c.NoContent(http.StatusBadRequest)
	}
	if payload.Type != "block_actions" || len(payload.Actions) == 0 {
		return c.NoContent(http.StatusOK)
	}

	action := payload.Actions[0]
	reviewAction, ok := mapAction(action.ActionID)
	if !ok {
		// Link buttons and unknown actions need an ack and nothing else.
		return c.NoContent(http.StatusOK)
	}

	opportunityID, err := strconv.ParseUint(action.Value, 10, 32)
	if err != nil {
		h.logger.WarnContext(c.Request().Context(), "Interaction carried an invalid opportunity id",
			logger.StringField("value", action.Value),
		)
		return c.NoContent(http.StatusBadRequest)
	}

	cmd := dto.ReviewCommand{
		OpportunityID: uint(opportunityID),
		Action:        reviewAction,
		Actor:         payload.User.ID,
		ActorName:     payload.User.Username,
		ActionTS:      action.ActionTS,
	}

	result, err := h.reviewService.Process(c.Request().Context(), cmd)
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "Failed to process review command",
			logger.Field("opportunity_id", cmd.OpportunityID),
			logger.StringField("action", string(cmd.Action)),
			logger.ErrorField(err),
		)
		return c.JSON(http.StatusOK, ephemeral("Something went wrong, try again."))
	}

	return c.JSON(http.StatusOK, ephemeral(ackText(result)))
}

// parsePayload decodes Slack's form-encoded wrapper around the JSON payload.
func parsePayload(body []byte) (*dto.InteractionPayload, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	raw := values.Get("payload")
	if raw == "" {
		return nil, fmt.Errorf("missing payload field")
	}
	var payload dto.InteractionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func mapAction(actionID string) (entity.Action, bool) {
	switch actionID {
	case common.ActionApprove:
		return entity.ActionApprove, true
	case common.ActionReject:
		return entity.ActionReject, true
	case common.ActionMarkResponded:
		return entity.ActionMarkResponded, true
	}
	return "", false
}

func ackText(result *dto.ReviewResult) string {
	switch result.Outcome {
	case dto.OutcomeApplied:
		return fmt.Sprintf("Marked as %s.", result.Opportunity.Status)
	case dto.OutcomeDuplicate:
		return "Already handled that click."
	case dto.OutcomeNotFound:
		return "That opportunity no longer exists."
	default:
		if result.Opportunity != nil {
			return fmt.Sprintf("No change, it is already %s.", result.Opportunity.Status)
		}
		return "No change."
	}
}

func ephemeral(text string) echo.Map {
	return echo.Map{"response_type": "ephemeral", "text": text}
}
