package slack

import (
	"fmt"
	"sort"
	"strings"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/pkg/common"
	"reddit-lead-scout/pkg/utils"
)

// Block is a single Slack Block Kit element.
type Block map[string]interface{}

const (
	maxTitleLen = 100
	maxBodyLen  = 400
)

// BuildOpportunityBlocks renders an opportunity notification. Pending
// opportunities carry review buttons; reviewed ones show a status line with
// the reviewer instead, so stale controls disappear on update.
func BuildOpportunityBlocks(opp *entity.Opportunity) ([]Block, string) {
	title := opp.Title
	if title == "" {
		title = "(no title)"
	}
	title = utils.TruncateText(title, maxTitleLen)

	levelEmoji := map[entity.EngagementLevel]string{
		entity.EngagementHigh:   ":fire:",
		entity.EngagementMedium: ":star:",
		entity.EngagementLow:    ":small_blue_diamond:",
	}[opp.EngagementPotential]
	if levelEmoji == "" {
		levelEmoji = ":small_blue_diamond:"
	}

	scorePct := int(opp.RelevanceScore * 100)
	var scoreIndicator string
	switch {
	case opp.RelevanceScore >= 0.7:
		scoreIndicator = fmt.Sprintf(":green_circle: %d%%", scorePct)
	case opp.RelevanceScore >= 0.5:
		scoreIndicator = fmt.Sprintf(":large_yellow_circle: %d%%", scorePct)
	default:
		scoreIndicator = fmt.Sprintf(":red_circle: %d%%", scorePct)
	}

	blocks := []Block{
		headerBlock(fmt.Sprintf("%s New Post - r/%s", levelEmoji, opp.Subreddit)),
		{
			"type": "section",
			"text": markdownText(fmt.Sprintf("*<%s|%s>*", opp.Permalink, title)),
			"accessory": map[string]interface{}{
				"type":      "button",
				"text":      plainText(":link: View on Reddit"),
				"url":       opp.Permalink,
				"action_id": common.ActionViewReddit,
			},
		},
		contextBlock(fmt.Sprintf(":arrow_up: %d  |  :speech_balloon: %d comments  |  :clock1: %.1fh ago  |  %s match",
			opp.Upvotes, opp.CommentCount, opp.PostAgeHours, scoreIndicator)),
		dividerBlock(),
		sectionBlock(fmt.Sprintf("*Post:*\n>%s", utils.TruncateText(opp.Body, maxBodyLen))),
		contextBlock(fmt.Sprintf(":mag: *Matched:* %s", matchedPhrases(opp))),
	}

	if opp.SuggestedResponse != "" {
		blocks = append(blocks,
			dividerBlock(),
			sectionBlock(fmt.Sprintf("*Suggested response:*\n```%s```", utils.TruncateText(opp.SuggestedResponse, maxBodyLen))),
		)
	}

	blocks = append(blocks, dividerBlock())
	if opp.Status == entity.StatusPending {
		blocks = append(blocks, actionsBlock(opp))
	} else {
		blocks = append(blocks, statusContextBlock(opp))
	}

	fallback := fmt.Sprintf("New post in r/%s: %s", opp.Subreddit, title)
	return blocks, fallback
}

// BuildDigestBlocks renders the periodic pipeline summary.
func BuildDigestBlocks(d *dto.DigestSummary) ([]Block, string) {
	blocks := []Block{
		headerBlock(":chart_with_upwards_trend: Reddit Lead Digest"),
		{
			"type": "section",
			"fields": []map[string]interface{}{
				markdownText(fmt.Sprintf("*Total Found:*\n%d", d.Total)),
				markdownText(fmt.Sprintf("*Pending:*\n%d", d.Counts[entity.StatusPending])),
				markdownText(fmt.Sprintf("*Approved:*\n%d", d.Counts[entity.StatusApproved])),
				markdownText(fmt.Sprintf("*Responded:*\n%d", d.Counts[entity.StatusResponded])),
				markdownText(fmt.Sprintf("*Rejected:*\n%d", d.Counts[entity.StatusRejected])),
				markdownText(fmt.Sprintf("*Expired:*\n%d", d.Counts[entity.StatusExpired])),
			},
		},
		dividerBlock(),
	}

	if len(d.BySubreddit) > 0 {
		parts := make([]string, 0, len(d.BySubreddit))
		for _, name := range sortedKeys(d.BySubreddit) {
			parts = append(parts, fmt.Sprintf("r/%s: %d", name, d.BySubreddit[name]))
		}
		blocks = append(blocks, contextBlock(":file_folder: "+strings.Join(parts, "  |  ")))
	}

	if len(d.TopPending) > 0 {
		blocks = append(blocks, sectionBlock("*:star2: Top Pending Posts:*"))
		for i, opp := range d.TopPending {
			title := utils.TruncateText(opp.Title, 60)
			blocks = append(blocks, sectionBlock(fmt.Sprintf("%d. <%s|%s> (%d%%)",
				i+1, opp.Permalink, title, int(opp.RelevanceScore*100))))
		}
	}

	fallback := fmt.Sprintf("Digest: %d posts found over %d days, %d pending",
		d.Total, d.WindowDays, d.Counts[entity.StatusPending])
	return blocks, fallback
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func actionsBlock(opp *entity.Opportunity) Block {
	value := fmt.Sprintf("%d", opp.ID)
	return Block{
		"type":     "actions",
		"block_id": fmt.Sprintf("opportunity_actions_%s", opp.RedditID),
		"elements": []map[string]interface{}{
			{
				"type":      "button",
				"text":      plainText(":white_check_mark: Approve"),
				"style":     "primary",
				"action_id": common.ActionApprove,
				"value":     value,
			},
			{
				"type":      "button",
				"text":      plainText(":x: Reject"),
				"style":     "danger",
				"action_id": common.ActionReject,
				"value":     value,
			},
			{
				"type":      "button",
				"text":      plainText(":mailbox_with_mail: Mark Responded"),
				"action_id": common.ActionMarkResponded,
				"value":     value,
			},
		},
	}
}

func statusContextBlock(opp *entity.Opportunity) Block {
	statusEmoji := map[entity.Status]string{
		entity.StatusApproved:  ":white_check_mark:",
		entity.StatusRejected:  ":x:",
		entity.StatusResponded: ":mailbox_with_mail:",
		entity.StatusExpired:   ":hourglass:",
	}[opp.Status]
	if statusEmoji == "" {
		statusEmoji = ":question:"
	}

	text := fmt.Sprintf("%s *%s*", statusEmoji, strings.ToUpper(string(opp.Status)))
	if opp.ReviewedBy != "" {
		text += fmt.Sprintf(" by <@%s>", opp.ReviewedBy)
	}
	if opp.ReviewedAt != nil {
		text += " at " + opp.ReviewedAt.Format("2006-01-02 15:04 MST")
	}
	return contextBlock(text)
}

func matchedPhrases(opp *entity.Opportunity) string {
	matched, err := opp.DecodeMatchedKeywords()
	if err != nil || len(matched) == 0 {
		return "none"
	}
	phrases := make([]string, 0, len(matched))
	for i, m := range matched {
		if i == 5 {
			break
		}
		phrases = append(phrases, m.Phrase)
	}
	return strings.Join(phrases, ", ")
}

func headerBlock(text string) Block {
	return Block{"type": "header", "text": plainText(text)}
}

func sectionBlock(text string) Block {
	return Block{"type": "section", "text": markdownText(text)}
}

func contextBlock(text string) Block {
	return Block{"type": "context", "elements": []map[string]interface{}{markdownText(text)}}
}

func dividerBlock() Block {
	return Block{"type": "divider"}
}

func plainText(text string) map[string]interface{} {
	return map[string]interface{}{"type": "plain_text", "text": text, "emoji": true}
}

func markdownText(text string) map[string]interface{} {
	return map[string]interface{}{"type": "mrkdwn", "text": text}
}
