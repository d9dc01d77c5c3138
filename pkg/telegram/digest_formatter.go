package telegram

import (
	"fmt"
	"sort"
	"strings"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/pkg/utils"
)

// FormatDigest renders the daily digest as a Telegram Markdown message. The
// Telegram channel mirrors the Slack digest for people who do not live in
// Slack; it carries no review controls.
func FormatDigest(d *dto.DigestSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 *Reddit Lead Digest* (last %d days)\n\n", d.WindowDays))
	b.WriteString(fmt.Sprintf("🔎 Total found: %d\n", d.Total))
	b.WriteString(fmt.Sprintf("⏳ Pending: %d\n", d.Counts[entity.StatusPending]))
	b.WriteString(fmt.Sprintf("✅ Approved: %d\n", d.Counts[entity.StatusApproved]))
	b.WriteString(fmt.Sprintf("📬 Responded: %d\n", d.Counts[entity.StatusResponded]))
	b.WriteString(fmt.Sprintf("❌ Rejected: %d\n", d.Counts[entity.StatusRejected]))
	b.WriteString(fmt.Sprintf("⌛ Expired: %d\n", d.Counts[entity.StatusExpired]))

	if len(d.BySubreddit) > 0 {
		names := make([]string, 0, len(d.BySubreddit))
		for name := range d.BySubreddit {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\n📂 *By subreddit:*\n")
		for _, name := range names {
			b.WriteString(fmt.Sprintf("r/%s: %d\n", name, d.BySubreddit[name]))
		}
	}

	if len(d.TopPending) > 0 {
		b.WriteString("\n⭐ *Top pending posts:*\n")
		for i, opp := range d.TopPending {
			title := opp.Title
			if title == "" {
				title = opp.RedditID
			}
			b.WriteString(fmt.Sprintf("%d. [%s](%s) (%d%%)\n",
				i+1, utils.TruncateText(title, 60), opp.Permalink, int(opp.RelevanceScore*100)))
		}
	}

	return b.String()
}
