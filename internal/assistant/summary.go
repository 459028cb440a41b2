package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teemow/execassist/internal/activity"
	"github.com/teemow/execassist/internal/logging"
)

const summaryPrompt = `Generate a brief daily summary for an executive based on these activities:

Activities: %s

Create a summary including:
- Meetings scheduled: count and key topics
- Emails processed: count and priority breakdown
- Action items created
- Overall productivity insights

Keep it concise but informative (under 200 words).`

// DailySummary reports the activities of the UTC day containing day. The
// narrative falls back to a plain count listing when the model fails.
func (a *Assistant) DailySummary(ctx context.Context, day time.Time) (Summary, error) {
	records, err := a.activity.Day(ctx, day)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load activities: %w", err)
	}

	counts := make(map[activity.Type]int)
	for _, r := range records {
		counts[r.Type]++
	}

	s := Summary{
		Date:            day.UTC().Format("2006-01-02"),
		TotalActivities: len(records),
		Counts:          counts,
		Activities:      records,
		GeneratedAt:     a.clock().UTC(),
	}
	s.Summary = a.narrate(ctx, records, counts)
	return s, nil
}

func (a *Assistant) narrate(ctx context.Context, records []activity.Record, counts map[activity.Type]int) string {
	if len(records) > 0 && a.model != nil {
		data, err := json.MarshalIndent(records, "", "  ")
		if err == nil {
			text, err := a.model.Complete(ctx, fmt.Sprintf(summaryPrompt, data))
			if err == nil && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
			if err != nil {
				a.logger.WarnContext(ctx, "summary generation failed, using counts", logging.Err(err))
			}
		}
	}
	return countSummary(len(records), counts)
}

func countSummary(total int, counts map[activity.Type]int) string {
	if total == 0 {
		return "No activity recorded today."
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "%d activities recorded today:", total)
	for _, t := range types {
		fmt.Fprintf(&b, "\n- %s: %d", t, counts[activity.Type(t)])
	}
	return b.String()
}
