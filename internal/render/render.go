// Package render turns a validated Review into a bounded markdown document
// suitable for a check-run body or PR review body.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
	"github.com/nchouser54/ai-pr-reviewer/internal/verdict"
)

const maxBodyBytes = 65_000

var truncationMarker = "\n\n*[Output truncated due to size limits]*"

var riskEmoji = map[model.RiskLevel]string{
	model.RiskLow:    "🟢",
	model.RiskMedium: "🟡",
	model.RiskHigh:   "🔴",
}

var priorityLabel = map[int]string{
	0: "🔴 Critical",
	1: "🟡 Important",
	2: "🟢 Minor",
}

// CheckRunBody renders review into markdown. The conclusion argument is
// accepted but does not appear in the rendered body.
func CheckRunBody(review model.Review, conclusion verdict.Conclusion) string {
	var b strings.Builder

	glyph := riskEmoji[review.OverallRisk]
	fmt.Fprintf(&b, "## %s Summary\n\n%s\n\n", glyph, review.Summary)

	if len(review.Findings) > 0 {
		b.WriteString("## Top Findings\n\n")
		for priority := 0; priority <= 2; priority++ {
			var group []model.Finding
			for _, f := range review.Findings {
				if f.Priority == priority {
					group = append(group, f)
				}
			}
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s\n\n", priorityLabel[priority])
			for _, f := range group {
				loc := f.File
				if f.StartLine != nil {
					if f.EndLine != nil && *f.EndLine != *f.StartLine {
						loc = fmt.Sprintf("%s:%d-%d", f.File, *f.StartLine, *f.EndLine)
					} else {
						loc = fmt.Sprintf("%s:%d", f.File, *f.StartLine)
					}
				}
				fmt.Fprintf(&b, "- **%s** (%s): %s\n", loc, f.Type, f.Message)
				if f.Evidence != "" {
					fmt.Fprintf(&b, "  > %s\n", f.Evidence)
				}
			}
			b.WriteString("\n")
		}
	}

	if len(review.SuggestedTests) > 0 {
		b.WriteString("## Suggested Tests\n\n")
		for _, t := range review.SuggestedTests {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}

	if len(review.RiskHotspots) > 0 {
		b.WriteString("## Risk Hotspots\n\n")
		for _, h := range review.RiskHotspots {
			fmt.Fprintf(&b, "- %s\n", h)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Files\n\n")
	if len(review.FilesReviewed) > 0 {
		fmt.Fprintf(&b, "**Reviewed:** %s\n\n", strings.Join(review.FilesReviewed, ", "))
	}
	if len(review.FilesSkipped) > 0 {
		fmt.Fprintf(&b, "**Skipped:** %s\n\n", strings.Join(review.FilesSkipped, ", "))
	}

	if review.TruncationNote != nil && *review.TruncationNote != "" {
		fmt.Fprintf(&b, "## Truncation Note\n\n%s\n\n", *review.TruncationNote)
	}

	if review.NotReviewed != nil && *review.NotReviewed != "" {
		fmt.Fprintf(&b, "## What Was Not Reviewed\n\n%s\n\n", *review.NotReviewed)
	}

	if len(review.TicketCompliance) > 0 {
		b.WriteString("## Ticket Compliance\n\n")
		for _, tc := range review.TicketCompliance {
			fmt.Fprintf(&b, "### %s — %s\n\n", tc.TicketKey, tc.TicketSummary)
			renderBulletList(&b, "Fully compliant", tc.FullyCompliant)
			renderBulletList(&b, "Not compliant", tc.NotCompliant)
			renderBulletList(&b, "Needs human verification", tc.NeedsHumanVerification)
		}
	}

	return truncateUTF8Safe(b.String(), maxBodyBytes)
}

func renderBulletList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// ErrorBody renders a short neutral check-run body describing a pipeline
// failure without exposing stack traces or secret material.
func ErrorBody(stage, reason string) string {
	return fmt.Sprintf("## ⚪ Review Incomplete\n\nThe %s stage could not produce a valid result (%s). No failing verdict was issued.", stage, reason)
}

// truncateUTF8Safe truncates body to at most limit bytes at a UTF-8 safe
// boundary, appending the truncation marker when truncation occurs.
func truncateUTF8Safe(body string, limit int) string {
	if len(body) <= limit {
		return body
	}
	budget := limit - len(truncationMarker)
	if budget < 0 {
		budget = 0
	}
	clipped := body[:budget]
	for len(clipped) > 0 && !utf8.ValidString(clipped) {
		clipped = clipped[:len(clipped)-1]
	}
	return clipped + truncationMarker
}
