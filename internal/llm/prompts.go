package llm

import (
	"encoding/json"
	"fmt"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

// plannerSystemPrompt instructs the model to emit strict JSON matching
// TriagePlan and nothing else.
const plannerSystemPrompt = `You are a senior engineer triaging a pull request before a detailed review.
Respond with a single JSON object and nothing else — no prose, no markdown fences.
The object must have exactly these keys: risk_ranking (array of filenames, most risky first),
hotspots (array of {file, reason}, where reason cites a concrete function name, line range, or
pattern — never a vague generality), file_clusters (array of {cluster_label, files, token_budget}),
skip_files (array of filenames safe to skip review), overall_risk_estimate (one of "low", "medium", "high").
Only reference filenames that appear in the supplied context.`

// reviewerSystemPrompt instructs the model to emit strict JSON matching Review.
const reviewerSystemPrompt = `You are a senior engineer performing a thorough code review of a pull request.
Respond with a single JSON object and nothing else — no prose, no markdown fences.
The object must have exactly these keys: summary (string), overall_risk ("low"|"medium"|"high"),
findings (array of {priority: 0|1|2, type: "bug"|"security"|"performance"|"style"|"tests"|"docs",
file, start_line, end_line, message, evidence, suggested_patch}), suggested_tests (array of strings),
risk_hotspots (array of strings), files_reviewed (array of filenames), files_skipped (array of filenames),
truncation_note (string or null), not_reviewed (string or null), ticket_compliance (array of
{ticket_key, ticket_summary, fully_compliant, not_compliant, needs_human_verification} or null).
Priority 0 is critical. Never fabricate a finding for a file not present in the supplied context.
If a linked ticket is present, populate ticket_compliance; otherwise leave it null.`

func buildPlannerUser(ctx model.PRContext) string {
	payload, _ := json.Marshal(ctx)
	return fmt.Sprintf("Triage the following pull request context and respond with the JSON plan described in the system prompt:\n\n%s", string(payload))
}

func buildReviewerUser(ctx model.PRContext, plan model.TriagePlan) string {
	ctxPayload, _ := json.Marshal(ctx)
	planPayload, _ := json.Marshal(plan)
	return fmt.Sprintf(
		"Using the triage plan below as a guide to where to focus attention, review the pull request context and respond with the JSON review described in the system prompt.\n\nTriage plan:\n%s\n\nPull request context:\n%s",
		string(planPayload), string(ctxPayload),
	)
}
