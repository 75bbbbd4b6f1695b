package llm

import (
	"context"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

// DefaultReviewerMaxTokens matches the spec's reviewer budget of ~4096 tokens.
const DefaultReviewerMaxTokens = 4096

// ReviewerTemperature is low to keep findings reproducible across reruns.
const ReviewerTemperature = 0.2

// InvokeReviewer runs the stage-2 reviewer call against the PR context and
// the stage-1 plan, with the same extract-then-validate contract as the
// planner.
func InvokeReviewer(ctx context.Context, runtime Runtime, prCtx model.PRContext, plan model.TriagePlan, maxTokens int) (model.Review, error) {
	if maxTokens == 0 {
		maxTokens = DefaultReviewerMaxTokens
	}

	req := Request{
		System:      reviewerSystemPrompt,
		Messages:    []Message{{Role: "user", Content: buildReviewerUser(prCtx, plan)}},
		MaxTokens:   maxTokens,
		Temperature: ReviewerTemperature,
	}

	raw, err := runtime.Invoke(ctx, req)
	if err != nil {
		return model.Review{}, err
	}

	var review model.Review
	if err := ExtractJSON(raw, &review); err != nil {
		return model.Review{}, err
	}
	if err := ValidateSchema(review); err != nil {
		return model.Review{}, err
	}
	for _, f := range review.Findings {
		if !f.LocationValid() {
			return model.Review{}, ErrParse
		}
	}
	return review, nil
}
