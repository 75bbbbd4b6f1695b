package llm

import (
	"context"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

// DefaultPlannerMaxTokens matches the spec's planner budget of ~1024 tokens.
const DefaultPlannerMaxTokens = 1024

// PlannerTemperature is low to keep the triage plan deterministic.
const PlannerTemperature = 0.15

// InvokePlanner runs the stage-1 planner call: build the prompt, invoke the
// runtime, extract JSON, and validate it against TriagePlan's schema tags.
// Any extraction or validation failure is returned as ErrParse/validator
// error — the caller (dispatcher) is responsible for turning that into a
// neutral check-run, never a failure.
func InvokePlanner(ctx context.Context, runtime Runtime, prCtx model.PRContext, maxTokens int) (model.TriagePlan, error) {
	if maxTokens == 0 {
		maxTokens = DefaultPlannerMaxTokens
	}

	req := Request{
		System:      plannerSystemPrompt,
		Messages:    []Message{{Role: "user", Content: buildPlannerUser(prCtx)}},
		MaxTokens:   maxTokens,
		Temperature: PlannerTemperature,
	}

	raw, err := runtime.Invoke(ctx, req)
	if err != nil {
		return model.TriagePlan{}, err
	}

	var plan model.TriagePlan
	if err := ExtractJSON(raw, &plan); err != nil {
		return model.TriagePlan{}, err
	}
	if err := ValidateSchema(plan); err != nil {
		return model.TriagePlan{}, err
	}
	return plan, nil
}
