// Command worker is the SQS-triggered Lambda entry point: it decodes each
// record of the batch into a canonical event and runs it through
// internal/dispatch, reporting individual failures back to SQS via the
// partial-batch-failure contract so only the failed records are redelivered.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/nchouser54/ai-pr-reviewer/internal/awsx/queue"
	"github.com/nchouser54/ai-pr-reviewer/internal/bootstrap"
	"github.com/nchouser54/ai-pr-reviewer/internal/breaker"
	"github.com/nchouser54/ai-pr-reviewer/internal/config"
	"github.com/nchouser54/ai-pr-reviewer/internal/contextbuilder"
	"github.com/nchouser54/ai-pr-reviewer/internal/dispatch"
	"github.com/nchouser54/ai-pr-reviewer/internal/ghclient"
	"github.com/nchouser54/ai-pr-reviewer/internal/logging"
	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

var deps *dispatch.Dependencies

func buildDependencies(ctx context.Context) (*dispatch.Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	awsClients, err := bootstrap.LoadAWS(ctx)
	if err != nil {
		return nil, err
	}

	secrets := bootstrap.NewSecretCache(awsClients)

	auth, err := bootstrap.BuildForgeAuth(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}

	guard, err := bootstrap.BuildIdempotencyGuard(cfg, awsClients)
	if err != nil {
		return nil, err
	}

	runtime, err := bootstrap.BuildLLMRuntimes(ctx, cfg, awsClients, secrets)
	if err != nil {
		return nil, err
	}

	logger := logging.New()
	metricsSink, _ := bootstrap.BuildMetricsSink(cfg, awsClients, logger)
	notifier := bootstrap.BuildNotifier(ctx, cfg, secrets, logger)

	return &dispatch.Dependencies{
		Auth:            auth,
		NewClient:       ghclient.NewClient,
		Guard:           guard,
		Planner:         runtime,
		Reviewer:        runtime,
		ForgeBreaker:    breaker.New("forge"),
		PlannerBreaker:  breaker.New("llm-planner"),
		ReviewerBreaker: breaker.New("llm-reviewer"),
		Metrics:         metricsSink,
		Notifier:        notifier,
		Logger:          logger,
		CheckRunName:    cfg.CheckRunName,
		Budgets:         contextbuilder.DefaultBudgets(),
	}, nil
}

func handleSQSEvent(ctx context.Context, evt events.SQSEvent) (events.SQSEventResponse, error) {
	var failures []events.SQSBatchItemFailure
	for _, r := range evt.Records {
		rec := queue.Record{MessageID: r.MessageId, Body: r.Body}
		if err := deps.Handle(ctx, rec); err != nil {
			if model.KindOf(err) == model.ErrTransient {
				failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: r.MessageId})
			}
			log.Printf("dispatch failed for message %s: %v", r.MessageId, err)
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	ctx := context.Background()
	var err error
	deps, err = buildDependencies(ctx)
	if err != nil {
		log.Fatalf("worker startup failed: %v", err)
	}
	lambda.Start(handleSQSEvent)
}
