// Command webhook is the API-Gateway-triggered Lambda entry point for
// inbound GitHub webhook deliveries. It adapts the proxy request/response
// shapes into internal/ingress.RawRequest/RawResponse and, outside of
// Lambda, can instead serve the same receiver over a local gorilla/mux
// HTTP server for development.
package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nchouser54/ai-pr-reviewer/internal/bootstrap"
	"github.com/nchouser54/ai-pr-reviewer/internal/config"
	"github.com/nchouser54/ai-pr-reviewer/internal/ghclient"
	"github.com/nchouser54/ai-pr-reviewer/internal/ghevents"
	"github.com/nchouser54/ai-pr-reviewer/internal/ingress"
	"github.com/nchouser54/ai-pr-reviewer/internal/logging"
	"github.com/nchouser54/ai-pr-reviewer/internal/metrics"
)

const (
	eventHeader      = "X-GitHub-Event"
	deliveryHeader   = "X-GitHub-Delivery"
	signatureHeader  = "X-Hub-Signature-256"
)

var receiver *ingress.Receiver

func buildReceiver(ctx context.Context) (*ingress.Receiver, *metrics.PrometheusSink, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	awsClients, err := bootstrap.LoadAWS(ctx)
	if err != nil {
		return nil, nil, err
	}

	secrets := bootstrap.NewSecretCache(awsClients)
	webhookSecret, err := secrets.Get(ctx, cfg.WebhookSecretName)
	if err != nil {
		return nil, nil, err
	}

	auth, err := bootstrap.BuildForgeAuth(ctx, cfg, secrets)
	if err != nil {
		return nil, nil, err
	}

	guard, err := bootstrap.BuildIdempotencyGuard(cfg, awsClients)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New()
	metricsSink, prom := bootstrap.BuildMetricsSink(cfg, awsClients, logger)

	triggerLabels := map[string]struct{}{}
	for _, l := range cfg.TriggerLabels {
		triggerLabels[l] = struct{}{}
	}
	allowedRepos := map[string]struct{}{}
	for _, r := range cfg.AllowedRepos {
		allowedRepos[r] = struct{}{}
	}

	r := &ingress.Receiver{
		Config: ingress.Config{
			WebhookSecret: webhookSecret,
			Events: ghevents.Config{
				TriggerPhrase: cfg.TriggerPhrase,
				BotUsername:   cfg.BotUsername,
				TriggerLabels: triggerLabels,
				CheckRunName:  cfg.CheckRunName,
				AllowedRepos:  allowedRepos,
			},
			QueueURL:     cfg.QueueURL,
			ReplayMaxAge: cfg.ReplayMaxAge(),
		},
		Guard:     guard,
		Queue:     bootstrap.NewQueueClient(awsClients),
		Auth:      auth,
		NewClient: ghclient.NewClient,
		Metrics:   metricsSink,
		Logger:    logger,
	}
	return r, prom, nil
}

func handleAPIGatewayRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := receiver.Handle(ctx, ingress.RawRequest{
		EventType:  req.Headers[eventHeader],
		DeliveryID: req.Headers[deliveryHeader],
		Signature:  req.Headers[signatureHeader],
		Body:       []byte(req.Body),
	})
	return events.APIGatewayProxyResponse{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

func runLocalDevServer(prom *metrics.PrometheusSink) {
	router := mux.NewRouter()
	router.Use(metrics.AdminRequestMiddleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if prom != nil {
		router.Handle("/metrics", promhttp.HandlerFor(prom.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	router.HandleFunc("/api/v1/webhooks/github", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(ingress.MaxBodyBytes)))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		resp := receiver.Handle(r.Context(), ingress.RawRequest{
			EventType:  r.Header.Get(eventHeader),
			DeliveryID: r.Header.Get(deliveryHeader),
			Signature:  r.Header.Get(signatureHeader),
			Body:       body,
		})
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write([]byte(resp.Body))
	}).Methods(http.MethodPost)

	addr := ":8090"
	log.Printf("local webhook dev server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, router))
}

func main() {
	ctx := context.Background()
	var err error
	var prom *metrics.PrometheusSink
	receiver, prom, err = buildReceiver(ctx)
	if err != nil {
		log.Fatalf("webhook startup failed: %v", err)
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		lambda.Start(handleAPIGatewayRequest)
		return
	}
	runLocalDevServer(prom)
}
