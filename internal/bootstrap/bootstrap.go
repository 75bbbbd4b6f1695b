// Package bootstrap wires internal/config into concrete adapters, shared by
// cmd/webhook and cmd/worker so both entry points construct their
// dependencies identically.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nchouser54/ai-pr-reviewer/internal/awsx/queue"
	awssm "github.com/nchouser54/ai-pr-reviewer/internal/awsx/secretsmanager"
	"github.com/nchouser54/ai-pr-reviewer/internal/config"
	"github.com/nchouser54/ai-pr-reviewer/internal/ghauth"
	"github.com/nchouser54/ai-pr-reviewer/internal/idempotency"
	"github.com/nchouser54/ai-pr-reviewer/internal/idempotency/dynamo"
	"github.com/nchouser54/ai-pr-reviewer/internal/idempotency/redisguard"
	"github.com/nchouser54/ai-pr-reviewer/internal/idempotency/sqliteguard"
	"github.com/nchouser54/ai-pr-reviewer/internal/llm"
	"github.com/nchouser54/ai-pr-reviewer/internal/llm/anthropicrt"
	"github.com/nchouser54/ai-pr-reviewer/internal/llm/bedrock"
	"github.com/nchouser54/ai-pr-reviewer/internal/metrics"
	"github.com/nchouser54/ai-pr-reviewer/internal/notify"
	"github.com/nchouser54/ai-pr-reviewer/internal/secretcache"
)

// AWS holds the shared AWS SDK clients, constructed once per process.
type AWS struct {
	Secrets    *secretsmanager.Client
	DynamoDB   *dynamodb.Client
	SQS        *sqs.Client
	CloudWatch *cloudwatch.Client
	Bedrock    *bedrockruntime.Client
}

// LoadAWS loads the default AWS config and constructs every client the
// process might need; unused clients cost nothing beyond construction.
func LoadAWS(ctx context.Context) (AWS, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWS{}, fmt.Errorf("load aws config: %w", err)
	}
	return AWS{
		Secrets:    secretsmanager.NewFromConfig(cfg),
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
		Bedrock:    bedrockruntime.NewFromConfig(cfg),
	}, nil
}

// ghAppSecret is the JSON shape stored in AppIdentitySecretName.
type ghAppSecret struct {
	AppID                 string `json:"app_id"`
	DefaultInstallationID int64  `json:"installation_id"`
	PrivateKeyPEM         string `json:"private_key_pem"`
}

// BuildForgeAuth loads and parses the GitHub App identity secret into a
// ready-to-use ghauth.Auth.
func BuildForgeAuth(ctx context.Context, cfg config.Config, secrets *secretcache.Cache) (*ghauth.Auth, error) {
	raw, err := secrets.Get(ctx, cfg.AppIdentitySecretName)
	if err != nil {
		return nil, fmt.Errorf("load app identity secret: %w", err)
	}

	var s ghAppSecret
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("parse app identity secret: %w", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(s.PrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse app private key: %w", err)
	}

	return &ghauth.Auth{
		Identity:   ghauth.AppIdentity{AppID: s.AppID, DefaultInstallationID: s.DefaultInstallationID},
		PrivateKey: key,
	}, nil
}

// BuildIdempotencyGuard selects a guard implementation per
// cfg.IdempotencyBackend.
func BuildIdempotencyGuard(cfg config.Config, aws AWS) (idempotency.Guard, error) {
	switch cfg.IdempotencyBackend {
	case "redis":
		return &redisguard.Guard{Client: redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), Prefix: "ai-pr-reviewer:"}, nil
	case "sqlite":
		return sqliteguard.Open(cfg.SQLitePath)
	default:
		return &dynamo.Guard{DB: aws.DynamoDB, TableName: cfg.DynamoTableName}, nil
	}
}

// BuildLLMRuntimes constructs the planner and reviewer runtimes per
// cfg.LLMBackend. Both stages share one runtime; the distinction between
// planner and reviewer is in token budget and prompt, not backend.
func BuildLLMRuntimes(ctx context.Context, cfg config.Config, aws AWS, secrets *secretcache.Cache) (llm.Runtime, error) {
	switch cfg.LLMBackend {
	case "anthropic":
		apiKey, err := secrets.Get(ctx, cfg.AnthropicAPIKeySecretName)
		if err != nil {
			return nil, fmt.Errorf("load anthropic api key: %w", err)
		}
		return anthropicrt.New(apiKey, anthropic.Model(cfg.AnthropicModel)), nil
	default:
		return &bedrock.Runtime{Client: aws.Bedrock, ModelID: cfg.BedrockModelID}, nil
	}
}

// BuildMetricsSink combines a Prometheus sink (for local scraping) and a
// CloudWatch sink (for production dashboards) into one fan-out sink.
func BuildMetricsSink(cfg config.Config, aws AWS, logger *zap.Logger) (metrics.Sink, *metrics.PrometheusSink) {
	prom := metrics.NewPrometheusSink()
	cw := &metrics.CloudWatchSink{Client: aws.CloudWatch, Namespace: "AIPRReviewer", Logger: logger}
	return metrics.MultiSink{Sinks: []metrics.Sink{prom, cw}}, prom
}

// BuildNotifier loads the Slack bot token (if configured) and builds a
// notifier; a missing secret name yields a no-op notifier.
func BuildNotifier(ctx context.Context, cfg config.Config, secrets *secretcache.Cache, logger *zap.Logger) *notify.Notifier {
	if cfg.SlackBotTokenSecretName == "" {
		return notify.New("", cfg.SlackChannel, logger)
	}
	token, err := secrets.Get(ctx, cfg.SlackBotTokenSecretName)
	if err != nil {
		logger.Warn("failed to load slack bot token, notifications disabled", zap.Error(err))
		return notify.New("", cfg.SlackChannel, logger)
	}
	return notify.New(token, cfg.SlackChannel, logger)
}

// NewSecretCache builds the process-lifetime secret cache over AWS Secrets
// Manager.
func NewSecretCache(aws AWS) *secretcache.Cache {
	return secretcache.New(awssm.New(aws.Secrets))
}

// NewQueueClient wraps the SQS client for enqueueing canonical events.
func NewQueueClient(aws AWS) *queue.Client {
	return &queue.Client{SQS: aws.SQS}
}
