// Package config loads process configuration for cmd/webhook and cmd/worker
// from the environment using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of environment-configured knobs shared by
// cmd/webhook and cmd/worker. Not every field is used by every binary.
type Config struct {
	WebhookSecretName    string `mapstructure:"webhook_secret_name"`
	AppIdentitySecretName string `mapstructure:"app_identity_secret_name"`
	QueueURL             string `mapstructure:"queue_url"`
	TriggerPhrase        string `mapstructure:"trigger_phrase"`
	BotUsername          string `mapstructure:"bot_username"`
	CheckRunName         string `mapstructure:"check_run_name"`
	TriggerLabels        []string `mapstructure:"trigger_labels"`
	AllowedRepos         []string `mapstructure:"allowed_repos"`
	ReplayMaxAgeSeconds  int    `mapstructure:"replay_max_age_seconds"`

	IdempotencyBackend string `mapstructure:"idempotency_backend"` // dynamodb | redis | sqlite
	DynamoTableName    string `mapstructure:"dynamo_table_name"`
	RedisAddr          string `mapstructure:"redis_addr"`
	SQLitePath         string `mapstructure:"sqlite_path"`

	LLMBackend      string `mapstructure:"llm_backend"` // bedrock | anthropic
	BedrockModelID  string `mapstructure:"bedrock_model_id"`
	AnthropicAPIKeySecretName string `mapstructure:"anthropic_api_key_secret_name"`
	AnthropicModel  string `mapstructure:"anthropic_model"`

	SlackBotTokenSecretName string `mapstructure:"slack_bot_token_secret_name"`
	SlackChannel            string `mapstructure:"slack_channel"`

	AdminPort int `mapstructure:"admin_port"`
}

// ReplayMaxAge converts ReplayMaxAgeSeconds to a time.Duration. A value of 0
// disables the replay-age check; Load defaults the setting to 300 seconds.
func (c Config) ReplayMaxAge() time.Duration {
	return time.Duration(c.ReplayMaxAgeSeconds) * time.Second
}

// Load reads configuration from environment variables under the AIREVIEWER_
// prefix (e.g. AIREVIEWER_QUEUE_URL), applying sane defaults for local dev.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AIREVIEWER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// viper only surfaces AutomaticEnv values through Unmarshal for keys it
	// already knows about, so every field gets a registered default even
	// when that default is the zero value.
	v.SetDefault("webhook_secret_name", "")
	v.SetDefault("app_identity_secret_name", "")
	v.SetDefault("queue_url", "")
	v.SetDefault("trigger_phrase", "")
	v.SetDefault("bot_username", "")
	v.SetDefault("check_run_name", "ai-pr-review")
	v.SetDefault("trigger_labels", []string{})
	v.SetDefault("allowed_repos", []string{})
	v.SetDefault("replay_max_age_seconds", 300)
	v.SetDefault("idempotency_backend", "dynamodb")
	v.SetDefault("dynamo_table_name", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("llm_backend", "bedrock")
	v.SetDefault("bedrock_model_id", "anthropic.claude-3-5-sonnet-20241022-v2:0")
	v.SetDefault("anthropic_api_key_secret_name", "")
	v.SetDefault("anthropic_model", "claude-3-5-sonnet-20241022")
	v.SetDefault("slack_bot_token_secret_name", "")
	v.SetDefault("slack_channel", "")
	v.SetDefault("admin_port", 8080)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
