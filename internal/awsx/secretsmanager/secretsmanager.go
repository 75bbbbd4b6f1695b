// Package secretsmanager is a thin wrapper over AWS Secrets Manager used by
// the secret cache.
package secretsmanager

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/nchouser54/ai-pr-reviewer/internal/retry"
)

// Client fetches a secret's string value by ARN or name.
type Client struct {
	sm *secretsmanager.Client
}

func New(sm *secretsmanager.Client) *Client {
	return &Client{sm: sm}
}

// GetSecretString fetches the secret's current SecretString, retrying on
// transient AWS errors via the shared retry envelope.
func (c *Client) GetSecretString(ctx context.Context, secretID string) (string, error) {
	out, err := retry.Call(ctx, "secretsmanager.get_secret_value", retry.DefaultConfig(),
		func(ctx context.Context) (*secretsmanager.GetSecretValueOutput, error) {
			return c.sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
				SecretId: aws.String(secretID),
			})
		},
		retry.RetryableCloudError,
		nil,
	)
	if err != nil {
		return "", err
	}
	if out.SecretString == nil {
		return "", errNoSecretString(secretID)
	}
	return *out.SecretString, nil
}

type secretMissingError string

func (e secretMissingError) Error() string { return "secret " + string(e) + " has no SecretString" }

func errNoSecretString(secretID string) error { return secretMissingError(secretID) }
