// Package dynamo implements the idempotency guard against a DynamoDB table
// using a conditional put, matching the original system's
// `_claim_idempotency` (attribute_not_exists condition on the partition key).
package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
	"github.com/nchouser54/ai-pr-reviewer/internal/retry"
)

// Guard is a DynamoDB-backed idempotency.Guard.
type Guard struct {
	DB        *dynamodb.Client
	TableName string
}

func (g *Guard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()
	record := model.IdempotencyRecord{
		Key:       key,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return false, err
	}

	_, err = retry.Call(ctx, "dynamo.put_item", retry.DefaultConfig(),
		func(ctx context.Context) (struct{}, error) {
			_, err := g.DB.PutItem(ctx, &dynamodb.PutItemInput{
				TableName:           aws.String(g.TableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(#k)"),
				ExpressionAttributeNames: map[string]string{
					"#k": "key",
				},
			})
			return struct{}{}, err
		},
		func(err error) bool {
			var condFailed *types.ConditionalCheckFailedException
			if errors.As(err, &condFailed) {
				return false
			}
			return retry.RetryableCloudError(err)
		},
		nil,
	)

	var condFailed *types.ConditionalCheckFailedException
	if errors.As(err, &condFailed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
