package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDedupStore records processed event ids in DynamoDB so that a
// stateless consumer (e.g. Lambda) can suppress redelivered events.
// The conditional put makes first-claim semantics atomic: exactly one
// worker wins a given event id.
type DynamoDedupStore struct {
	client    *dynamodb.Client
	tableName string
	ttl       time.Duration
}

// processedEvent represents the DynamoDB item structure
type processedEvent struct {
	EventID     string `dynamodbav:"event_id"`
	TenantID    string `dynamodbav:"tenant_id"`
	ProcessedAt string `dynamodbav:"processed_at"`
	ExpiresAt   int64  `dynamodbav:"expires_at"` // TTL attribute
}

func NewDynamoDedupStore(client *dynamodb.Client, tableName string, ttl time.Duration) *DynamoDedupStore {
	return &DynamoDedupStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
	}
}

// MarkProcessed claims an event id. It returns true when this call was
// the first claim and false when the event was already processed.
func (ds *DynamoDedupStore) MarkProcessed(ctx context.Context, tenantID, eventID string) (bool, error) {
	now := time.Now()
	item := processedEvent{
		EventID:     eventID,
		TenantID:    tenantID,
		ProcessedAt: now.Format(time.RFC3339Nano),
		ExpiresAt:   now.Add(ds.ttl).Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return false, fmt.Errorf("failed to marshal dedup record: %w", err)
	}

	_, err = ds.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(ds.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(event_id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return false, fmt.Errorf("failed to put dedup record: %w", err)
	}
	return true, nil
}
