package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Donatronix/identity-center-ms-sub001/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IdentificationRepo is the append-only audit log of vendor webhook deliveries.
// PK: session_id (vendor-assigned). Rows are inserted once and never updated.
type IdentificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewIdentificationRepo(client *dynamodb.Client, tableName string) *IdentificationRepo {
	return &IdentificationRepo{client: client, tableName: tableName}
}

// Insert persists a new session record. A concurrent or repeated delivery of
// the same vendor session id fails with ErrConflict; the caller treats that
// as a replay and must not re-apply side effects.
func (r *IdentificationRepo) Insert(ctx context.Context, s *domain.IdentificationSession) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal identification session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(session_id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("session %s already ingested: %w", s.SessionID, domain.ErrConflict)
	}
	return err
}

func (r *IdentificationRepo) Get(ctx context.Context, sessionID string) (*domain.IdentificationSession, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("session_id", sessionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("identification session not found: %w", domain.ErrNotFound)
	}
	var s domain.IdentificationSession
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
