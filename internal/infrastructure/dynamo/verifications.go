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

// VerificationRepo manages one-time verification sessions.
// PK: sid. GSIs: user-purpose-index (user_id, purpose), code-index (code).
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

// CONSUMED is a DynamoDB reserved keyword, so every expression touching the
// attribute must go through a placeholder.
const (
	unconsumedFilterExpr = "#c = :f"
	markConsumedExpr     = "SET #c = :t"
	consumeGuardExpr     = "attribute_exists(sid) AND #c = :f"
)

var consumedAlias = map[string]string{"#c": fieldConsumed}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationSession) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(sid)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("sid collision: %w", domain.ErrConflict)
	}
	return err
}

func (r *VerificationRepo) Get(ctx context.Context, sid string) (*domain.VerificationSession, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("sid", sid),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification session not found: %w", domain.ErrNotFound)
	}
	var v domain.VerificationSession
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetActiveByUser returns the unconsumed session for (user, purpose), if any.
func (r *VerificationRepo) GetActiveByUser(ctx context.Context, userID, purpose string) (*domain.VerificationSession, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user-purpose-index"),
		KeyConditionExpression:   aws.String("user_id = :uid AND purpose = :p"),
		FilterExpression:         aws.String(unconsumedFilterExpr),
		ExpressionAttributeNames: consumedAlias,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":p":   &types.AttributeValueMemberS{Value: purpose},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no active verification session: %w", domain.ErrNotFound)
	}
	var v domain.VerificationSession
	if err := attributevalue.UnmarshalMap(out.Items[0], &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CodeInUse reports whether an unconsumed session currently holds the code.
func (r *VerificationRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("code-index"),
		KeyConditionExpression:   aws.String("code = :c"),
		FilterExpression:         aws.String(unconsumedFilterExpr),
		ExpressionAttributeNames: consumedAlias,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return false, err
	}
	return len(out.Items) > 0, nil
}

// MarkConsumed flips consumed exactly once via a conditional update.
// The condition fails for a missing row and for an already-consumed one;
// both surface as ErrInvalidSession so the caller learns nothing extra.
func (r *VerificationRepo) MarkConsumed(ctx context.Context, sid string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("sid", sid),
		UpdateExpression:         aws.String(markConsumedExpr),
		ConditionExpression:      aws.String(consumeGuardExpr),
		ExpressionAttributeNames: consumedAlias,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("session %s already consumed or missing: %w", sid, domain.ErrInvalidSession)
	}
	return err
}

func (r *VerificationRepo) Delete(ctx context.Context, sid string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("sid", sid),
	})
	return err
}
