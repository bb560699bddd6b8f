package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nearnest/api/internal/domain"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
type AccountRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAccountID, accountID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert merges the email into the account record. created_at, status and
// roles are only initialised when absent, so repeated code requests never
// clobber fields written by other flows.
func (r *AccountRepo) Upsert(ctx context.Context, accountID, email string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAccountID, accountID),
		UpdateExpression: aws.String(fmt.Sprintf(
			"SET %[1]s = :e, %[2]s = :now, "+
				"%[3]s = if_not_exists(%[3]s, :now), "+
				"#st = if_not_exists(#st, :pending), "+
				"#rl = if_not_exists(#rl, :noroles)",
			fieldEmail, fieldUpdatedAt, fieldCreatedAt)),
		ExpressionAttributeNames: map[string]string{
			"#st": fieldStatus,
			"#rl": fieldRoles,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e":       &types.AttributeValueMemberS{Value: email},
			":now":     &types.AttributeValueMemberS{Value: now},
			":pending": &types.AttributeValueMemberS{Value: domain.StatusPendingEmailVerification},
			":noroles": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	return err
}

// Update applies a SET of the given fields and refreshes updated_at.
func (r *AccountRepo) Update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldAccountID, accountID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
