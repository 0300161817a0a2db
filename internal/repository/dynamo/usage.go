package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/domain/usage"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
)

type usageRepository struct {
	client    *Client
	tableName string
	logger    *logger.Logger
}

func NewUsageRepository(client *Client, cfg *config.Configuration, logger *logger.Logger) usage.Repository {
	return &usageRepository{
		client:    client,
		tableName: cfg.DynamoDB.UsageTableName,
		logger:    logger,
	}
}

type usageItem struct {
	AccountID              string `dynamodbav:"account_id"`
	AIQuestionsToday       int64  `dynamodbav:"ai_questions_today"`
	PracticeQuestionsToday int64  `dynamodbav:"practice_questions_today"`
	LastResetDate          string `dynamodbav:"last_reset_date"`
	UpdatedAt              string `dynamodbav:"updated_at"`
}

func (r *usageRepository) Get(ctx context.Context, accountID string) (*usage.Record, error) {
	out, err := r.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"account_id": &ddbtypes.AttributeValueMemberS{Value: accountID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch usage record").
			Mark(ierr.ErrDatabase)
	}
	if out.Item == nil {
		return nil, ierr.NewError("usage record not found").
			WithHint("No usage has been recorded for this account").
			WithReportableDetails(map[string]any{
				"account_id": accountID,
			}).
			Mark(ierr.ErrNotFound)
	}

	var item usageItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, unmarshalFailure(err, r.tableName)
	}

	updatedAt, err := parseTime(item.UpdatedAt)
	if err != nil {
		return nil, unmarshalFailure(err, r.tableName)
	}
	return &usage.Record{
		AccountID:              item.AccountID,
		AIQuestionsToday:       item.AIQuestionsToday,
		PracticeQuestionsToday: item.PracticeQuestionsToday,
		LastResetDate:          item.LastResetDate,
		UpdatedAt:              updatedAt,
	}, nil
}

func (r *usageRepository) Save(ctx context.Context, record *usage.Record) error {
	item, err := attributevalue.MarshalMap(&usageItem{
		AccountID:              record.AccountID,
		AIQuestionsToday:       record.AIQuestionsToday,
		PracticeQuestionsToday: record.PracticeQuestionsToday,
		LastResetDate:          record.LastResetDate,
		UpdatedAt:              fmtTime(record.UpdatedAt),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal usage record").
			Mark(ierr.ErrDatabase)
	}

	_, err = r.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to save usage record").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
