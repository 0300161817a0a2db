package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/domain/redemption"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
)

// The ledger table is keyed (account_id, coupon_code) so that the
// create-once condition gives at-most-once redemption per pair.
type redemptionRepository struct {
	client    *Client
	tableName string
	logger    *logger.Logger
}

func NewRedemptionRepository(client *Client, cfg *config.Configuration, logger *logger.Logger) redemption.Repository {
	return &redemptionRepository{
		client:    client,
		tableName: cfg.DynamoDB.RedemptionTableName,
		logger:    logger,
	}
}

type redemptionItem struct {
	AccountID  string `dynamodbav:"account_id"`
	CouponCode string `dynamodbav:"coupon_code"`
	ID         string `dynamodbav:"id"`
	RedeemedAt string `dynamodbav:"redeemed_at"`
}

func (r *redemptionRepository) Create(ctx context.Context, red *redemption.Redemption) error {
	item, err := attributevalue.MarshalMap(&redemptionItem{
		AccountID:  red.AccountID,
		CouponCode: red.CouponCode,
		ID:         red.ID,
		RedeemedAt: fmtTime(red.RedeemedAt),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal redemption").
			Mark(ierr.ErrDatabase)
	}

	_, err = r.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(account_id)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ierr.WithError(err).
				WithHint("Coupon already redeemed by this account").
				WithReportableDetails(map[string]any{
					"account_id":  red.AccountID,
					"coupon_code": red.CouponCode,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to record redemption").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *redemptionRepository) Delete(ctx context.Context, accountID, couponCode string) error {
	_, err := r.client.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"account_id":  &ddbtypes.AttributeValueMemberS{Value: accountID},
			"coupon_code": &ddbtypes.AttributeValueMemberS{Value: couponCode},
		},
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to remove redemption").
			WithReportableDetails(map[string]any{
				"account_id":  accountID,
				"coupon_code": couponCode,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *redemptionRepository) Exists(ctx context.Context, accountID, couponCode string) (bool, error) {
	out, err := r.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"account_id":  &ddbtypes.AttributeValueMemberS{Value: accountID},
			"coupon_code": &ddbtypes.AttributeValueMemberS{Value: couponCode},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check redemption history").
			Mark(ierr.ErrDatabase)
	}
	return out.Item != nil, nil
}

func (r *redemptionRepository) ListByAccount(ctx context.Context, accountID string) ([]*redemption.Redemption, error) {
	var results []*redemption.Redemption
	var startKey map[string]ddbtypes.AttributeValue
	for {
		out, err := r.client.db.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("account_id = :account_id"),
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":account_id": &ddbtypes.AttributeValueMemberS{Value: accountID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to list redemptions").
				Mark(ierr.ErrDatabase)
		}

		for _, raw := range out.Items {
			var item redemptionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, unmarshalFailure(err, r.tableName)
			}
			redeemedAt, err := parseTime(item.RedeemedAt)
			if err != nil {
				return nil, unmarshalFailure(err, r.tableName)
			}
			results = append(results, &redemption.Redemption{
				ID:         item.ID,
				AccountID:  item.AccountID,
				CouponCode: item.CouponCode,
				RedeemedAt: redeemedAt,
			})
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return results, nil
}
