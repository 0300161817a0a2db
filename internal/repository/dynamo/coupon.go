package dynamo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/domain/coupon"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/types"
)

type couponRepository struct {
	client    *Client
	tableName string
	logger    *logger.Logger
}

func NewCouponRepository(client *Client, cfg *config.Configuration, logger *logger.Logger) coupon.Repository {
	return &couponRepository{
		client:    client,
		tableName: cfg.DynamoDB.CouponTableName,
		logger:    logger,
	}
}

// max_usage_count is omitted entirely for unlimited coupons so the
// conditional increment can distinguish capped from uncapped with
// attribute_not_exists.
type couponItem struct {
	Code              string `dynamodbav:"code"`
	Name              string `dynamodbav:"name"`
	Active            bool   `dynamodbav:"active"`
	ValidUntil        string `dynamodbav:"valid_until,omitempty"`
	Discount          string `dynamodbav:"discount"`
	Type              string `dynamodbav:"coupon_type"`
	MaxUsageCount     *int64 `dynamodbav:"max_usage_count,omitempty"`
	CurrentUsageCount int64  `dynamodbav:"current_usage_count"`
	OneTimePerUser    bool   `dynamodbav:"one_time_per_user"`
	CreatedAt         string `dynamodbav:"created_at"`
	UpdatedAt         string `dynamodbav:"updated_at"`
	CreatedBy         string `dynamodbav:"created_by,omitempty"`
}

func toCouponItem(c *coupon.Coupon) *couponItem {
	return &couponItem{
		Code:              c.Code,
		Name:              c.Name,
		Active:            c.Active,
		ValidUntil:        fmtTimePtr(c.ValidUntil),
		Discount:          fmtDecimal(c.Discount),
		Type:              string(c.Type),
		MaxUsageCount:     c.MaxUsageCount,
		CurrentUsageCount: c.CurrentUsageCount,
		OneTimePerUser:    c.OneTimePerUser,
		CreatedAt:         fmtTime(c.CreatedAt),
		UpdatedAt:         fmtTime(c.UpdatedAt),
		CreatedBy:         c.CreatedBy,
	}
}

func (i *couponItem) toDomain() (*coupon.Coupon, error) {
	c := &coupon.Coupon{
		Code:              i.Code,
		Name:              i.Name,
		Active:            i.Active,
		Type:              types.CouponType(i.Type),
		MaxUsageCount:     i.MaxUsageCount,
		CurrentUsageCount: i.CurrentUsageCount,
		OneTimePerUser:    i.OneTimePerUser,
		CreatedBy:         i.CreatedBy,
	}

	var err error
	if c.ValidUntil, err = parseTimePtr(i.ValidUntil); err != nil {
		return nil, err
	}
	if c.Discount, err = parseDecimal(i.Discount); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(i.CreatedAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(i.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *couponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	item, err := attributevalue.MarshalMap(toCouponItem(c))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal coupon").
			Mark(ierr.ErrDatabase)
	}

	_, err = r.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(code)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ierr.WithError(err).
				WithHint("A coupon with this code already exists").
				WithReportableDetails(map[string]any{
					"code": c.Code,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create coupon").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *couponRepository) Get(ctx context.Context, code string) (*coupon.Coupon, error) {
	out, err := r.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"code": &ddbtypes.AttributeValueMemberS{Value: code},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch coupon").
			Mark(ierr.ErrDatabase)
	}
	if out.Item == nil {
		return nil, ierr.NewError("coupon not found").
			WithHint("No coupon exists with this code").
			WithReportableDetails(map[string]any{
				"code": code,
			}).
			Mark(ierr.ErrNotFound)
	}

	var item couponItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, unmarshalFailure(err, r.tableName)
	}
	c, err := item.toDomain()
	if err != nil {
		return nil, unmarshalFailure(err, r.tableName)
	}
	return c, nil
}

func (r *couponRepository) List(ctx context.Context) ([]*coupon.Coupon, error) {
	var results []*coupon.Coupon
	var startKey map[string]ddbtypes.AttributeValue
	for {
		out, err := r.client.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to list coupons").
				Mark(ierr.ErrDatabase)
		}

		for _, raw := range out.Items {
			var item couponItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, unmarshalFailure(err, r.tableName)
			}
			c, err := item.toDomain()
			if err != nil {
				return nil, unmarshalFailure(err, r.tableName)
			}
			results = append(results, c)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return results, nil
}

func (r *couponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	c.UpdatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(toCouponItem(c))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal coupon").
			Mark(ierr.ErrDatabase)
	}

	_, err = r.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(code)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ierr.WithError(err).
				WithHint("No coupon exists with this code").
				WithReportableDetails(map[string]any{
					"code": c.Code,
				}).
				Mark(ierr.ErrNotFound)
		}
		return ierr.WithError(err).
			WithHint("Failed to update coupon").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *couponRepository) Delete(ctx context.Context, code string) error {
	_, err := r.client.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"code": &ddbtypes.AttributeValueMemberS{Value: code},
		},
		ConditionExpression: aws.String("attribute_exists(code)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ierr.WithError(err).
				WithHint("No coupon exists with this code").
				WithReportableDetails(map[string]any{
					"code": code,
				}).
				Mark(ierr.ErrNotFound)
		}
		return ierr.WithError(err).
			WithHint("Failed to delete coupon").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// IncrementUsage is the contended write of the redemption path. The
// condition lets uncapped coupons through and rejects a capped coupon
// exactly at its limit, no matter how many redeemers race. Callers have
// already validated the coupon exists, so a conditional failure here
// means the cap, not a missing item.
func (r *couponRepository) IncrementUsage(ctx context.Context, code string) error {
	_, err := r.client.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"code": &ddbtypes.AttributeValueMemberS{Value: code},
		},
		UpdateExpression: aws.String("SET current_usage_count = current_usage_count + :one, updated_at = :now"),
		ConditionExpression: aws.String(
			"attribute_exists(code) AND (attribute_not_exists(max_usage_count) OR current_usage_count < max_usage_count)",
		),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":one": &ddbtypes.AttributeValueMemberN{Value: "1"},
			":now": &ddbtypes.AttributeValueMemberS{Value: fmtTime(time.Now())},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ierr.WithError(err).
				WithHint("Coupon usage limit reached").
				WithReportableDetails(map[string]any{
					"code": code,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		return ierr.WithError(err).
			WithHint("Failed to increment coupon usage").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
