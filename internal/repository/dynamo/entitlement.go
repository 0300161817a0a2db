package dynamo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/domain/entitlement"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/types"
)

type entitlementRepository struct {
	client    *Client
	tableName string
	logger    *logger.Logger
}

func NewEntitlementRepository(client *Client, cfg *config.Configuration, logger *logger.Logger) entitlement.Repository {
	return &entitlementRepository{
		client:    client,
		tableName: cfg.DynamoDB.EntitlementTableName,
		logger:    logger,
	}
}

type entitlementItem struct {
	AccountID string `dynamodbav:"account_id"`
	Status    string `dynamodbav:"status"`
	Plan      string `dynamodbav:"plan,omitempty"`

	TrialUsed      bool   `dynamodbav:"trial_used"`
	TrialStartDate string `dynamodbav:"trial_start_date,omitempty"`
	TrialEndDate   string `dynamodbav:"trial_end_date,omitempty"`

	SubscriptionStartDate string `dynamodbav:"subscription_start_date,omitempty"`
	SubscriptionEndDate   string `dynamodbav:"subscription_end_date,omitempty"`
	GracePeriodEndDate    string `dynamodbav:"grace_period_end_date,omitempty"`

	AutoRenew bool `dynamodbav:"auto_renew"`

	LastPaymentID     string `dynamodbav:"last_payment_id,omitempty"`
	LastPaymentAmount string `dynamodbav:"last_payment_amount,omitempty"`
	LastPaymentDate   string `dynamodbav:"last_payment_date,omitempty"`

	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func toEntitlementItem(e *entitlement.Entitlement) *entitlementItem {
	item := &entitlementItem{
		AccountID:             e.AccountID,
		Status:                string(e.Status),
		TrialUsed:             e.TrialUsed,
		TrialStartDate:        fmtTimePtr(e.TrialStartDate),
		TrialEndDate:          fmtTimePtr(e.TrialEndDate),
		SubscriptionStartDate: fmtTimePtr(e.SubscriptionStartDate),
		SubscriptionEndDate:   fmtTimePtr(e.SubscriptionEndDate),
		GracePeriodEndDate:    fmtTimePtr(e.GracePeriodEndDate),
		AutoRenew:             e.AutoRenew,
		LastPaymentID:         e.LastPaymentID,
		LastPaymentDate:       fmtTimePtr(e.LastPaymentDate),
		CreatedAt:             fmtTime(e.CreatedAt),
		UpdatedAt:             fmtTime(e.UpdatedAt),
	}
	if e.Plan != nil {
		item.Plan = *e.Plan
	}
	if !e.LastPaymentAmount.IsZero() {
		item.LastPaymentAmount = fmtDecimal(e.LastPaymentAmount)
	}
	return item
}

func (i *entitlementItem) toDomain() (*entitlement.Entitlement, error) {
	e := &entitlement.Entitlement{
		AccountID: i.AccountID,
		Status:    types.EntitlementStatus(i.Status),
		TrialUsed: i.TrialUsed,
		AutoRenew: i.AutoRenew,

		LastPaymentID: i.LastPaymentID,
	}
	if i.Plan != "" {
		plan := i.Plan
		e.Plan = &plan
	}

	var err error
	if e.TrialStartDate, err = parseTimePtr(i.TrialStartDate); err != nil {
		return nil, err
	}
	if e.TrialEndDate, err = parseTimePtr(i.TrialEndDate); err != nil {
		return nil, err
	}
	if e.SubscriptionStartDate, err = parseTimePtr(i.SubscriptionStartDate); err != nil {
		return nil, err
	}
	if e.SubscriptionEndDate, err = parseTimePtr(i.SubscriptionEndDate); err != nil {
		return nil, err
	}
	if e.GracePeriodEndDate, err = parseTimePtr(i.GracePeriodEndDate); err != nil {
		return nil, err
	}
	if e.LastPaymentDate, err = parseTimePtr(i.LastPaymentDate); err != nil {
		return nil, err
	}
	if e.LastPaymentAmount, err = parseDecimal(i.LastPaymentAmount); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(i.CreatedAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(i.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *entitlementRepository) Create(ctx context.Context, e *entitlement.Entitlement) error {
	item, err := attributevalue.MarshalMap(toEntitlementItem(e))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal entitlement").
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
				WithHint("Entitlement already exists for this account").
				WithReportableDetails(map[string]any{
					"account_id": e.AccountID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create entitlement").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *entitlementRepository) Get(ctx context.Context, accountID string) (*entitlement.Entitlement, error) {
	out, err := r.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"account_id": &ddbtypes.AttributeValueMemberS{Value: accountID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch entitlement").
			Mark(ierr.ErrDatabase)
	}
	if out.Item == nil {
		return nil, ierr.NewError("entitlement not found").
			WithHint("No entitlement record exists for this account").
			WithReportableDetails(map[string]any{
				"account_id": accountID,
			}).
			Mark(ierr.ErrNotFound)
	}

	var item entitlementItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, unmarshalFailure(err, r.tableName)
	}
	e, err := item.toDomain()
	if err != nil {
		return nil, unmarshalFailure(err, r.tableName)
	}
	return e, nil
}

func (r *entitlementRepository) Update(ctx context.Context, e *entitlement.Entitlement) error {
	e.UpdatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(toEntitlementItem(e))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal entitlement").
			Mark(ierr.ErrDatabase)
	}

	_, err = r.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(account_id)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ierr.WithError(err).
				WithHint("No entitlement record exists for this account").
				WithReportableDetails(map[string]any{
					"account_id": e.AccountID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return ierr.WithError(err).
			WithHint("Failed to update entitlement").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// ListExpiring scans for due records in pages. The fixed-width timestamp
// layout makes the string comparison in the filter chronological.
func (r *entitlementRepository) ListExpiring(ctx context.Context, now time.Time) ([]*entitlement.Entitlement, error) {
	cutoff := fmtTime(now)

	var results []*entitlement.Entitlement
	var startKey map[string]ddbtypes.AttributeValue
	for {
		out, err := r.client.db.Scan(ctx, &dynamodb.ScanInput{
			TableName: aws.String(r.tableName),
			FilterExpression: aws.String(
				"(#st = :trial AND trial_end_date <= :cutoff) OR (#st = :active AND subscription_end_date <= :cutoff)",
			),
			ExpressionAttributeNames: map[string]string{
				"#st": "status",
			},
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":trial":  &ddbtypes.AttributeValueMemberS{Value: string(types.EntitlementStatusTrial)},
				":active": &ddbtypes.AttributeValueMemberS{Value: string(types.EntitlementStatusActive)},
				":cutoff": &ddbtypes.AttributeValueMemberS{Value: cutoff},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan for expiring entitlements").
				Mark(ierr.ErrDatabase)
		}

		for _, raw := range out.Items {
			var item entitlementItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, unmarshalFailure(err, r.tableName)
			}
			e, err := item.toDomain()
			if err != nil {
				return nil, unmarshalFailure(err, r.tableName)
			}
			results = append(results, e)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return results, nil
}
