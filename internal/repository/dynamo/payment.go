package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/domain/payment"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
)

type paymentRepository struct {
	client    *Client
	tableName string
	logger    *logger.Logger
}

func NewPaymentRepository(client *Client, cfg *config.Configuration, logger *logger.Logger) payment.Repository {
	return &paymentRepository{
		client:    client,
		tableName: cfg.DynamoDB.PaymentTableName,
		logger:    logger,
	}
}

type paymentItem struct {
	PaymentID  string `dynamodbav:"payment_id"`
	OrderID    string `dynamodbav:"order_id,omitempty"`
	AccountID  string `dynamodbav:"account_id"`
	Plan       string `dynamodbav:"plan,omitempty"`
	Amount     string `dynamodbav:"amount"`
	CapturedAt string `dynamodbav:"captured_at"`
}

func (r *paymentRepository) Create(ctx context.Context, record *payment.Record) error {
	item, err := attributevalue.MarshalMap(&paymentItem{
		PaymentID:  record.PaymentID,
		OrderID:    record.OrderID,
		AccountID:  record.AccountID,
		Plan:       record.Plan,
		Amount:     fmtDecimal(record.Amount),
		CapturedAt: fmtTime(record.CapturedAt),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal payment record").
			Mark(ierr.ErrDatabase)
	}

	_, err = r.client.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(payment_id)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ierr.WithError(err).
				WithHint("Payment has already been processed").
				WithReportableDetails(map[string]any{
					"payment_id": record.PaymentID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to record payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, paymentID string) (*payment.Record, error) {
	out, err := r.client.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]ddbtypes.AttributeValue{
			"payment_id": &ddbtypes.AttributeValueMemberS{Value: paymentID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch payment record").
			Mark(ierr.ErrDatabase)
	}
	if out.Item == nil {
		return nil, ierr.NewError("payment record not found").
			WithHint("No payment exists with this ID").
			WithReportableDetails(map[string]any{
				"payment_id": paymentID,
			}).
			Mark(ierr.ErrNotFound)
	}

	var item paymentItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, unmarshalFailure(err, r.tableName)
	}

	amount, err := parseDecimal(item.Amount)
	if err != nil {
		return nil, unmarshalFailure(err, r.tableName)
	}
	capturedAt, err := parseTime(item.CapturedAt)
	if err != nil {
		return nil, unmarshalFailure(err, r.tableName)
	}
	return &payment.Record{
		PaymentID:  item.PaymentID,
		OrderID:    item.OrderID,
		AccountID:  item.AccountID,
		Plan:       item.Plan,
		Amount:     amount,
		CapturedAt: capturedAt,
	}, nil
}
