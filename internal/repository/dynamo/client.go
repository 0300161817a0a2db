package dynamo

import (
	"context"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/edumitra/entitlements/internal/config"
	ierr "github.com/edumitra/entitlements/internal/errors"
)

type Client struct {
	db *dynamodb.Client
}

func NewClient(cfg *config.Configuration) (*Client, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion(cfg.DynamoDB.Region),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to load AWS SDK config").
			Mark(ierr.ErrSystem)
	}

	return &Client{
		db: dynamodb.NewFromConfig(awsCfg),
	}, nil
}

func (c *Client) DB() *dynamodb.Client {
	return c.db
}
