package dynamo

import (
	"errors"
	"time"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	ierr "github.com/edumitra/entitlements/internal/errors"
)

// Timestamps are stored as fixed-width strings so that string comparison
// inside filter expressions matches chronological order. RFC3339Nano
// trims trailing zeros and breaks that property.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmtTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func fmtDecimal(d decimal.Decimal) string {
	return d.String()
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func isConditionalCheckFailed(err error) bool {
	var ccf *ddbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func unmarshalFailure(err error, table string) error {
	return ierr.WithError(err).
		WithHint("Stored item could not be decoded").
		WithReportableDetails(map[string]any{
			"table": table,
		}).
		Mark(ierr.ErrDatabase)
}
