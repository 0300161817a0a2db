package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/edumitra/entitlements/internal/types"
)

type Configuration struct {
	Deployment  DeploymentConfig  `validate:"required"`
	Server      ServerConfig      `validate:"required"`
	Logging     LoggingConfig     `validate:"required"`
	Auth        AuthConfig        `validate:"required"`
	DynamoDB    DynamoDBConfig    `validate:"required"`
	Razorpay    RazorpayConfig    `validate:"required"`
	Tutor       TutorConfig       `validate:"required"`
	Entitlement EntitlementConfig `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
	// RequestTimeout bounds every store round trip on the request path
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type AuthConfig struct {
	// Secret signs and verifies the bearer tokens issued at login
	Secret string `validate:"required"`
	// AdminAPIKey guards the admin and cron endpoints
	AdminAPIKey string `mapstructure:"admin_api_key"`
}

type DynamoDBConfig struct {
	InUse                bool
	Region               string
	EntitlementTableName string `mapstructure:"entitlement_table_name"`
	UsageTableName       string `mapstructure:"usage_table_name"`
	CouponTableName      string `mapstructure:"coupon_table_name"`
	RedemptionTableName  string `mapstructure:"redemption_table_name"`
	PaymentTableName     string `mapstructure:"payment_table_name"`
}

type RazorpayConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	KeyID         string `mapstructure:"key_id"`
	KeySecret     string `mapstructure:"key_secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// TrialAmountThreshold separates trial-priced captures from full
	// activations in the webhook path; amounts at or below it are
	// treated as trial purchases. Denominated in the smallest currency
	// unit, same as the gateway payloads.
	TrialAmountThreshold int64 `mapstructure:"trial_amount_threshold"`
}

type TutorConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string
}

type EntitlementConfig struct {
	TrialDays        int `mapstructure:"trial_days" validate:"required,gt=0"`
	SubscriptionDays int `mapstructure:"subscription_days" validate:"required,gt=0"`
	GraceDays        int `mapstructure:"grace_days"`

	// Daily quotas for free-tier metered features
	AIQuestionDailyLimit       int64 `mapstructure:"ai_question_daily_limit" validate:"required,gt=0"`
	PracticeQuestionDailyLimit int64 `mapstructure:"practice_question_daily_limit" validate:"required,gt=0"`

	// FreeFeatures is the allow-list of features available without an
	// active subscription
	FreeFeatures []string `mapstructure:"free_features"`

	// CacheTTL bounds how long a stale entitlement snapshot may serve
	// as the degrade path when the store is unavailable
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// SweepSchedule is the cron expression for the in-process expiry
	// sweeper in local and sweeper modes
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

// DailyLimit returns the configured daily quota for a metered feature,
// zero for anything else.
func (c EntitlementConfig) DailyLimit(feature types.FeatureCode) int64 {
	switch feature {
	case types.FeatureAIQuestion:
		return c.AIQuestionDailyLimit
	case types.FeaturePracticeQuestion:
		return c.PracticeQuestionDailyLimit
	default:
		return 0
	}
}

// IsFreeFeature reports allow-list membership for the free tier
func (c EntitlementConfig) IsFreeFeature(feature types.FeatureCode) bool {
	for _, f := range c.FreeFeatures {
		if types.FeatureCode(f) == feature {
			return true
		}
	}
	return false
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/edumitra")

	v.SetEnvPrefix("EDUMITRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("razorpay.base_url", "https://api.razorpay.com/v1")
	v.SetDefault("razorpay.trial_amount_threshold", 10000) // Rs 100 in paise
	v.SetDefault("tutor.model", "gemini-pro")
	v.SetDefault("entitlement.trial_days", 7)
	v.SetDefault("entitlement.subscription_days", 30)
	v.SetDefault("entitlement.grace_days", 3)
	v.SetDefault("entitlement.ai_question_daily_limit", 5)
	v.SetDefault("entitlement.practice_question_daily_limit", 10)
	v.SetDefault("entitlement.cache_ttl", 5*time.Minute)
	v.SetDefault("entitlement.sweep_schedule", "0 2 * * *")
	v.SetDefault("entitlement.free_features", []string{
		string(types.FeatureSyllabus),
		string(types.FeatureNotes),
		string(types.FeatureProfile),
		string(types.FeatureAIQuestion),
		string(types.FeaturePracticeQuestion),
	})
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// TrialThreshold returns the trial amount threshold as a decimal in the
// smallest currency unit
func (c RazorpayConfig) TrialThreshold() decimal.Decimal {
	return decimal.NewFromInt(c.TrialAmountThreshold)
}

// GetDefaultConfig returns a default configuration for local development
// and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server: ServerConfig{
			Address:        ":8080",
			RequestTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{Level: types.LogLevelInfo},
		Auth: AuthConfig{
			Secret:      "test-secret-for-local-development-only",
			AdminAPIKey: "test-admin-key",
		},
		Razorpay: RazorpayConfig{
			BaseURL:              "https://api.razorpay.com/v1",
			TrialAmountThreshold: 10000,
		},
		Tutor: TutorConfig{Model: "gemini-pro"},
		Entitlement: EntitlementConfig{
			TrialDays:                  7,
			SubscriptionDays:           30,
			GraceDays:                  3,
			AIQuestionDailyLimit:       5,
			PracticeQuestionDailyLimit: 10,
			CacheTTL:                   5 * time.Minute,
			SweepSchedule:              "0 2 * * *",
			FreeFeatures: []string{
				string(types.FeatureSyllabus),
				string(types.FeatureNotes),
				string(types.FeatureProfile),
				string(types.FeatureAIQuestion),
				string(types.FeaturePracticeQuestion),
			},
		},
	}
}
