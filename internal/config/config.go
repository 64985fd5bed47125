package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Lead sinks.
const (
	SinkMemory   = "memory"
	SinkSheets   = "sheets"
	SinkPostgres = "postgres"
	SinkDynamoDB = "dynamodb"
	SinkS3       = "s3"
)

// Rate limit backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// Email providers.
const (
	EmailSendGrid = "sendgrid"
	EmailSES      = "ses"
	EmailStub     = "stub"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	AdminJWTSecret     string
	HumanContactPhone  string
	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP replace the socket
	// address. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders  bool

	RateLimitWindow        time.Duration
	RateLimitMax           int
	RateLimitSweepInterval time.Duration
	RateLimitBackend       string
	RedisAddr              string
	RedisPassword          string
	RedisTLS               bool

	LeadSink              string
	GoogleSheetID         string
	GoogleSheetRange      string
	GoogleCredentialsFile string
	DatabaseURL           string
	LeadsDynamoTable      string
	LeadsS3Bucket         string
	LeadsS3Prefix         string
	LeadEventsQueueURL    string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	ConvertKitAPIKey    string
	ConvertKitBaseURL   string
	ConvertKitSequences map[string]string

	EmailProvider       string
	SendGridAPIKey      string
	EmailFrom           string
	EmailFromName       string
	EmailReplyTo        string
	SESConfigurationSet string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	AlertEmails      []string
	AlertPhones      []string

	CRMWebhookURL   string
	CRMWebhookToken string

	DispatchTimeout time.Duration

	// Zero values keep the built-in scoring defaults.
	ScoreMax         int
	ScoreP1Threshold int
	ScoreP2Threshold int
	ScoreP3Threshold int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),
		HumanContactPhone:  getEnv("HUMAN_CONTACT_PHONE", "(949) 565-5285"),

		RateLimitWindow:        getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:           getEnvAsInt("RATE_LIMIT_MAX", 5),
		RateLimitSweepInterval: getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		RateLimitBackend:       strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_BACKEND", RateLimitMemory))),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisTLS:               getEnvAsBool("REDIS_TLS", false),

		LeadSink:              strings.ToLower(strings.TrimSpace(getEnv("LEAD_SINK", SinkMemory))),
		GoogleSheetID:         getEnv("GOOGLE_SHEET_ID", ""),
		GoogleSheetRange:      getEnv("GOOGLE_SHEET_RANGE", "Leads"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		LeadsDynamoTable:      getEnv("LEADS_DYNAMO_TABLE", "foreclosure_leads"),
		LeadsS3Bucket:         getEnv("LEADS_S3_BUCKET", ""),
		LeadsS3Prefix:         getEnv("LEADS_S3_PREFIX", "leads"),
		LeadEventsQueueURL:    getEnv("LEAD_EVENTS_QUEUE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ConvertKitAPIKey:  getEnv("CONVERTKIT_API_KEY", ""),
		ConvertKitBaseURL: getEnv("CONVERTKIT_BASE_URL", "https://api.convertkit.com"),
		ConvertKitSequences: map[string]string{
			"P1": getEnv("CONVERTKIT_SEQUENCE_P1", ""),
			"P2": getEnv("CONVERTKIT_SEQUENCE_P2", ""),
			"P3": getEnv("CONVERTKIT_SEQUENCE_P3", ""),
			"P4": getEnv("CONVERTKIT_SEQUENCE_P4", ""),
		},

		EmailProvider:       strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", EmailStub))),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:           getEnv("EMAIL_FROM", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Stop Foreclosure Fast"),
		EmailReplyTo:        getEnv("EMAIL_REPLY_TO", ""),
		SESConfigurationSet: getEnv("SES_CONFIGURATION_SET", ""),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		AlertEmails:      getEnvAsList("ALERT_EMAILS"),
		AlertPhones:      getEnvAsList("ALERT_PHONES"),

		CRMWebhookURL:   getEnv("CRM_WEBHOOK_URL", ""),
		CRMWebhookToken: getEnv("CRM_WEBHOOK_TOKEN", ""),

		DispatchTimeout: getEnvAsDuration("DISPATCH_TIMEOUT", 8*time.Second),

		ScoreMax:         getEnvAsInt("SCORE_MAX", 0),
		ScoreP1Threshold: getEnvAsInt("SCORE_P1_THRESHOLD", 0),
		ScoreP2Threshold: getEnvAsInt("SCORE_P2_THRESHOLD", 0),
		ScoreP3Threshold: getEnvAsInt("SCORE_P3_THRESHOLD", 0),
	}
}

// Validate reports settings that cannot start the service.
func (c *Config) Validate() error {
	switch c.LeadSink {
	case SinkMemory:
	case SinkSheets:
		if c.GoogleSheetID == "" {
			return fmt.Errorf("config: LEAD_SINK=sheets requires GOOGLE_SHEET_ID")
		}
	case SinkPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: LEAD_SINK=postgres requires DATABASE_URL")
		}
	case SinkDynamoDB:
		if c.LeadsDynamoTable == "" {
			return fmt.Errorf("config: LEAD_SINK=dynamodb requires LEADS_DYNAMO_TABLE")
		}
	case SinkS3:
		if c.LeadsS3Bucket == "" {
			return fmt.Errorf("config: LEAD_SINK=s3 requires LEADS_S3_BUCKET")
		}
	default:
		return fmt.Errorf("config: unknown LEAD_SINK %q", c.LeadSink)
	}

	switch c.RateLimitBackend {
	case RateLimitMemory, RateLimitRedis:
	default:
		return fmt.Errorf("config: unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}
	if c.RateLimitWindow <= 0 || c.RateLimitMax <= 0 {
		return fmt.Errorf("config: rate limit window and max must be positive")
	}

	switch c.EmailProvider {
	case EmailStub, EmailSES:
	case EmailSendGrid:
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("config: EMAIL_PROVIDER=sendgrid requires SENDGRID_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
