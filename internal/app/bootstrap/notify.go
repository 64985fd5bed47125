package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/jumaanebey/stop-foreclosure-fast/internal/config"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/notify"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// BuildEmailSender returns the sender for EMAIL_PROVIDER.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (notify.EmailSender, error) {
	switch cfg.EmailProvider {
	case appconfig.EmailSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: sendgrid api key missing")
		}
		return sender, nil
	case appconfig.EmailSES:
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: aws config: %w", err)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail:        cfg.EmailFrom,
			FromName:         cfg.EmailFromName,
			ReplyTo:          cfg.EmailReplyTo,
			ConfigurationSet: cfg.SESConfigurationSet,
		}, logger), nil
	default:
		return notify.NewStubEmailSender(logger), nil
	}
}

// BuildSMSSender returns a Twilio sender, or nil when Twilio is not configured.
func BuildSMSSender(cfg *appconfig.Config, logger *logging.Logger) notify.SMSSender {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		return nil
	}
	return notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
}

// BuildNotifier combines the senders with the staff recipient lists.
func BuildNotifier(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (*notify.Service, error) {
	email, err := BuildEmailSender(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, err
	}
	return notify.NewService(email, BuildSMSSender(cfg, logger), notify.Config{
		AlertEmails:       cfg.AlertEmails,
		AlertPhones:       cfg.AlertPhones,
		HumanContactPhone: cfg.HumanContactPhone,
	}, logger), nil
}
