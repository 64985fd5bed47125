package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/jumaanebey/stop-foreclosure-fast/internal/config"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/convertkit"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/dispatch"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/events"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/observability/metrics"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// DispatchDeps are the pieces BuildDispatcher cannot derive from config alone.
type DispatchDeps struct {
	Repository leads.Repository
	Notifier   dispatch.Notifier
	Metrics    *metrics.LeadMetrics
	LoadAWS    AWSLoader
	Logger     *logging.Logger
}

// SequenceIDs maps the CONVERTKIT_SEQUENCE_P* settings onto tiers, skipping blanks.
func SequenceIDs(cfg *appconfig.Config) map[leads.Priority]string {
	out := map[leads.Priority]string{}
	for _, p := range []leads.Priority{leads.PriorityP1, leads.PriorityP2, leads.PriorityP3, leads.PriorityP4} {
		if id := cfg.ConvertKitSequences[string(p)]; id != "" {
			out[p] = id
		}
	}
	return out
}

// BuildDispatcher wires every configured channel. Unconfigured channels are left out.
func BuildDispatcher(ctx context.Context, cfg *appconfig.Config, deps DispatchDeps) (*dispatch.Dispatcher, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	channels := []dispatch.Channel{
		dispatch.NewPersistenceChannel(deps.Repository),
		dispatch.NewAcknowledgementChannel(deps.Notifier),
		dispatch.NewAlertChannel(deps.Notifier),
		dispatch.NewWebhookChannel(cfg.CRMWebhookURL, cfg.CRMWebhookToken, nil),
	}

	if cfg.ConvertKitAPIKey != "" {
		client := convertkit.NewClient(cfg.ConvertKitAPIKey, cfg.ConvertKitBaseURL, logger)
		channels = append(channels, dispatch.NewSequenceChannel(client, SequenceIDs(cfg)))
	}

	if cfg.LeadEventsQueueURL != "" {
		if deps.LoadAWS == nil {
			return nil, fmt.Errorf("bootstrap: events queue configured without aws loader")
		}
		awsCfg, err := deps.LoadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: aws config: %w", err)
		}
		publisher := events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.LeadEventsQueueURL)
		channels = append(channels, dispatch.NewEventsChannel(publisher))
	}

	d := dispatch.New(channels, dispatch.Options{
		Timeout: cfg.DispatchTimeout,
		Metrics: deps.Metrics,
		Logger:  logger,
	})
	logger.Info("dispatch channels configured", "channels", d.Channels())
	return d, nil
}
