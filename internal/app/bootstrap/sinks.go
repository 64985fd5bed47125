package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/jumaanebey/stop-foreclosure-fast/internal/config"
	"github.com/jumaanebey/stop-foreclosure-fast/internal/leads"
	"github.com/jumaanebey/stop-foreclosure-fast/pkg/logging"
)

// BuildRepository opens the sink selected by LEAD_SINK. The returned close
// function releases any pool it opened and is never nil.
func BuildRepository(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (leads.Repository, func(), error) {
	noop := func() {}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.LeadSink {
	case appconfig.SinkSheets:
		svc, err := leads.NewSheetsService(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: sheets: %w", err)
		}
		logger.Info("lead sink: google sheets", "sheet", cfg.GoogleSheetRange)
		return leads.NewSheetsRepository(svc, cfg.GoogleSheetID, cfg.GoogleSheetRange), noop, nil

	case appconfig.SinkPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: postgres: %w", err)
		}
		logger.Info("lead sink: postgres")
		return leads.NewPostgresRepository(pool), pool.Close, nil

	case appconfig.SinkDynamoDB:
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: aws config: %w", err)
		}
		logger.Info("lead sink: dynamodb", "table", cfg.LeadsDynamoTable)
		return leads.NewDynamoRepository(dynamodb.NewFromConfig(awsCfg), cfg.LeadsDynamoTable), noop, nil

	case appconfig.SinkS3:
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			// LocalStack serves buckets by path.
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		logger.Info("lead sink: s3", "bucket", cfg.LeadsS3Bucket, "prefix", cfg.LeadsS3Prefix)
		return leads.NewS3Repository(client, cfg.LeadsS3Bucket, cfg.LeadsS3Prefix), noop, nil

	case appconfig.SinkMemory, "":
		logger.Warn("lead sink: memory; leads are lost on restart")
		return leads.NewInMemoryRepository(), noop, nil

	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown lead sink %q", cfg.LeadSink)
	}
}
