package leads

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jumaanebey/stop-foreclosure-fast/migrations"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db execer

	mu          sync.Mutex
	schemaReady bool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithExec(db execer) *PostgresRepository {
	if db == nil {
		panic("leads: exec required")
	}
	return &PostgresRepository{db: db}
}

const insertLeadSQL = `
	INSERT INTO leads (
		id, received_at, form_type, name, email, phone, property_address, situation,
		urgency_level, timeline, foreclosure_status, property_type, desired_price,
		best_time_to_call, source, source_ip, score, priority
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (id) DO NOTHING
`

// Append inserts the lead, creating the table first if this process has not yet done so.
func (r *PostgresRepository) Append(ctx context.Context, lead ScoredLead) error {
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}
	s := lead.Submission
	_, err := r.db.Exec(ctx, insertLeadSQL,
		lead.ID,
		s.ReceivedAt,
		string(s.FormType),
		s.Name,
		s.Email,
		s.Phone,
		s.PropertyAddress,
		s.Situation,
		string(s.UrgencyLevel),
		s.Timeline,
		s.ForeclosureStatus,
		s.PropertyType,
		s.DesiredPrice,
		s.BestTimeToCall,
		s.Source,
		s.SourceIP,
		lead.Score,
		string(lead.Priority),
	)
	if err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ensureSchema(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schemaReady {
		return nil
	}
	ddl, err := migrations.FS.ReadFile(migrations.LeadsTable)
	if err != nil {
		return fmt.Errorf("leads: read schema: %w", err)
	}
	if _, err := r.db.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("leads: create schema: %w", err)
	}
	r.schemaReady = true
	return nil
}
