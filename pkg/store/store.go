package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/TEMPERINE/wa-qr-connector/pkg/env"
)

// Store persists coarse tenant session state and pairing routing in
// Postgres. It backs startup restore, the health cron and the engine's
// tenant -> paired-JID routing.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// OpenDatabase opens the tenant datastore from WA_TENANT_DATASTORE_URI.
func OpenDatabase() (*sql.DB, error) {
	dsn := env.MustGetEnvString("WA_TENANT_DATASTORE_URI")

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(env.GetEnvIntOrDefault("WA_TENANT_DATASTORE_MAX_CONNS", 10))
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS wa_tenants (
			tenant_id  TEXT PRIMARY KEY,
			state      TEXT NOT NULL DEFAULT 'OFFLINE',
			paired_jid TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// TenantRecord is one persisted tenant row.
type TenantRecord struct {
	TenantID  string `json:"tenantId"`
	State     string `json:"state"`
	PairedJID string `json:"pairedJid,omitempty"`
}

func (s *Store) SaveTenantState(ctx context.Context, tenantID string, state string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wa_tenants (tenant_id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (tenant_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		tenantID, state)
	return err
}

func (s *Store) RemoveTenant(ctx context.Context, tenantID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM wa_tenants WHERE tenant_id = $1`, tenantID)
	return err
}

func (s *Store) ListTenants(ctx context.Context) ([]TenantRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tenant_id, state, COALESCE(paired_jid, '') FROM wa_tenants ORDER BY tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TenantRecord
	for rows.Next() {
		var rec TenantRecord
		if err := rows.Scan(&rec.TenantID, &rec.State, &rec.PairedJID); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SavePairedJID records which engine device identity a tenant paired as.
func (s *Store) SavePairedJID(ctx context.Context, tenantID string, jid string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wa_tenants (tenant_id, paired_jid, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (tenant_id)
		DO UPDATE SET paired_jid = EXCLUDED.paired_jid, updated_at = now()`,
		tenantID, jid)
	return err
}

// PairedJID returns the tenant's paired device identity, empty when
// the tenant never completed pairing.
func (s *Store) PairedJID(ctx context.Context, tenantID string) (string, error) {
	var jid sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT paired_jid FROM wa_tenants WHERE tenant_id = $1`, tenantID).Scan(&jid)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return jid.String, nil
}

func (s *Store) ClearPairedJID(ctx context.Context, tenantID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE wa_tenants SET paired_jid = NULL, updated_at = now() WHERE tenant_id = $1`, tenantID)
	return err
}
