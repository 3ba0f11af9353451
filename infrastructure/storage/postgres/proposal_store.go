package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// uniqueViolation is the SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// ProposalStore is a PostgreSQL-backed implementation of proposal.Store.
type ProposalStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewProposalStore creates a store on pool. An empty schema means public.
func NewProposalStore(pool *pgxpool.Pool, schema string) (*ProposalStore, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if schema == "" {
		schema = "public"
	}
	return &ProposalStore{pool: pool, schema: schema}, nil
}

func (s *ProposalStore) table() string {
	return pgx.Identifier{s.schema, "proposals"}.Sanitize()
}

func (s *ProposalStore) auditTable() string {
	return pgx.Identifier{s.schema, "proposal_audit"}.Sanitize()
}

// Migrate creates the schema and tables if they don't exist.
func (s *ProposalStore) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE SCHEMA IF NOT EXISTS %[1]s;
		CREATE TABLE IF NOT EXISTS %[2]s (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			author_id TEXT NOT NULL,
			version BIGINT NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS proposals_status_idx ON %[2]s (status);
		CREATE INDEX IF NOT EXISTS proposals_author_idx ON %[2]s (author_id);
		CREATE TABLE IF NOT EXISTS %[3]s (
			id TEXT PRIMARY KEY,
			proposal_id TEXT NOT NULL REFERENCES %[2]s (id),
			seq INT NOT NULL,
			action TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			previous_status TEXT NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (proposal_id, seq)
		);
	`, pgx.Identifier{s.schema}.Sanitize(), s.table(), s.auditTable())

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return wrapError(err)
	}
	return nil
}

// Create persists a new proposal.
func (s *ProposalStore) Create(ctx context.Context, p *proposal.Proposal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, code, status, author_id, version, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.table())

	_, err = s.pool.Exec(ctx, query,
		p.ID, p.Code, string(p.Status), p.Author.ID, p.Version, data, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return proposal.ErrProposalExists
		}
		return wrapError(err)
	}
	return nil
}

// Load retrieves a proposal by ID.
func (s *ProposalStore) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	query := fmt.Sprintf(`SELECT data, version FROM %s WHERE id = $1`, s.table())
	return scanProposal(s.pool.QueryRow(ctx, query, id))
}

// Save applies the patch in one transaction. The row is locked with
// FOR UPDATE and the update is guarded by the expected version.
func (s *ProposalStore) Save(ctx context.Context, id string, patch proposal.Patch, expectedVersion int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapError(err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	current, err := scanProposal(tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT data, version FROM %s WHERE id = $1 FOR UPDATE`, s.table()), id))
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return proposal.ErrConflict
	}

	next := current.Applied(patch)
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}

	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET code = $1, status = $2, version = $3, data = $4, updated_at = $5
		WHERE id = $6 AND version = $7
	`, s.table()), next.Code, string(next.Status), next.Version, data, next.UpdatedAt, id, expectedVersion)
	if err != nil {
		return wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return proposal.ErrConflict
	}

	rec := patch.Record
	recData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, proposal_id, seq, action, actor_id, previous_status, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.auditTable()), rec.ID, id, len(next.ApprovalHistory), string(rec.Action), rec.By.ID,
		string(rec.PreviousStatus), recData, rec.Timestamp); err != nil {
		return wrapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapError(err)
	}
	return nil
}

// List returns proposals matching the filter, oldest first.
func (s *ProposalStore) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	query, args := buildListQuery(s.table(), filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	results := []*proposal.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err)
	}
	return results, nil
}

// Delete soft-deletes a non-terminal proposal.
func (s *ProposalStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET status = $1, version = version + 1,
			data = jsonb_set(jsonb_set(data, '{status}', to_jsonb($1::text)), '{version}', to_jsonb(version + 1))
		WHERE id = $2 AND status <> ALL($3)
	`, s.table()), string(proposal.StatusDeleted), id, terminalStatuses)
	if err != nil {
		return wrapError(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status string
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, s.table()), id).Scan(&status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return proposal.ErrNotFound
	case err != nil:
		return wrapError(err)
	}
	if err := proposal.CheckDeletable(proposal.Status(status)); err != nil {
		return err
	}
	// The row left a terminal status between the two statements.
	return proposal.ErrConflict
}

var terminalStatuses = []string{string(proposal.StatusClientApproved), string(proposal.StatusDeleted)}

// Close closes the pool.
func (s *ProposalStore) Close() {
	s.pool.Close()
}

func scanProposal(row pgx.Row) (*proposal.Proposal, error) {
	var (
		data    []byte
		version int64
	)
	if err := row.Scan(&data, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, proposal.ErrNotFound
		}
		return nil, wrapError(err)
	}

	var p proposal.Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal proposal: %w", err)
	}
	p.Version = version
	return &p, nil
}

func buildListQuery(table string, filter proposal.ListFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, st := range filter.Status {
			statuses[i] = string(st)
		}
		conditions = append(conditions, "status = ANY("+next(statuses)+")")
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, "author_id = "+next(filter.AuthorID))
	}
	if !filter.FromTime.IsZero() {
		conditions = append(conditions, "created_at >= "+next(filter.FromTime))
	}
	if !filter.ToTime.IsZero() {
		conditions = append(conditions, "created_at <= "+next(filter.ToTime))
	}

	query := "SELECT data, version FROM " + table
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"
	if filter.Limit > 0 {
		query += " LIMIT " + next(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + next(filter.Offset)
	}
	return query, args
}

func wrapError(err error) error {
	return errors.Join(proposal.ErrStoreUnavailable, err)
}

var (
	_ proposal.Store   = (*ProposalStore)(nil)
	_ proposal.Deleter = (*ProposalStore)(nil)
)
