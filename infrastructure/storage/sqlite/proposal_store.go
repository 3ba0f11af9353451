package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/YagmurCemGul/boltinsight-production-sub002/domain/proposal"
)

// ProposalStore is a SQLite-backed implementation of proposal.Store.
// The proposal document lives in proposals.data; each save also appends
// a row to proposal_audit in the same transaction.
type ProposalStore struct {
	db *sql.DB
}

// NewProposalStore opens the database and returns a store.
func NewProposalStore(cfg Config, opts ...Option) (*ProposalStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &ProposalStore{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewProposalStoreFromDB creates a store from an existing connection and
// migrates the schema.
func NewProposalStoreFromDB(db *sql.DB) (*ProposalStore, error) {
	s := &ProposalStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ProposalStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS proposals (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			author_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			data BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_proposals_status ON proposals(status);
		CREATE INDEX IF NOT EXISTS idx_proposals_author ON proposals(author_id);
		CREATE INDEX IF NOT EXISTS idx_proposals_created_at ON proposals(created_at);

		CREATE TABLE IF NOT EXISTS proposal_audit (
			id TEXT PRIMARY KEY,
			proposal_id TEXT NOT NULL REFERENCES proposals(id),
			seq INTEGER NOT NULL,
			action TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			previous_status TEXT NOT NULL,
			data BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (proposal_id, seq)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Create persists a new proposal.
func (s *ProposalStore) Create(ctx context.Context, p *proposal.Proposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO proposals (id, code, status, author_id, version, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Code, string(p.Status), p.Author.ID, p.Version, data,
		p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return proposal.ErrProposalExists
		}
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}
	return nil
}

// Load retrieves a proposal by ID.
func (s *ProposalStore) Load(ctx context.Context, id string) (*proposal.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scanProposal(s.db.QueryRowContext(ctx,
		"SELECT data, version FROM proposals WHERE id = ?", id))
}

// Save applies the patch if the stored version equals expectedVersion.
func (s *ProposalStore) Save(ctx context.Context, id string, patch proposal.Patch, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanProposal(tx.QueryRowContext(ctx,
		"SELECT data, version FROM proposals WHERE id = ?", id))
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return proposal.ErrConflict
	}

	next := current.Applied(patch)
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE proposals SET code = ?, status = ?, version = ?, data = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		next.Code, string(next.Status), next.Version, data, next.UpdatedAt.UnixNano(),
		id, expectedVersion,
	)
	if err != nil {
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return errors.Join(proposal.ErrStoreUnavailable, err)
	} else if rows == 0 {
		return proposal.ErrConflict
	}

	rec := patch.Record
	recData, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO proposal_audit (id, proposal_id, seq, action, actor_id, previous_status, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, id, len(next.ApprovalHistory), string(rec.Action), rec.By.ID,
		string(rec.PreviousStatus), recData, rec.Timestamp.UnixNano(),
	); err != nil {
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}
	return nil
}

// List returns proposals matching the filter, oldest first.
func (s *ProposalStore) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query, args := buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(proposal.ErrStoreUnavailable, err)
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
		return nil, errors.Join(proposal.ErrStoreUnavailable, err)
	}
	return results, nil
}

// Delete soft-deletes a proposal.
func (s *ProposalStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := scanProposal(tx.QueryRowContext(ctx,
		"SELECT data, version FROM proposals WHERE id = ?", id))
	if err != nil {
		return err
	}
	if err := proposal.CheckDeletable(p.Status); err != nil {
		return err
	}
	p.Status = proposal.StatusDeleted
	p.Version++
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE proposals SET status = ?, version = ?, data = ? WHERE id = ?",
		string(p.Status), p.Version, data, id,
	); err != nil {
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Join(proposal.ErrStoreUnavailable, err)
	}
	return nil
}

// AuditCount returns the number of audit rows stored for a proposal.
func (s *ProposalStore) AuditCount(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM proposal_audit WHERE proposal_id = ?", id).Scan(&n)
	if err != nil {
		return 0, errors.Join(proposal.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *ProposalStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *ProposalStore) DB() *sql.DB {
	return s.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*proposal.Proposal, error) {
	var (
		data    []byte
		version int64
	)
	if err := row.Scan(&data, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, proposal.ErrNotFound
		}
		return nil, errors.Join(proposal.ErrStoreUnavailable, err)
	}

	var p proposal.Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.Version = version
	return &p, nil
}

func buildListQuery(filter proposal.ListFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, "author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if !filter.FromTime.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.FromTime.UnixNano())
	}
	if !filter.ToTime.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, filter.ToTime.UnixNano())
	}

	query := "SELECT data, version FROM proposals"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	// SQLite only accepts OFFSET after LIMIT; -1 means no limit.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ?"
		args = append(args, limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	return query, args
}

// isUniqueViolation reports whether err is a primary key or unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var (
	_ proposal.Store   = (*ProposalStore)(nil)
	_ proposal.Deleter = (*ProposalStore)(nil)
)
