package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/db"
)

// Store persists ledger entries.
type Store interface {
	Create(ctx context.Context, e Entry) (Entry, error)
	Update(ctx context.Context, id int64, p Patch) (Entry, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Entry, error)
	ListByJob(ctx context.Context, jobID int64) ([]Entry, error)
	ListByItem(ctx context.Context, itemID int64) ([]Entry, error)
	EntriesByItem(ctx context.Context, jobIDs []int64) (map[int64][]Entry, error)
}

// SQLStore is the SQLite Store.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a SQLStore backed by database.
func NewSQLStore(database *sql.DB) *SQLStore {
	return &SQLStore{db: database}
}

const entryColumns = `
	id,
	job_id,
	job_item_id,
	cost_type,
	cost_amount,
	quantity,
	units,
	cost_per_unit,
	notes,
	created_at,
	updated_at`

const newestFirst = ` ORDER BY datetime(created_at) DESC, id DESC`

// Create inserts e after checking that its job exists and owns its item.
func (s *SQLStore) Create(ctx context.Context, e Entry) (Entry, error) {
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var jobID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM jobs WHERE id = ?`, e.JobID).Scan(&jobID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("job", e.JobID)
		}
		if err != nil {
			return fmt.Errorf("query job: %w", err)
		}

		var owner int64
		err = tx.QueryRowContext(ctx, `SELECT job_id FROM job_items WHERE id = ?`, e.JobItemID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("job item", e.JobItemID)
		}
		if err != nil {
			return fmt.Errorf("query job item: %w", err)
		}
		if owner != e.JobID {
			return &apperr.NotFoundError{Resource: "job item", ID: e.JobItemID, Detail: fmt.Sprintf("not part of job %d", e.JobID)}
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO job_cost_entries (job_id, job_item_id, cost_type, cost_amount, quantity, units, cost_per_unit, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, e.JobID, e.JobItemID, string(e.CostType), e.CostAmount, e.Quantity, e.Units, e.CostPerUnit, nullString(e.Notes))
		if err != nil {
			return fmt.Errorf("insert cost entry: %w", err)
		}
		e.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("read cost entry id: %w", err)
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return s.Get(ctx, e.ID)
}

// Update applies the fields set in p to entry id.
func (s *SQLStore) Update(ctx context.Context, id int64, p Patch) (Entry, error) {
	cols, args := p.assignments()
	if len(cols) == 0 {
		return Entry{}, apperr.Validation("fields", "no fields to update")
	}
	cols = append(cols, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE job_cost_entries SET `+strings.Join(cols, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return Entry{}, fmt.Errorf("update cost entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Entry{}, fmt.Errorf("update cost entry: %w", err)
	}
	if affected == 0 {
		return Entry{}, apperr.NotFound("cost entry", id)
	}
	return s.Get(ctx, id)
}

// Delete removes entry id.
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM job_cost_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cost entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cost entry: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("cost entry", id)
	}
	return nil
}

// Get returns entry id.
func (s *SQLStore) Get(ctx context.Context, id int64) (Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM job_cost_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, apperr.NotFound("cost entry", id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query cost entry: %w", err)
	}
	return e, nil
}

// ListByJob returns every entry of job jobID, newest first.
func (s *SQLStore) ListByJob(ctx context.Context, jobID int64) ([]Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM job_cost_entries WHERE job_id = ?`+newestFirst, jobID)
}

// ListByItem returns every entry of job item itemID, newest first.
func (s *SQLStore) ListByItem(ctx context.Context, itemID int64) ([]Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM job_cost_entries WHERE job_item_id = ?`+newestFirst, itemID)
}

// entriesBatch bounds the ids bound into one IN list, well under SQLite's
// host parameter limit.
const entriesBatch = 500

// EntriesByItem loads the entries of every listed job grouped by job item id.
// Ids are queried in batches so any number of jobs can be loaded.
func (s *SQLStore) EntriesByItem(ctx context.Context, jobIDs []int64) (map[int64][]Entry, error) {
	out := make(map[int64][]Entry)
	for start := 0; start < len(jobIDs); start += entriesBatch {
		batch := jobIDs[start:min(start+entriesBatch, len(jobIDs))]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		entries, err := s.list(ctx,
			`SELECT `+entryColumns+` FROM job_cost_entries WHERE job_id IN (`+placeholders+`)`+newestFirst, args...)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out[e.JobItemID] = append(out[e.JobItemID], e)
		}
	}
	return out, nil
}

func (s *SQLStore) list(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cost entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cost entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost entries: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var costType string
	var notes sql.NullString
	err := row.Scan(
		&e.ID, &e.JobID, &e.JobItemID, &costType, &e.CostAmount, &e.Quantity,
		&e.Units, &e.CostPerUnit, &notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	e.CostType = CostType(costType)
	e.Notes = notes.String
	return e, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
