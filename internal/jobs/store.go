package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/catalog"
	"github.com/Simplici0/printops/internal/db"
)

// Store persists jobs and their items in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by database.
func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const itemColumns = `
	id,
	job_id,
	product_id,
	product_name,
	product_category,
	quantity,
	width_m,
	height_m,
	is_printed,
	unit_price,
	total_price,
	work_completed,
	ink_cost_per_unit,
	ink_consumption`

// Create inserts the job and all of its items in one transaction.
func (s *Store) Create(ctx context.Context, job Job) (Job, error) {
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO jobs (job_number, customer_name, status, notes)
			VALUES (?, ?, ?, ?)
		`, job.JobNumber, job.CustomerName, string(job.Status), nullString(job.Notes))
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		if job.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("read job id: %w", err)
		}

		for i := range job.Items {
			job.Items[i].JobID = job.ID
			if job.Items[i].ID, err = insertItem(ctx, tx, i, job.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Job{}, err
	}
	return s.Get(ctx, job.ID)
}

// Update replaces the job header and synchronizes its items: items with an
// id are updated in place, items without one are inserted, and stored items
// missing from job are deleted together with their cost entries.
func (s *Store) Update(ctx context.Context, job Job) (Job, error) {
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE jobs
			SET
				job_number = ?,
				customer_name = ?,
				status = ?,
				notes = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, job.JobNumber, job.CustomerName, string(job.Status), nullString(job.Notes), job.ID)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if affected == 0 {
			return apperr.NotFound("job", job.ID)
		}

		existing, err := loadItems(ctx, tx, &job.ID)
		if err != nil {
			return err
		}
		stale := make(map[int64]bool, len(existing[job.ID]))
		for _, it := range existing[job.ID] {
			stale[it.ID] = true
		}

		for i, it := range job.Items {
			it.JobID = job.ID
			if it.ID == 0 {
				if _, err := insertItem(ctx, tx, i, it); err != nil {
					return err
				}
				continue
			}
			if !stale[it.ID] {
				return &apperr.NotFoundError{Resource: "job item", ID: it.ID, Detail: fmt.Sprintf("not part of job %d", job.ID)}
			}
			delete(stale, it.ID)
			if err := updateItem(ctx, tx, i, it); err != nil {
				return err
			}
		}

		for id := range stale {
			if _, err := tx.ExecContext(ctx, `DELETE FROM job_items WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete job item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Job{}, err
	}
	return s.Get(ctx, job.ID)
}

// SetStatus moves job id to status.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, string(status), id)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("job", id)
	}
	return nil
}

// SetWorkCompleted records the completed quantity of one item. The value
// may not exceed the item quantity.
func (s *Store) SetWorkCompleted(ctx context.Context, jobID, itemID int64, done float64) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var quantity float64
		err := tx.QueryRowContext(ctx, `SELECT quantity FROM job_items WHERE id = ? AND job_id = ?`, itemID, jobID).Scan(&quantity)
		if errors.Is(err, sql.ErrNoRows) {
			return &apperr.NotFoundError{Resource: "job item", ID: itemID, Detail: fmt.Sprintf("not part of job %d", jobID)}
		}
		if err != nil {
			return fmt.Errorf("query job item: %w", err)
		}
		if done < 0 || done > quantity {
			return apperr.Validation("work_completed", fmt.Sprintf("must be between 0 and %v", quantity))
		}

		if _, err := tx.ExecContext(ctx, `UPDATE job_items SET work_completed = ? WHERE id = ?`, done, itemID); err != nil {
			return fmt.Errorf("update work completed: %w", err)
		}
		return nil
	})
}

// Get returns job id with its items in position order.
func (s *Store) Get(ctx context.Context, id int64) (Job, error) {
	var job Job
	var notes sql.NullString
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, job_number, customer_name, status, notes, created_at
		FROM jobs
		WHERE id = ?
	`, id).Scan(&job.ID, &job.JobNumber, &job.CustomerName, &status, &notes, &job.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, apperr.NotFound("job", id)
	}
	if err != nil {
		return Job{}, fmt.Errorf("query job: %w", err)
	}
	job.Status = Status(status)
	job.Notes = notes.String

	items, err := loadItems(ctx, s.db, &id)
	if err != nil {
		return Job{}, err
	}
	job.Items = items[id]
	return job, nil
}

// List returns every job, newest first, with items loaded.
func (s *Store) List(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_number, customer_name, status, notes, created_at
		FROM jobs
		ORDER BY datetime(created_at) DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		var job Job
		var notes sql.NullString
		var status string
		if err := rows.Scan(&job.ID, &job.JobNumber, &job.CustomerName, &status, &notes, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job.Status = Status(status)
		job.Notes = notes.String
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	rows.Close()

	items, err := loadItems(ctx, s.db, nil)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].Items = items[jobs[i].ID]
	}
	return jobs, nil
}

func insertItem(ctx context.Context, q queryer, position int, it Item) (int64, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO job_items (
			job_id, position, product_id, product_name, product_category, quantity, width_m, height_m,
			is_printed, unit_price, total_price, work_completed, ink_cost_per_unit, ink_consumption
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		it.JobID, position, nullInt(it.ProductID), it.ProductName, string(it.Category), it.Quantity,
		nullFloat(it.WidthM), nullFloat(it.HeightM), it.IsPrinted, it.UnitPrice, it.TotalPrice,
		it.WorkCompleted, nullFloat(it.InkCostPerUnit), nullFloat(it.InkConsumption),
	)
	if err != nil {
		return 0, fmt.Errorf("insert job item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read job item id: %w", err)
	}
	return id, nil
}

func updateItem(ctx context.Context, q queryer, position int, it Item) error {
	_, err := q.ExecContext(ctx, `
		UPDATE job_items
		SET
			position = ?,
			product_id = ?,
			product_name = ?,
			product_category = ?,
			quantity = ?,
			width_m = ?,
			height_m = ?,
			is_printed = ?,
			unit_price = ?,
			total_price = ?,
			work_completed = ?,
			ink_cost_per_unit = ?,
			ink_consumption = ?
		WHERE id = ? AND job_id = ?
	`,
		position, nullInt(it.ProductID), it.ProductName, string(it.Category), it.Quantity,
		nullFloat(it.WidthM), nullFloat(it.HeightM), it.IsPrinted, it.UnitPrice, it.TotalPrice,
		it.WorkCompleted, nullFloat(it.InkCostPerUnit), nullFloat(it.InkConsumption),
		it.ID, it.JobID,
	)
	if err != nil {
		return fmt.Errorf("update job item: %w", err)
	}
	return nil
}

func loadItems(ctx context.Context, q queryer, jobID *int64) (map[int64][]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM job_items`
	var args []any
	if jobID != nil {
		query += ` WHERE job_id = ?`
		args = append(args, *jobID)
	}
	query += ` ORDER BY job_id, position, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query job items: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]Item)
	for rows.Next() {
		var (
			it                                  Item
			category                            string
			productID                           sql.NullInt64
			widthM, heightM                     sql.NullFloat64
			inkCostPerUnit, inkConsumptionValue sql.NullFloat64
		)
		if err := rows.Scan(
			&it.ID, &it.JobID, &productID, &it.ProductName, &category, &it.Quantity,
			&widthM, &heightM, &it.IsPrinted, &it.UnitPrice, &it.TotalPrice, &it.WorkCompleted,
			&inkCostPerUnit, &inkConsumptionValue,
		); err != nil {
			return nil, fmt.Errorf("scan job item: %w", err)
		}
		it.Category = catalog.Category(category)
		if productID.Valid {
			id := productID.Int64
			it.ProductID = &id
		}
		it.WidthM = floatPtr(widthM)
		it.HeightM = floatPtr(heightM)
		it.InkCostPerUnit = floatPtr(inkCostPerUnit)
		it.InkConsumption = floatPtr(inkConsumptionValue)
		out[it.JobID] = append(out[it.JobID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job items: %w", err)
	}
	return out, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
