package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/db"
)

const issuedAtLayout = "2006-01-02 15:04:05"

// Store persists invoices in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore returns a Store backed by database.
func NewStore(database *sql.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Create numbers inv and inserts it with its items. The number is read and
// the rows are written in one transaction; a concurrent duplicate number is
// rejected by the unique index on invoice_number.
func (s *Store) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	issued := s.now().UTC()

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := numbersWithPrefix(ctx, tx, DayPrefix(issued))
		if err != nil {
			return err
		}
		inv.InvoiceNumber = NextInvoiceNumber(issued, existing)

		result, err := tx.ExecContext(ctx, `
			INSERT INTO invoices (invoice_number, job_id, customer_name, status, vat_rate, subtotal, vat_amount, total_amount, issued_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			inv.InvoiceNumber, nullInt(inv.JobID), inv.CustomerName, string(inv.Status), string(inv.VATRate),
			inv.Subtotal, inv.VATAmount, inv.TotalAmount, issued.Format(issuedAtLayout),
		)
		if err != nil {
			return fmt.Errorf("insert invoice %s: %w", inv.InvoiceNumber, err)
		}
		if inv.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("read invoice id: %w", err)
		}

		for i, it := range inv.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price, total_price)
				VALUES (?, ?, ?, ?, ?, ?)
			`, inv.ID, i, it.Description, it.Quantity, it.UnitPrice, it.TotalPrice); err != nil {
				return fmt.Errorf("insert invoice item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return s.Get(ctx, inv.ID)
}

// Get returns invoice id with its items.
func (s *Store) Get(ctx context.Context, id int64) (Invoice, error) {
	var (
		inv     Invoice
		jobID   sql.NullInt64
		status  string
		vatRate string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, invoice_number, job_id, customer_name, status, vat_rate, subtotal, vat_amount, total_amount, issued_at
		FROM invoices
		WHERE id = ?
	`, id).Scan(
		&inv.ID, &inv.InvoiceNumber, &jobID, &inv.CustomerName, &status, &vatRate,
		&inv.Subtotal, &inv.VATAmount, &inv.TotalAmount, &inv.IssuedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Invoice{}, apperr.NotFound("invoice", id)
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("query invoice: %w", err)
	}
	inv.Status = Status(status)
	inv.VATRate = VATRate(vatRate)
	if jobID.Valid {
		v := jobID.Int64
		inv.JobID = &v
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, quantity, unit_price, total_price
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY position, id
	`, id)
	if err != nil {
		return Invoice{}, fmt.Errorf("query invoice items: %w", err)
	}
	defer rows.Close()

	inv.Items = make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return Invoice{}, fmt.Errorf("scan invoice item: %w", err)
		}
		inv.Items = append(inv.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Invoice{}, fmt.Errorf("iterate invoice items: %w", err)
	}
	return inv, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func numbersWithPrefix(ctx context.Context, q querier, prefix string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT invoice_number FROM invoices WHERE invoice_number LIKE ?`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("query invoice numbers: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan invoice number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice numbers: %w", err)
	}
	return numbers, nil
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
