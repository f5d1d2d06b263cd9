package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/db"
)

// Store persists products and their components in SQLite.
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

const productColumns = `
	id,
	name,
	COALESCE(sku, ''),
	COALESCE(description, ''),
	category,
	COALESCE(unit_type, ''),
	units_per_box,
	box_cost,
	unit_cost,
	width_m,
	length_m,
	roll_cost,
	cost_per_sqm,
	cost_per_unit`

// List returns every product ordered by id, with components loaded.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	return listProducts(ctx, s.db)
}

// Index loads every product into an Index.
func (s *Store) Index(ctx context.Context) (Index, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(products), nil
}

// Get returns a single product.
func (s *Store) Get(ctx context.Context, id int64) (Product, error) {
	return getProduct(ctx, s.db, id)
}

// UnitCost resolves the current unit cost of product id.
func (s *Store) UnitCost(ctx context.Context, id int64) (float64, error) {
	idx, err := s.Index(ctx)
	if err != nil {
		return 0, err
	}
	p, ok := idx[id]
	if !ok {
		return 0, apperr.NotFound("product", id)
	}
	return ResolveUnitCost(p, idx)
}

// Create inserts p and its components in one transaction. A finished product
// whose components cannot be resolved is rolled back.
func (s *Store) Create(ctx context.Context, p Product) (Product, error) {
	p.Variant = withDerivedCost(p.Variant)

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		values := variantValues(p.Variant)
		result, err := tx.ExecContext(ctx, `
			INSERT INTO products (
				name, sku, description, category, unit_type, units_per_box, box_cost, unit_cost,
				width_m, length_m, roll_cost, cost_per_sqm, cost_per_unit
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, append([]any{p.Name, nullString(p.SKU), nullString(p.Description), string(p.Category())}, values...)...)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		if p.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("read product id: %w", err)
		}

		if err := replaceComponents(ctx, tx, p); err != nil {
			return err
		}
		return checkResolvable(ctx, tx, p.ID)
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update replaces every field of product id with p.
func (s *Store) Update(ctx context.Context, id int64, p Product) (Product, error) {
	p.ID = id
	p.Variant = withDerivedCost(p.Variant)

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		values := variantValues(p.Variant)
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET
				name = ?,
				sku = ?,
				description = ?,
				category = ?,
				unit_type = ?,
				units_per_box = ?,
				box_cost = ?,
				unit_cost = ?,
				width_m = ?,
				length_m = ?,
				roll_cost = ?,
				cost_per_sqm = ?,
				cost_per_unit = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, append(append([]any{p.Name, nullString(p.SKU), nullString(p.Description), string(p.Category())}, values...), id)...)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if affected == 0 {
			return apperr.NotFound("product", id)
		}

		if err := replaceComponents(ctx, tx, p); err != nil {
			return err
		}
		return checkResolvable(ctx, tx, id)
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Delete removes product id unless a finished product or a job item still
// references it.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var referenced bool
		if err := tx.QueryRowContext(ctx, `
			SELECT
				EXISTS(SELECT 1 FROM product_components WHERE component_product_id = ?)
				OR EXISTS(SELECT 1 FROM job_items WHERE product_id = ?)
		`, id, id).Scan(&referenced); err != nil {
			return fmt.Errorf("check product references: %w", err)
		}
		if referenced {
			return apperr.Validation("id", "product is still referenced")
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if affected == 0 {
			return apperr.NotFound("product", id)
		}
		return nil
	})
}

func checkResolvable(ctx context.Context, q queryer, id int64) error {
	products, err := listProducts(ctx, q)
	if err != nil {
		return err
	}
	idx := NewIndex(products)
	if _, err := ResolveUnitCost(idx[id], idx); err != nil {
		return err
	}
	return nil
}

func replaceComponents(ctx context.Context, q queryer, p Product) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM product_components WHERE product_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clear product components: %w", err)
	}

	fp, ok := p.Variant.(FinishedProduct)
	if !ok {
		return nil
	}
	for _, c := range fp.Components {
		var exists bool
		if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, c.ProductID).Scan(&exists); err != nil {
			return fmt.Errorf("check component existence: %w", err)
		}
		if !exists {
			return &apperr.NotFoundError{Resource: "product", ID: c.ProductID, Detail: "component"}
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO product_components (product_id, component_product_id, quantity)
			VALUES (?, ?, ?)
		`, p.ID, c.ProductID, c.Quantity); err != nil {
			return fmt.Errorf("insert product component: %w", err)
		}
	}
	return nil
}

func getProduct(ctx context.Context, q queryer, id int64) (Product, error) {
	p, err := scanProduct(q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, apperr.NotFound("product", id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("query product: %w", err)
	}

	if fp, ok := p.Variant.(FinishedProduct); ok {
		components, err := loadComponents(ctx, q, &id)
		if err != nil {
			return Product{}, err
		}
		fp.Components = components[id]
		p.Variant = fp
	}
	return p, nil
}

func listProducts(ctx context.Context, q queryer) ([]Product, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	// rows must be closed before the next query on a single-connection pool.
	rows.Close()

	components, err := loadComponents(ctx, q, nil)
	if err != nil {
		return nil, err
	}
	for i, p := range products {
		if fp, ok := p.Variant.(FinishedProduct); ok {
			fp.Components = components[p.ID]
			products[i].Variant = fp
		}
	}
	return products, nil
}

func loadComponents(ctx context.Context, q queryer, productID *int64) (map[int64][]Component, error) {
	query := `SELECT product_id, component_product_id, quantity FROM product_components`
	var args []any
	if productID != nil {
		query += ` WHERE product_id = ?`
		args = append(args, *productID)
	}
	query += ` ORDER BY product_id, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query product components: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]Component)
	for rows.Next() {
		var owner int64
		var c Component
		if err := rows.Scan(&owner, &c.ProductID, &c.Quantity); err != nil {
			return nil, fmt.Errorf("scan product component: %w", err)
		}
		out[owner] = append(out[owner], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product components: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (Product, error) {
	var (
		p                                     Product
		category, unitType                    string
		unitsPerBox, boxCost, unitCost        sql.NullFloat64
		widthM, lengthM, rollCost, costPerSqm sql.NullFloat64
		costPerUnit                           sql.NullFloat64
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.Description, &category, &unitType,
		&unitsPerBox, &boxCost, &unitCost,
		&widthM, &lengthM, &rollCost, &costPerSqm, &costPerUnit,
	); err != nil {
		return Product{}, err
	}

	switch Category(category) {
	case CategoryPackaging:
		p.Variant = Packaging{
			UnitType:    UnitType(unitType),
			UnitsPerBox: floatPtr(unitsPerBox),
			BoxCost:     floatPtr(boxCost),
			UnitCost:    floatPtr(unitCost),
		}
	case CategoryWideFormat:
		p.Variant = WideFormat{
			WidthM:     floatPtr(widthM),
			LengthM:    floatPtr(lengthM),
			RollCost:   floatPtr(rollCost),
			CostPerSqm: floatPtr(costPerSqm),
		}
	case CategoryLeaflets:
		p.Variant = Leaflets{CostPerUnit: floatPtr(costPerUnit)}
	case CategoryFinishedProduct:
		p.Variant = FinishedProduct{}
	default:
		return Product{}, fmt.Errorf("product %d has unknown category %q", p.ID, category)
	}
	return p, nil
}

// variantValues returns the category-specific columns in insert order:
// unit_type, units_per_box, box_cost, unit_cost, width_m, length_m,
// roll_cost, cost_per_sqm, cost_per_unit.
func variantValues(v Variant) []any {
	values := make([]any, 9)
	switch v := v.(type) {
	case Packaging:
		values[0] = nullString(string(v.UnitType))
		values[1], values[2], values[3] = nullFloat(v.UnitsPerBox), nullFloat(v.BoxCost), nullFloat(v.UnitCost)
	case WideFormat:
		values[4], values[5] = nullFloat(v.WidthM), nullFloat(v.LengthM)
		values[6], values[7] = nullFloat(v.RollCost), nullFloat(v.CostPerSqm)
	case Leaflets:
		values[8] = nullFloat(v.CostPerUnit)
	case FinishedProduct:
	}
	return values
}

// withDerivedCost recomputes the cost per square metre of a wide-format
// product from its roll inputs. A caller supplied value is kept only when the
// roll inputs are incomplete or describe no area.
func withDerivedCost(v Variant) Variant {
	wf, ok := v.(WideFormat)
	if !ok || wf.RollCost == nil || wf.WidthM == nil || wf.LengthM == nil {
		return v
	}
	if area := *wf.WidthM * *wf.LengthM; area <= 0 {
		return v
	}
	derived := wf.DeriveCostPerSqm()
	wf.CostPerSqm = &derived
	return wf
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

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
