package seed

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/printops/internal/catalog"
	"github.com/Simplici0/printops/internal/db"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// One starter product per reporting category, priced at zero until the shop
// enters real costs.
var starterProducts = []catalog.Product{
	{Name: "Mailer box (generic)", Variant: catalog.Packaging{
		UnitType:    catalog.UnitTypeBoxed,
		UnitsPerBox: catalog.Float(100),
		BoxCost:     catalog.Float(0),
	}},
	{Name: "Banner vinyl roll", Variant: catalog.WideFormat{
		WidthM:   catalog.Float(1.37),
		LengthM:  catalog.Float(50),
		RollCost: catalog.Float(0),
	}},
	{Name: "A5 leaflet", Variant: catalog.Leaflets{CostPerUnit: catalog.Float(0)}},
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, database *sql.DB, cfg Config) (Stats, error) {
	stats := Stats{}

	err := db.WithTx(ctx, database, func(tx *sql.Tx) error {
		return seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats)
	})
	if err != nil {
		return Stats{}, err
	}

	if err := seedProducts(ctx, catalog.NewStore(database), &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

// seedProducts creates every starter product whose name is not in the
// catalog yet.
func seedProducts(ctx context.Context, store *catalog.Store, stats *Stats) error {
	existing, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[p.Name] = true
	}

	for _, p := range starterProducts {
		if names[p.Name] {
			continue
		}
		if _, err := store.Create(ctx, p); err != nil {
			return fmt.Errorf("insert product %q: %w", p.Name, err)
		}
		stats.Inserts++
	}
	return nil
}
