// Package store records extracted products: one row per product in a
// SQLite sheet and the product image in a directory bucket.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/pagedrop/models"
	"github.com/use-agent/pagedrop/simhash"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

// Row is one product line of the sheet.
type Row struct {
	Name        string
	Slug        string
	Description string
	Price       float64
	Stock       int
	ImageName   string
	Rating      float64
	Fingerprint simhash.Hash
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Sheet is the product sheet.
type Sheet struct {
	db         *sql.DB
	multiplier float64
	rating     float64
	now        func() time.Time
}

// OpenSheet opens (creating if needed) the sheet at path. Scraped prices are
// multiplied by multiplier; new rows start with the given rating and no
// stock.
func OpenSheet(path string, multiplier, rating float64) (*Sheet, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sheet directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}
	// SQLite takes one writer at a time.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Sheet{db: db, multiplier: multiplier, rating: rating, now: time.Now}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(schema))
	return err
}

// Close closes the database.
func (s *Sheet) Close() error { return s.db.Close() }

// Record writes p to the sheet, keyed by slug. An existing row keeps its
// stock, rating and creation time and gets the new name, description,
// price, image and fingerprint. prev is the row as it was before, or nil
// for a new product.
func (s *Sheet) Record(ctx context.Context, p *models.Product, fp simhash.Hash) (row *Row, prev *Row, err error) {
	if p.Slug == "" {
		return nil, nil, models.NewProcessError(models.ErrCodeStore, "product has no slug", nil)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(p.Price), 64)
	if err != nil {
		return nil, nil, models.NewProcessError(models.ErrCodeStore, fmt.Sprintf("invalid price %q", p.Price), err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, models.NewProcessError(models.ErrCodeStore, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	prev, err = getRow(ctx, tx, p.Slug)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, models.NewProcessError(models.ErrCodeStore, "read product row", err)
	}
	err = nil

	now := s.now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (slug, name, description, price, stock, image_name, rating, fingerprint, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			image_name = excluded.image_name,
			fingerprint = excluded.fingerprint,
			updated_at = excluded.updated_at`,
		p.Slug, p.Name, p.Description, price*s.multiplier, p.ImageName, s.rating, fp.String(),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, nil, models.NewProcessError(models.ErrCodeStore, "write product row", err)
	}

	row, err = getRow(ctx, tx, p.Slug)
	if err != nil {
		return nil, nil, models.NewProcessError(models.ErrCodeStore, "read back product row", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, nil, models.NewProcessError(models.ErrCodeStore, "commit", err)
	}
	return row, prev, nil
}

// Get returns the row for slug, or sql.ErrNoRows.
func (s *Sheet) Get(ctx context.Context, slug string) (*Row, error) {
	return getRow(ctx, s.db, slug)
}

// List returns every row, most recently updated first.
func (s *Sheet) List(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rowColumns+` FROM products ORDER BY updated_at DESC, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

const rowColumns = `name, slug, description, price, stock, image_name, rating, fingerprint, created_at, updated_at`

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getRow(ctx context.Context, q queryer, slug string) (*Row, error) {
	return scanRow(q.QueryRowContext(ctx, `SELECT `+rowColumns+` FROM products WHERE slug = ?`, slug))
}

func scanRow(sc scanner) (*Row, error) {
	var (
		r                Row
		fp, created, upd string
	)
	if err := sc.Scan(&r.Name, &r.Slug, &r.Description, &r.Price, &r.Stock, &r.ImageName, &r.Rating, &fp, &created, &upd); err != nil {
		return nil, err
	}
	if fp != "" {
		h, err := simhash.Parse(fp)
		if err != nil {
			return nil, err
		}
		r.Fingerprint = h
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, upd)
	return &r, nil
}
