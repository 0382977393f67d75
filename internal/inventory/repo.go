package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo persists products in the inventory table.
type Repo struct {
	db DB
}

// NewRepo constructs a Repo over the given connection pool.
func NewRepo(db DB) *Repo {
	return &Repo{db: db}
}

const listQuery = `SELECT id, name, localized_name, unit FROM inventory ORDER BY id`

// List returns every product ordered by id.
func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

const searchQuery = `SELECT id, name, localized_name, unit FROM inventory
WHERE name ILIKE '%' || $1 || '%' OR localized_name LIKE '%' || $1 || '%'
ORDER BY id
LIMIT $2`

// Search returns products whose display name contains q case-insensitively,
// or whose localized name contains q, capped at limit rows.
func (r *Repo) Search(ctx context.Context, q string, limit int) ([]Product, error) {
	rows, err := r.db.Query(ctx, searchQuery, q, limit)
	if err != nil {
		return nil, fmt.Errorf("search inventory: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

const getQuery = `SELECT id, name, localized_name, unit FROM inventory WHERE id = $1`

// Get returns the product with the given id, or pgx.ErrNoRows.
func (r *Repo) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	if err := r.db.QueryRow(ctx, getQuery, id).Scan(&p.ID, &p.Name, &p.LocalizedName, &p.Unit); err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

const createQuery = `INSERT INTO inventory (name, localized_name, unit) VALUES ($1, $2, $3)
RETURNING id`

// Create inserts a product and returns it with its assigned id.
func (r *Repo) Create(ctx context.Context, input ProductInput) (Product, error) {
	var id int64
	if err := r.db.QueryRow(ctx, createQuery, input.Name, input.LocalizedName, input.Unit).Scan(&id); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return Product{ID: id, Name: input.Name, LocalizedName: input.LocalizedName, Unit: input.Unit}, nil
}

const updateQuery = `UPDATE inventory SET name = $1, localized_name = $2, unit = $3, updated_at = now() WHERE id = $4`

// Update replaces a product's fields. It reports whether the row existed.
func (r *Repo) Update(ctx context.Context, id int64, input ProductInput) (bool, error) {
	tag, err := r.db.Exec(ctx, updateQuery, input.Name, input.LocalizedName, input.Unit, id)
	if err != nil {
		return false, fmt.Errorf("update product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const deleteQuery = `DELETE FROM inventory WHERE id = $1`

// Delete removes a product. It reports whether the row existed.
func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, deleteQuery, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.LocalizedName, &p.Unit); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
