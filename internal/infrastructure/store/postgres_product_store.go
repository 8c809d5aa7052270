package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/example/pos-backend/internal/domain/product"
)

// PostgresProductStore persists products in PostgreSQL.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

const productColumns = `id, tenant_id, name, description, price, stock_quantity,
	 alert_threshold, sku, barcode, category, active, created_at, updated_at`

func (ps *PostgresProductStore) Create(ctx context.Context, p *product.Product) error {
	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.TenantID, p.Name, p.Description, p.Price, p.StockQuantity,
		p.AlertThreshold, nullString(p.SKU), nullString(p.Barcode), p.Category,
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return product.ErrDuplicateSKU
	}
	return err
}

func (ps *PostgresProductStore) Update(ctx context.Context, p *product.Product) error {
	res, err := ps.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $1, description = $2, price = $3, alert_threshold = $4,
		     sku = $5, barcode = $6, category = $7, active = $8, updated_at = $9
		 WHERE tenant_id = $10 AND id = $11`,
		p.Name, p.Description, p.Price, p.AlertThreshold,
		nullString(p.SKU), nullString(p.Barcode), p.Category, p.Active, p.UpdatedAt,
		p.TenantID, p.ID,
	)
	if isUniqueViolation(err) {
		return product.ErrDuplicateSKU
	}
	if err != nil {
		return err
	}
	return requireRow(res, product.ErrNotFound)
}

// Save upserts the full row, stock included. Used by event replay,
// which receives authoritative snapshots.
func (ps *PostgresProductStore) Save(ctx context.Context, p *product.Product) error {
	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, description = EXCLUDED.description,
		     price = EXCLUDED.price, stock_quantity = EXCLUDED.stock_quantity,
		     alert_threshold = EXCLUDED.alert_threshold, sku = EXCLUDED.sku,
		     barcode = EXCLUDED.barcode, category = EXCLUDED.category,
		     active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`,
		p.ID, p.TenantID, p.Name, p.Description, p.Price, p.StockQuantity,
		p.AlertThreshold, nullString(p.SKU), nullString(p.Barcode), p.Category,
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (ps *PostgresProductStore) Delete(ctx context.Context, tenantID, id string) error {
	res, err := ps.db.ExecContext(ctx,
		`UPDATE products SET active = false, updated_at = $1
		 WHERE tenant_id = $2 AND id = $3 AND active`,
		time.Now(), tenantID, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res, product.ErrNotFound)
}

func (ps *PostgresProductStore) GetByID(ctx context.Context, tenantID, id string) (*product.Product, error) {
	row := ps.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 AND id = $2 AND active`,
		tenantID, id,
	)
	return scanProduct(row)
}

func (ps *PostgresProductStore) GetBySKU(ctx context.Context, tenantID, sku string) (*product.Product, error) {
	row := ps.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 AND sku = $2 AND active`,
		tenantID, sku,
	)
	return scanProduct(row)
}

func (ps *PostgresProductStore) List(ctx context.Context, tenantID string) ([]*product.Product, error) {
	return ps.query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 AND active
		 ORDER BY created_at, id`,
		tenantID,
	)
}

func (ps *PostgresProductStore) ListByCategory(ctx context.Context, tenantID, category string) ([]*product.Product, error) {
	return ps.query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 AND category = $2 AND active
		 ORDER BY created_at, id`,
		tenantID, category,
	)
}

func (ps *PostgresProductStore) Search(ctx context.Context, tenantID, query string) ([]*product.Product, error) {
	pattern := "%" + query + "%"
	return ps.query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 AND active
		   AND (name ILIKE $2 OR sku ILIKE $2 OR barcode ILIKE $2)
		 ORDER BY created_at, id`,
		tenantID, pattern,
	)
}

func (ps *PostgresProductStore) LowStock(ctx context.Context, tenantID string) ([]*product.Product, error) {
	return ps.query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 AND active AND stock_quantity <= alert_threshold
		 ORDER BY stock_quantity, id`,
		tenantID,
	)
}

// AdjustStock applies the delta in one conditional statement so that
// concurrent adjustments serialize on the row instead of racing a
// read-modify-write cycle.
func (ps *PostgresProductStore) AdjustStock(ctx context.Context, tenantID, id string, delta int) (product.StockLevel, error) {
	var newQty, threshold int
	err := ps.db.QueryRowContext(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity + $1, updated_at = $2
		 WHERE tenant_id = $3 AND id = $4 AND active AND stock_quantity + $1 >= 0
		 RETURNING stock_quantity, alert_threshold`,
		delta, time.Now(), tenantID, id,
	).Scan(&newQty, &threshold)
	if errors.Is(err, sql.ErrNoRows) {
		// Condition failed: either the product is missing or the delta
		// would drive stock negative.
		if _, getErr := ps.GetByID(ctx, tenantID, id); getErr != nil {
			return product.StockLevel{}, getErr
		}
		return product.StockLevel{}, product.ErrInsufficientStock
	}
	if err != nil {
		return product.StockLevel{}, err
	}
	return product.StockLevel{
		OldQuantity:    newQty - delta,
		NewQuantity:    newQty,
		AlertThreshold: threshold,
	}, nil
}

func (ps *PostgresProductStore) query(ctx context.Context, q string, args ...any) ([]*product.Product, error) {
	rows, err := ps.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*product.Product, error) {
	var p product.Product
	var sku, barcode sql.NullString
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
		&p.AlertThreshold, &sku, &barcode, &p.Category, &p.Active,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.SKU = sku.String
	p.Barcode = barcode.String
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
