package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/example/pos-backend/internal/domain/product"
	"github.com/example/pos-backend/internal/domain/sale"
)

// PostgresSaleStore persists sales and their items in PostgreSQL.
// Stock effects are committed in the same transaction as the sale so
// that a failed deduction never leaves a half-written sale behind.
type PostgresSaleStore struct {
	db *sql.DB
}

func NewPostgresSaleStore(db *sql.DB) *PostgresSaleStore {
	return &PostgresSaleStore{db: db}
}

const saleColumns = `id, tenant_id, invoice_number, user_id, status, total_amount,
	 tax_amount, discount_amount, payment_method, client_reference_id,
	 offline_created, created_at, updated_at`

func (ss *PostgresSaleStore) Create(ctx context.Context, s *sale.Sale) ([]sale.StockMovement, error) {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sales (`+saleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.ID, s.TenantID, s.InvoiceNumber, s.UserID, s.Status, s.TotalAmount,
		s.TaxAmount, s.DiscountAmount, s.PaymentMethod, nullString(s.ClientReferenceID),
		s.OfflineCreated, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return nil, mapSaleUniqueViolation(err)
	}

	if err := insertItems(ctx, tx, s); err != nil {
		return nil, err
	}

	var movements []sale.StockMovement
	if s.Status.ConsumesStock() {
		movements, err = applyStockDeltas(ctx, tx, s.TenantID, s.Items, -1)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return movements, nil
}

// Save upserts the sale and its items without touching stock. Event
// replay applies stock through explicit inventory events instead.
func (ss *PostgresSaleStore) Save(ctx context.Context, s *sale.Sale) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sales (`+saleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE
		 SET status = EXCLUDED.status, total_amount = EXCLUDED.total_amount,
		     tax_amount = EXCLUDED.tax_amount, discount_amount = EXCLUDED.discount_amount,
		     payment_method = EXCLUDED.payment_method, updated_at = EXCLUDED.updated_at`,
		s.ID, s.TenantID, s.InvoiceNumber, s.UserID, s.Status, s.TotalAmount,
		s.TaxAmount, s.DiscountAmount, s.PaymentMethod, nullString(s.ClientReferenceID),
		s.OfflineCreated, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return mapSaleUniqueViolation(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, s.ID); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, s); err != nil {
		return err
	}

	return tx.Commit()
}

func (ss *PostgresSaleStore) GetByID(ctx context.Context, tenantID, id string) (*sale.Sale, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	s, err := scanSale(row)
	if err != nil {
		return nil, err
	}
	if err := ss.loadItems(ctx, []*sale.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// FindByClientRef returns (nil, nil) when no sale carries the
// reference.
func (ss *PostgresSaleStore) FindByClientRef(ctx context.Context, tenantID, clientRef string) (*sale.Sale, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales
		 WHERE tenant_id = $1 AND client_reference_id = $2`,
		tenantID, clientRef,
	)
	s, err := scanSale(row)
	if errors.Is(err, sale.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := ss.loadItems(ctx, []*sale.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (ss *PostgresSaleStore) List(ctx context.Context, tenantID string) ([]*sale.Sale, error) {
	return ss.query(ctx,
		`SELECT `+saleColumns+` FROM sales
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC, id`,
		tenantID,
	)
}

func (ss *PostgresSaleStore) ListByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]*sale.Sale, error) {
	return ss.query(ctx,
		`SELECT `+saleColumns+` FROM sales
		 WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at DESC, id`,
		tenantID, from, to,
	)
}

func (ss *PostgresSaleStore) ListByStatus(ctx context.Context, tenantID string, status sale.Status) ([]*sale.Sale, error) {
	return ss.query(ctx,
		`SELECT `+saleColumns+` FROM sales
		 WHERE tenant_id = $1 AND status = $2
		 ORDER BY created_at DESC, id`,
		tenantID, status,
	)
}

// UpdateStatus transitions a sale and couples any stock restoration or
// re-deduction with the status change in one transaction.
func (ss *PostgresSaleStore) UpdateStatus(ctx context.Context, tenantID, id string, status sale.Status) (*sale.Sale, []sale.StockMovement, error) {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales
		 WHERE tenant_id = $1 AND id = $2
		 FOR UPDATE`,
		tenantID, id,
	)
	s, err := scanSale(row)
	if err != nil {
		return nil, nil, err
	}
	if err := loadItemsTx(ctx, tx, s); err != nil {
		return nil, nil, err
	}

	old := s.Status
	var movements []sale.StockMovement
	switch {
	case old.ConsumesStock() && !status.ConsumesStock():
		movements, err = applyStockDeltas(ctx, tx, tenantID, s.Items, +1)
	case !old.ConsumesStock() && status.ConsumesStock():
		movements, err = applyStockDeltas(ctx, tx, tenantID, s.Items, -1)
	}
	if err != nil {
		return nil, nil, err
	}

	s.Status = status
	s.UpdatedAt = time.Now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE sales SET status = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`,
		s.Status, s.UpdatedAt, tenantID, id,
	); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return s, movements, nil
}

func (ss *PostgresSaleStore) DailyReport(ctx context.Context, tenantID string, from, to time.Time) ([]sale.DailyReportRow, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT to_char(created_at, 'YYYY-MM-DD') AS day, COUNT(*), COALESCE(SUM(total_amount), 0)
		 FROM sales
		 WHERE tenant_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4
		 GROUP BY day
		 ORDER BY day`,
		tenantID, sale.StatusCompleted, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []sale.DailyReportRow
	for rows.Next() {
		var r sale.DailyReportRow
		if err := rows.Scan(&r.Date, &r.Count, &r.Total); err != nil {
			return nil, err
		}
		report = append(report, r)
	}
	return report, rows.Err()
}

func (ss *PostgresSaleStore) query(ctx context.Context, q string, args ...any) ([]*sale.Sale, error) {
	rows, err := ss.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*sale.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := ss.loadItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (ss *PostgresSaleStore) loadItems(ctx context.Context, sales []*sale.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, len(sales))
	byID := make(map[string]*sale.Sale, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, sale_id, product_id, quantity, unit_price, discount, tax, subtotal
		 FROM sale_items
		 WHERE sale_id = ANY($1)
		 ORDER BY sale_id, id`,
		pq.Array(ids),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it sale.Item
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity,
			&it.UnitPrice, &it.Discount, &it.Tax, &it.Subtotal); err != nil {
			return err
		}
		if s, ok := byID[it.SaleID]; ok {
			s.Items = append(s.Items, it)
		}
	}
	return rows.Err()
}

func loadItemsTx(ctx context.Context, tx *sql.Tx, s *sale.Sale) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, sale_id, product_id, quantity, unit_price, discount, tax, subtotal
		 FROM sale_items
		 WHERE sale_id = $1
		 ORDER BY id`,
		s.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	s.Items = nil
	for rows.Next() {
		var it sale.Item
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity,
			&it.UnitPrice, &it.Discount, &it.Tax, &it.Subtotal); err != nil {
			return err
		}
		s.Items = append(s.Items, it)
	}
	return rows.Err()
}

func insertItems(ctx context.Context, tx *sql.Tx, s *sale.Sale) error {
	for _, it := range s.Items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, discount, tax, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, it.SaleID, it.ProductID, it.Quantity, it.UnitPrice, it.Discount, it.Tax, it.Subtotal,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// applyStockDeltas adjusts every item's product by sign*quantity using
// the same conditional update as the product store, inside the sale
// transaction.
func applyStockDeltas(ctx context.Context, tx *sql.Tx, tenantID string, items []sale.Item, sign int) ([]sale.StockMovement, error) {
	movements := make([]sale.StockMovement, 0, len(items))
	for _, it := range items {
		delta := sign * it.Quantity
		var newQty, threshold int
		err := tx.QueryRowContext(ctx,
			`UPDATE products
			 SET stock_quantity = stock_quantity + $1, updated_at = $2
			 WHERE tenant_id = $3 AND id = $4 AND active AND stock_quantity + $1 >= 0
			 RETURNING stock_quantity, alert_threshold`,
			delta, time.Now(), tenantID, it.ProductID,
		).Scan(&newQty, &threshold)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM products WHERE tenant_id = $1 AND id = $2 AND active)`,
				tenantID, it.ProductID,
			).Scan(&exists); err != nil {
				return nil, err
			}
			if !exists {
				return nil, fmt.Errorf("product %s: %w", it.ProductID, product.ErrNotFound)
			}
			return nil, fmt.Errorf("product %s: %w", it.ProductID, product.ErrInsufficientStock)
		}
		if err != nil {
			return nil, err
		}
		movements = append(movements, sale.StockMovement{
			ProductID:      it.ProductID,
			Delta:          delta,
			OldQuantity:    newQty - delta,
			NewQuantity:    newQty,
			AlertThreshold: threshold,
		})
	}
	return movements, nil
}

func scanSale(row rowScanner) (*sale.Sale, error) {
	var s sale.Sale
	var clientRef sql.NullString
	err := row.Scan(
		&s.ID, &s.TenantID, &s.InvoiceNumber, &s.UserID, &s.Status, &s.TotalAmount,
		&s.TaxAmount, &s.DiscountAmount, &s.PaymentMethod, &clientRef,
		&s.OfflineCreated, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sale.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.ClientReferenceID = clientRef.String
	return &s, nil
}

func mapSaleUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "client_reference") {
			return sale.ErrDuplicateClientRef
		}
		if strings.Contains(pqErr.Constraint, "invoice") {
			return sale.ErrDuplicateInvoice
		}
	}
	return err
}
