package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/capirelay-lab/project-capirelay/internal/core/storage"
	"github.com/shopspring/decimal"
)

// CatalogAdapter implements storage.CatalogStore for PostgreSQL.
type CatalogAdapter struct {
	db               *sql.DB
	stmtGetVariation *sql.Stmt
}

// NewCatalogAdapter prepares the catalog lookup statement on the shared connection.
func NewCatalogAdapter(db *sql.DB) (*CatalogAdapter, error) {
	stmt, err := db.Prepare(queryGetVariation)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getVariation statement: %w", err)
	}

	return &CatalogAdapter{db: db, stmtGetVariation: stmt}, nil
}

// GetVariation loads one product variation by id.
// Returns storage.ErrNotFound when the row does not exist.
func (a *CatalogAdapter) GetVariation(ctx context.Context, id int64) (*commerce.ProductVariation, error) {
	var (
		v               commerce.ProductVariation
		priceNumber     sql.NullString
		priceCurrency   sql.NullString
		adjustmentsJSON []byte
	)

	err := a.stmtGetVariation.QueryRowContext(ctx, id).Scan(
		&v.ID,
		&v.ProductID,
		&v.SKU,
		&v.Title,
		&priceNumber,
		&priceCurrency,
		&adjustmentsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product variation: %w", err)
	}

	if priceCurrency.Valid && priceCurrency.String != "" {
		number, err := decimal.NewFromString(priceNumber.String)
		if err != nil {
			return nil, fmt.Errorf("malformed price for variation %d: %w", id, err)
		}
		v.Price = commerce.Money{Number: number, CurrencyCode: priceCurrency.String}
	}

	if len(adjustmentsJSON) > 0 {
		if err := json.Unmarshal(adjustmentsJSON, &v.Adjustments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal adjustments for variation %d: %w", id, err)
		}
	}

	slog.Debug("[Postgres] Loaded product variation", "id", v.ID, "sku", v.SKU)
	return &v, nil
}

// Close closes the prepared statement.
func (a *CatalogAdapter) Close() error {
	if err := a.stmtGetVariation.Close(); err != nil {
		return fmt.Errorf("failed to close getVariation statement: %w", err)
	}
	return nil
}
