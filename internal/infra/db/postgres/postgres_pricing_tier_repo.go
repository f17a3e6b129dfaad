package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
)

var _ repository.PricingTierRepository = (*pricingTierRepo)(nil)

type pricingTierRepo struct {
	pool *pgxpool.Pool
}

func NewPricingTierRepo(pool *pgxpool.Pool) repository.PricingTierRepository {
	return &pricingTierRepo{pool: pool}
}

const tierColumns = `id, product_id, min_quantity, max_quantity, unit_price_minor, active, created_at, updated_at`

func scanTier(s scanner) (*model.PricingTier, error) {
	var (
		t   model.PricingTier
		max *int32
	)
	if err := s.Scan(&t.ID, &t.ProductID, &t.MinQuantity, &max, &t.UnitPriceMinor, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if max != nil {
		t.MaxQuantity = model.IntPtr(int(*max))
	}
	return &t, nil
}

func (r *pricingTierRepo) Create(ctx context.Context, tx repository.Tx, t *model.PricingTier) error {
	const q = `INSERT INTO pricing_tiers (` + tierColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.ProductID, t.MinQuantity, t.MaxQuantity, t.UnitPriceMinor, t.Active, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create tier: %w", err)
	}
	return nil
}

func (r *pricingTierRepo) Update(ctx context.Context, tx repository.Tx, t *model.PricingTier) error {
	const q = `
UPDATE pricing_tiers
   SET min_quantity = $2, max_quantity = $3, unit_price_minor = $4, active = $5, updated_at = $6
 WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, t.ID, t.MinQuantity, t.MaxQuantity, t.UnitPriceMinor, t.Active, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pricingTierRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM pricing_tiers WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete tier: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pricingTierRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PricingTier, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+tierColumns+` FROM pricing_tiers WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	t, err := scanTier(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return t, nil
}

func (r *pricingTierRepo) ListActiveByProduct(ctx context.Context, tx repository.Tx, productID string) ([]*model.PricingTier, error) {
	const q = `
SELECT ` + tierColumns + `
  FROM pricing_tiers
 WHERE product_id = $1 AND active
 ORDER BY min_quantity;`
	rows, err := queryRows(ctx, r.pool, tx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()
	var out []*model.PricingTier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
