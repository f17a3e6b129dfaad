package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
)

var (
	_ repository.DeliveryMethodRepository = (*deliveryMethodRepo)(nil)
	_ repository.PaymentMethodRepository  = (*paymentMethodRepo)(nil)
)

type deliveryMethodRepo struct {
	pool *pgxpool.Pool
}

func NewDeliveryMethodRepo(pool *pgxpool.Pool) repository.DeliveryMethodRepository {
	return &deliveryMethodRepo{pool: pool}
}

func (r *deliveryMethodRepo) Save(ctx context.Context, tx repository.Tx, m *model.DeliveryMethod) error {
	const q = `
INSERT INTO delivery_methods (id, name, fee_minor, requires_address, active, sort_order)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
  SET name = EXCLUDED.name, fee_minor = EXCLUDED.fee_minor, requires_address = EXCLUDED.requires_address,
      active = EXCLUDED.active, sort_order = EXCLUDED.sort_order;`
	if _, err := execSQL(ctx, r.pool, tx, q, m.ID, m.Name, m.FeeMinor, m.RequiresAddress, m.Active, m.SortOrder); err != nil {
		return fmt.Errorf("save delivery method: %w", err)
	}
	return nil
}

func (r *deliveryMethodRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.DeliveryMethod, error) {
	const q = `SELECT id, name, fee_minor, requires_address, active, sort_order FROM delivery_methods WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var m model.DeliveryMethod
	if err := row.Scan(&m.ID, &m.Name, &m.FeeMinor, &m.RequiresAddress, &m.Active, &m.SortOrder); err != nil {
		return nil, scanErr(err)
	}
	return &m, nil
}

func (r *deliveryMethodRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.DeliveryMethod, error) {
	const q = `
SELECT id, name, fee_minor, requires_address, active, sort_order
  FROM delivery_methods WHERE active ORDER BY sort_order, name;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list delivery methods: %w", err)
	}
	defer rows.Close()
	var out []*model.DeliveryMethod
	for rows.Next() {
		var m model.DeliveryMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.FeeMinor, &m.RequiresAddress, &m.Active, &m.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

type paymentMethodRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentMethodRepo(pool *pgxpool.Pool) repository.PaymentMethodRepository {
	return &paymentMethodRepo{pool: pool}
}

func (r *paymentMethodRepo) Save(ctx context.Context, tx repository.Tx, m *model.PaymentMethod) error {
	const q = `
INSERT INTO payment_methods (id, name, instructions, active, sort_order)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
  SET name = EXCLUDED.name, instructions = EXCLUDED.instructions,
      active = EXCLUDED.active, sort_order = EXCLUDED.sort_order;`
	if _, err := execSQL(ctx, r.pool, tx, q, m.ID, m.Name, m.Instructions, m.Active, m.SortOrder); err != nil {
		return fmt.Errorf("save payment method: %w", err)
	}
	return nil
}

func (r *paymentMethodRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentMethod, error) {
	const q = `SELECT id, name, instructions, active, sort_order FROM payment_methods WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var m model.PaymentMethod
	if err := row.Scan(&m.ID, &m.Name, &m.Instructions, &m.Active, &m.SortOrder); err != nil {
		return nil, scanErr(err)
	}
	return &m, nil
}

func (r *paymentMethodRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PaymentMethod, error) {
	const q = `SELECT id, name, instructions, active, sort_order FROM payment_methods WHERE active ORDER BY sort_order, name;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()
	var out []*model.PaymentMethod
	for rows.Next() {
		var m model.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Instructions, &m.Active, &m.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
