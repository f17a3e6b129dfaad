package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
)

var (
	_ repository.CheckoutDraftRepository = (*checkoutDraftRepo)(nil)
	_ repository.OrderRepository         = (*orderRepo)(nil)
)

type checkoutDraftRepo struct {
	pool *pgxpool.Pool
}

func NewCheckoutDraftRepo(pool *pgxpool.Pool) repository.CheckoutDraftRepository {
	return &checkoutDraftRepo{pool: pool}
}

func (r *checkoutDraftRepo) Save(ctx context.Context, tx repository.Tx, d *model.CheckoutDraft) error {
	const q = `
INSERT INTO checkout_drafts (chat_id, order_number, delivery_method_id, payment_method_id,
                             customer_name, customer_phone, customer_address, customer_raw, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (chat_id, order_number) DO UPDATE
  SET delivery_method_id = EXCLUDED.delivery_method_id,
      payment_method_id  = EXCLUDED.payment_method_id,
      customer_name      = EXCLUDED.customer_name,
      customer_phone     = EXCLUDED.customer_phone,
      customer_address   = EXCLUDED.customer_address,
      customer_raw       = EXCLUDED.customer_raw;`
	_, err := execSQL(ctx, r.pool, tx, q,
		d.ChatID, d.OrderNumber, d.DeliveryMethodID, d.PaymentMethodID,
		d.Customer.Name, d.Customer.Phone, d.Customer.Address, d.Customer.Raw, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("save checkout draft: %w", err)
	}
	return nil
}

func (r *checkoutDraftRepo) Find(ctx context.Context, tx repository.Tx, chatID int64, orderNumber string) (*model.CheckoutDraft, error) {
	const q = `
SELECT chat_id, order_number, delivery_method_id, payment_method_id,
       customer_name, customer_phone, customer_address, customer_raw, created_at
  FROM checkout_drafts
 WHERE chat_id = $1 AND order_number = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, chatID, orderNumber)
	if err != nil {
		return nil, err
	}
	var d model.CheckoutDraft
	if err := row.Scan(&d.ChatID, &d.OrderNumber, &d.DeliveryMethodID, &d.PaymentMethodID,
		&d.Customer.Name, &d.Customer.Phone, &d.Customer.Address, &d.Customer.Raw, &d.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &d, nil
}

func (r *checkoutDraftRepo) Delete(ctx context.Context, tx repository.Tx, chatID int64, orderNumber string) error {
	_, err := execSQL(ctx, r.pool, tx, `DELETE FROM checkout_drafts WHERE chat_id = $1 AND order_number = $2;`, chatID, orderNumber)
	return err
}

func (r *checkoutDraftRepo) DeleteOlderThan(ctx context.Context, tx repository.Tx, before time.Time) (int, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM checkout_drafts WHERE created_at < $1;`, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

type orderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) repository.OrderRepository {
	return &orderRepo{pool: pool}
}

// orderItemRow is the JSONB shape of one order line.
type orderItemRow struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
}

func encodeItems(items []model.OrderItem) ([]byte, error) {
	rows := make([]orderItemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, orderItemRow(it))
	}
	return json.Marshal(rows)
}

func decodeItems(raw []byte) ([]model.OrderItem, error) {
	var rows []orderItemRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	out := make([]model.OrderItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.OrderItem(r))
	}
	return out, nil
}

const orderColumns = `id, number, chat_id, status, items, subtotal_minor, delivery_fee_minor, total_minor,
       delivery_method_id, payment_method_id, customer_name, customer_phone, customer_address, customer_raw,
       created_at, updated_at`

func scanOrder(s scanner) (*model.Order, error) {
	var (
		o      model.Order
		status string
		raw    []byte
	)
	err := s.Scan(&o.ID, &o.Number, &o.ChatID, &status, &raw, &o.SubtotalMinor, &o.DeliveryFeeMinor, &o.TotalMinor,
		&o.DeliveryMethodID, &o.PaymentMethodID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Address, &o.Customer.Raw,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	if o.Items, err = decodeItems(raw); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	return &o, nil
}

func (r *orderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	items, err := encodeItems(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	const q = `
INSERT INTO orders (` + orderColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);`
	_, err = execSQL(ctx, r.pool, tx, q,
		o.ID, o.Number, o.ChatID, string(o.Status), items, o.SubtotalMinor, o.DeliveryFeeMinor, o.TotalMinor,
		o.DeliveryMethodID, o.PaymentMethodID, o.Customer.Name, o.Customer.Phone, o.Customer.Address, o.Customer.Raw,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *orderRepo) FindByNumber(ctx context.Context, tx repository.Tx, chatID int64, number string) (*model.Order, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+orderColumns+` FROM orders WHERE chat_id = $1 AND number = $2;`, chatID, number)
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return o, nil
}

func (r *orderRepo) ListByChat(ctx context.Context, tx repository.Tx, chatID int64, limit int) ([]*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE chat_id = $1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
