package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
)

var (
	_ repository.CartRepository     = (*cartRepo)(nil)
	_ repository.WishlistRepository = (*wishlistRepo)(nil)
)

type cartRepo struct {
	pool *pgxpool.Pool
}

func NewCartRepo(pool *pgxpool.Pool) repository.CartRepository {
	return &cartRepo{pool: pool}
}

func (r *cartRepo) ListItems(ctx context.Context, tx repository.Tx, chatID int64) ([]*model.CartItem, error) {
	const q = `
SELECT chat_id, product_id, quantity, added_at, updated_at
  FROM cart_items
 WHERE chat_id = $1
 ORDER BY added_at, product_id;`
	rows, err := queryRows(ctx, r.pool, tx, q, chatID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()
	var out []*model.CartItem
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.ChatID, &it.ProductID, &it.Quantity, &it.AddedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (r *cartRepo) GetItem(ctx context.Context, tx repository.Tx, chatID int64, productID string) (*model.CartItem, error) {
	const q = `
SELECT chat_id, product_id, quantity, added_at, updated_at
  FROM cart_items
 WHERE chat_id = $1 AND product_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, chatID, productID)
	if err != nil {
		return nil, err
	}
	var it model.CartItem
	if err := row.Scan(&it.ChatID, &it.ProductID, &it.Quantity, &it.AddedAt, &it.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &it, nil
}

func (r *cartRepo) SetQuantity(ctx context.Context, tx repository.Tx, chatID int64, productID string, qty int) error {
	if qty < 1 {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO cart_items (chat_id, product_id, quantity, added_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (chat_id, product_id) DO UPDATE
  SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at;`
	if _, err := execSQL(ctx, r.pool, tx, q, chatID, productID, qty, time.Now()); err != nil {
		return fmt.Errorf("set cart quantity: %w", err)
	}
	return nil
}

func (r *cartRepo) RemoveItem(ctx context.Context, tx repository.Tx, chatID int64, productID string) error {
	_, err := execSQL(ctx, r.pool, tx, `DELETE FROM cart_items WHERE chat_id = $1 AND product_id = $2;`, chatID, productID)
	return err
}

func (r *cartRepo) Clear(ctx context.Context, tx repository.Tx, chatID int64) error {
	_, err := execSQL(ctx, r.pool, tx, `DELETE FROM cart_items WHERE chat_id = $1;`, chatID)
	return err
}

type wishlistRepo struct {
	pool *pgxpool.Pool
}

func NewWishlistRepo(pool *pgxpool.Pool) repository.WishlistRepository {
	return &wishlistRepo{pool: pool}
}

func (r *wishlistRepo) List(ctx context.Context, tx repository.Tx, chatID int64) ([]*model.WishlistItem, error) {
	const q = `SELECT chat_id, product_id, added_at FROM wishlist_items WHERE chat_id = $1 ORDER BY added_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, chatID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()
	var out []*model.WishlistItem
	for rows.Next() {
		var w model.WishlistItem
		if err := rows.Scan(&w.ChatID, &w.ProductID, &w.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

func (r *wishlistRepo) Exists(ctx context.Context, tx repository.Tx, chatID int64, productID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM wishlist_items WHERE chat_id = $1 AND product_id = $2);`
	row, err := pickRow(ctx, r.pool, tx, q, chatID, productID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}

func (r *wishlistRepo) Add(ctx context.Context, tx repository.Tx, chatID int64, productID string) error {
	const q = `
INSERT INTO wishlist_items (chat_id, product_id, added_at)
VALUES ($1, $2, now())
ON CONFLICT (chat_id, product_id) DO NOTHING;`
	_, err := execSQL(ctx, r.pool, tx, q, chatID, productID)
	return err
}

func (r *wishlistRepo) Remove(ctx context.Context, tx repository.Tx, chatID int64, productID string) error {
	_, err := execSQL(ctx, r.pool, tx, `DELETE FROM wishlist_items WHERE chat_id = $1 AND product_id = $2;`, chatID, productID)
	return err
}
