package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
)

var _ repository.RatingRepository = (*ratingRepo)(nil)

type ratingRepo struct {
	pool *pgxpool.Pool
}

func NewRatingRepo(pool *pgxpool.Pool) repository.RatingRepository {
	return &ratingRepo{pool: pool}
}

func (r *ratingRepo) Upsert(ctx context.Context, tx repository.Tx, rt *model.Rating) error {
	const q = `
INSERT INTO product_ratings (id, product_id, chat_id, stars, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (product_id, chat_id) DO UPDATE
  SET stars = EXCLUDED.stars, created_at = EXCLUDED.created_at;`
	if _, err := execSQL(ctx, r.pool, tx, q, rt.ID, rt.ProductID, rt.ChatID, rt.Stars, rt.CreatedAt); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func (r *ratingRepo) Summary(ctx context.Context, tx repository.Tx, productID string) (model.RatingSummary, error) {
	const q = `SELECT COALESCE(AVG(stars), 0)::float8, COUNT(*) FROM product_ratings WHERE product_id = $1;`
	var s model.RatingSummary
	row, err := pickRow(ctx, r.pool, tx, q, productID)
	if err != nil {
		return s, err
	}
	if err := row.Scan(&s.Average, &s.Count); err != nil {
		return s, fmt.Errorf("rating summary: %w", err)
	}
	return s, nil
}

func (r *ratingRepo) ListByProduct(ctx context.Context, tx repository.Tx, productID string, limit int) ([]*model.Rating, error) {
	const q = `
SELECT id, product_id, chat_id, stars, created_at
  FROM product_ratings
 WHERE product_id = $1
 ORDER BY created_at DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()
	var out []*model.Rating
	for rows.Next() {
		var rt model.Rating
		if err := rows.Scan(&rt.ID, &rt.ProductID, &rt.ChatID, &rt.Stars, &rt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rt)
	}
	return out, rows.Err()
}
