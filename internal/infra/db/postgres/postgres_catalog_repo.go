package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
)

var (
	_ repository.CategoryRepository = (*categoryRepo)(nil)
	_ repository.ProductRepository  = (*productRepo)(nil)
)

type categoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) repository.CategoryRepository {
	return &categoryRepo{pool: pool}
}

func (r *categoryRepo) Save(ctx context.Context, tx repository.Tx, c *model.Category) error {
	const q = `
INSERT INTO categories (id, name, sort_order, active, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
  SET name       = EXCLUDED.name,
      sort_order = EXCLUDED.sort_order,
      active     = EXCLUDED.active;`
	if _, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Name, c.SortOrder, c.Active, c.CreatedAt); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func (r *categoryRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Category, error) {
	const q = `SELECT id, name, sort_order, active, created_at FROM categories WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.SortOrder, &c.Active, &c.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &c, nil
}

func (r *categoryRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Category, error) {
	const q = `
SELECT id, name, sort_order, active, created_at
  FROM categories
 WHERE active
 ORDER BY sort_order, name;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []*model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

type productRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) repository.ProductRepository {
	return &productRepo{pool: pool}
}

const productColumns = `id, category_id, name, description, price_minor, image_url, active, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (*model.Product, error) {
	var p model.Product
	if err := s.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.PriceMinor, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (` + productColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
  SET category_id = EXCLUDED.category_id,
      name        = EXCLUDED.name,
      description = EXCLUDED.description,
      price_minor = EXCLUDED.price_minor,
      image_url   = EXCLUDED.image_url,
      active      = EXCLUDED.active,
      updated_at  = EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.CategoryID, p.Name, p.Description, p.PriceMinor, p.ImageURL, p.Active, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+productColumns+` FROM products WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	p, err := scanProduct(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

func (r *productRepo) ListByCategory(ctx context.Context, tx repository.Tx, categoryID string, offset, limit int) ([]*model.Product, int, error) {
	var total int
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM products WHERE category_id = $1 AND active;`, categoryID)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	const q = `
SELECT ` + productColumns + `
  FROM products
 WHERE category_id = $1 AND active
 ORDER BY name, id
 OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, categoryID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *productRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM products WHERE active;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count active products: %w", err)
	}
	return n, nil
}
