//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
)

func seedCatalog(t *testing.T, ctx context.Context) {
	t.Helper()
	cats := NewCategoryRepo(testPool)
	prods := NewProductRepo(testPool)
	if err := cats.Save(ctx, repository.NoTX, &model.Category{ID: "c1", Name: "Coffee", Active: true}); err != nil {
		t.Fatalf("save category: %v", err)
	}
	for _, p := range []struct {
		id, name string
		price    int64
	}{{"p1", "Arabica", 1200}, {"p2", "Robusta", 900}, {"p3", "Decaf", 700}} {
		prod, _ := model.NewProduct(p.id, "c1", p.name, "", p.price, "")
		if err := prods.Save(ctx, repository.NoTX, prod); err != nil {
			t.Fatalf("save product: %v", err)
		}
	}
}

func TestCatalogRepos_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	cleanup(t)
	seedCatalog(t, ctx)
	prods := NewProductRepo(testPool)

	t.Run("should page active products by name", func(t *testing.T) {
		page, total, err := prods.ListByCategory(ctx, nil, "c1", 0, 2)
		if err != nil {
			t.Fatal(err)
		}
		if total != 3 || len(page) != 2 || page[0].Name != "Arabica" {
			t.Fatalf("unexpected page: total=%d %+v", total, page)
		}
	})

	t.Run("should hide inactive products from listings only", func(t *testing.T) {
		p, _ := prods.FindByID(ctx, nil, "p3")
		p.Active = false
		if err := prods.Save(ctx, nil, p); err != nil {
			t.Fatal(err)
		}
		_, total, _ := prods.ListByCategory(ctx, nil, "c1", 0, 10)
		if total != 2 {
			t.Errorf("expected 2 active products, but got %d", total)
		}
		got, err := prods.FindByID(ctx, nil, "p3")
		if err != nil || got.Active {
			t.Errorf("expected inactive product to be readable, got %+v (%v)", got, err)
		}
	})

	t.Run("should report missing products", func(t *testing.T) {
		if _, err := prods.FindByID(ctx, nil, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, but got %v", err)
		}
	})
}

func TestPricingTierRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	cleanup(t)
	seedCatalog(t, ctx)
	repo := NewPricingTierRepo(testPool)

	hi, _ := model.NewPricingTier("t2", "p1", 10, nil, 800)
	lo, _ := model.NewPricingTier("t1", "p1", 1, model.IntPtr(9), 1000)
	for _, tier := range []*model.PricingTier{hi, lo} {
		if err := repo.Create(ctx, nil, tier); err != nil {
			t.Fatalf("create tier: %v", err)
		}
	}

	tiers, err := repo.ListActiveByProduct(ctx, nil, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tiers) != 2 || tiers[0].ID != "t1" || tiers[1].MaxQuantity != nil {
		t.Fatalf("expected tiers ordered by min quantity with an open upper bound, got %+v", tiers)
	}
	if *tiers[0].MaxQuantity != 9 {
		t.Errorf("expected max 9, but got %d", *tiers[0].MaxQuantity)
	}

	if err := repo.Delete(ctx, nil, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, nil, "t1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, but got %v", err)
	}
}

func TestRatingRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	cleanup(t)
	seedCatalog(t, ctx)
	repo := NewRatingRepo(testPool)

	_ = repo.Upsert(ctx, nil, &model.Rating{ID: "r1", ProductID: "p1", ChatID: 1, Stars: 2})
	_ = repo.Upsert(ctx, nil, &model.Rating{ID: "r2", ProductID: "p1", ChatID: 1, Stars: 4})
	_ = repo.Upsert(ctx, nil, &model.Rating{ID: "r3", ProductID: "p1", ChatID: 2, Stars: 5})

	s, err := repo.Summary(ctx, nil, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Count != 2 || s.Average != 4.5 {
		t.Errorf("expected re-rating to replace, got %+v", s)
	}
}
