package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
	pg "telegram-shop-bot/internal/infra/db/postgres"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/usecase"
)

type seedProduct struct {
	ID, Category, Name, Description string
	Price                           int64
	Image                           string
	Tiers                           []seedTier
}

type seedTier struct {
	Min   int
	Max   *int
	Price int64
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	categories := pg.NewCategoryRepo(pool)
	products := pg.NewProductRepo(pool)
	tiers := pg.NewPricingTierRepo(pool)
	delivery := pg.NewDeliveryMethodRepo(pool)
	payments := pg.NewPaymentMethodRepo(pool)
	pricing := usecase.NewPricingUseCase(products, tiers, pg.NewTxManager(pool), logger)

	// If products already exist, do nothing
	n, err := products.CountActive(ctx, repository.NoTX)
	if err != nil {
		logger.Fatal().Err(err).Msg("count products")
	}
	if n > 0 {
		logger.Info().Int("products", n).Msg("catalog already seeded, no changes")
		return
	}

	cats := []*model.Category{
		{ID: "coffee", Name: "Coffee", SortOrder: 1, Active: true, CreatedAt: time.Now()},
		{ID: "tea", Name: "Tea", SortOrder: 2, Active: true, CreatedAt: time.Now()},
		{ID: "gear", Name: "Brewing gear", SortOrder: 3, Active: true, CreatedAt: time.Now()},
	}
	for _, c := range cats {
		if err := categories.Save(ctx, repository.NoTX, c); err != nil {
			logger.Fatal().Err(err).Str("category", c.ID).Msg("save category")
		}
	}

	seed := []seedProduct{
		{
			ID: "espresso", Category: "coffee", Name: "Espresso blend 250g",
			Description: "Dark roast with notes of cocoa and hazelnut.", Price: 1290,
			Image: "https://images.example.com/espresso.jpg",
			Tiers: []seedTier{{1, model.IntPtr(4), 1290}, {5, model.IntPtr(9), 1190}, {10, nil, 1050}},
		},
		{
			ID: "filter", Category: "coffee", Name: "Ethiopia Yirgacheffe 250g",
			Description: "Light roast, floral and citrus.", Price: 1490,
			Tiers: []seedTier{{1, model.IntPtr(9), 1490}, {10, nil, 1290}},
		},
		{
			ID: "sencha", Category: "tea", Name: "Japanese sencha 100g",
			Description: "Grassy green tea, first flush.", Price: 990,
		},
		{
			ID: "earlgrey", Category: "tea", Name: "Earl Grey 100g",
			Description: "Black tea with bergamot.", Price: 790,
			Tiers: []seedTier{{1, model.IntPtr(19), 790}, {20, nil, 650}},
		},
		{
			ID: "v60", Category: "gear", Name: "Pour-over dripper",
			Description: "Ceramic dripper, size 02.", Price: 2490,
			Image: "https://images.example.com/dripper.jpg",
		},
	}
	for _, s := range seed {
		p, err := model.NewProduct(s.ID, s.Category, s.Name, s.Description, s.Price, s.Image)
		if err != nil {
			logger.Fatal().Err(err).Str("product", s.ID).Msg("build product")
		}
		if err := products.Save(ctx, repository.NoTX, p); err != nil {
			logger.Fatal().Err(err).Str("product", s.ID).Msg("save product")
		}
		for _, t := range s.Tiers {
			if _, err := pricing.CreateTier(ctx, p.ID, t.Min, t.Max, t.Price); err != nil {
				logger.Fatal().Err(err).Str("product", s.ID).Int("min", t.Min).Msg("create tier")
			}
		}
		logger.Info().Str("product", p.ID).Int64("price_minor", p.PriceMinor).Int("tiers", len(s.Tiers)).Msg("seeded")
	}

	methods := []struct {
		id, name  string
		fee       int64
		needsInfo bool
		order     int
	}{
		{"pickup", "Store pickup", 0, false, 1},
		{"courier", "Courier", 500, true, 2},
		{"post", "Post", 300, true, 3},
	}
	for _, m := range methods {
		dm, err := model.NewDeliveryMethod(m.id, m.name, m.fee, m.needsInfo)
		if err != nil {
			logger.Fatal().Err(err).Str("method", m.id).Msg("build delivery method")
		}
		dm.SortOrder = m.order
		if err := delivery.Save(ctx, repository.NoTX, dm); err != nil {
			logger.Fatal().Err(err).Str("method", m.id).Msg("save delivery method")
		}
	}

	pays := []struct{ id, name, instructions string }{
		{"card", "Bank card transfer", "Transfer the total to card 0000 0000 0000 0000 and keep the receipt."},
		{"cash", "Cash on delivery", "Pay the courier or at pickup."},
	}
	for i, m := range pays {
		pm, err := model.NewPaymentMethod(m.id, m.name, m.instructions)
		if err != nil {
			logger.Fatal().Err(err).Str("method", m.id).Msg("build payment method")
		}
		pm.SortOrder = i + 1
		if err := payments.Save(ctx, repository.NoTX, pm); err != nil {
			logger.Fatal().Err(err).Str("method", m.id).Msg("save payment method")
		}
	}

	logger.Info().
		Int("categories", len(cats)).
		Int("products", len(seed)).
		Int("delivery_methods", len(methods)).
		Int("payment_methods", len(pays)).
		Msg("seeding complete")
}
