package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
	"telegram-shop-bot/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// DeliveryOption is one delivery button on the checkout start screen.
type DeliveryOption struct {
	Method *model.DeliveryMethod
	Total  int64 // cart total plus the method fee
}

type CheckoutStart struct {
	OrderNumber string
	Cart        *model.Cart
	Options     []DeliveryOption
}

type DeliveryStep struct {
	Method *model.DeliveryMethod
	// NeedsInfo is false for pickup-style methods, which skip straight to payment.
	NeedsInfo bool
}

type PaymentSummary struct {
	OrderNumber string
	Payment     *model.PaymentMethod
	Delivery    *model.DeliveryMethod
	Customer    model.CustomerInfo
	Cart        *model.Cart
	Subtotal    int64
	DeliveryFee int64
	Total       int64
}

type CompletionResult struct {
	Order *model.Order
	// Duplicate is set when the order number was already completed; nothing new was written.
	Duplicate bool
}

// CheckoutUseCase drives the five checkout stages. It keeps no cursor of its own:
// callers pass the method ids and order number that the previous stage embedded
// in its buttons. Customer details live in a draft keyed by (chat, order number).
type CheckoutUseCase interface {
	Start(ctx context.Context, chatID int64) (*CheckoutStart, error)
	SelectDelivery(ctx context.Context, chatID int64, methodID, orderNumber string) (*DeliveryStep, error)
	CaptureCustomerInfo(ctx context.Context, chatID int64, methodID, orderNumber, text string) (model.CustomerInfo, error)
	// ConfirmInfo checks that methodID is still active and is the method the
	// draft for orderNumber was captured with.
	ConfirmInfo(ctx context.Context, chatID int64, methodID, orderNumber string) error
	ListPayments(ctx context.Context) ([]*model.PaymentMethod, error)
	PaymentSummary(ctx context.Context, chatID int64, paymentMethodID, orderNumber string) (*PaymentSummary, error)
	// Complete creates the order from the live cart and clears it. Repeating it
	// for the same order number returns the existing order with Duplicate set.
	Complete(ctx context.Context, chatID int64, orderNumber string) (*CompletionResult, error)
	// PurgeStaleDrafts drops drafts of checkouts abandoned for longer than maxAge.
	PurgeStaleDrafts(ctx context.Context, maxAge time.Duration) (int, error)
}

var _ CheckoutUseCase = (*checkoutUC)(nil)

type checkoutUC struct {
	carts    repository.CartRepository
	prices   priceResolver
	delivery repository.DeliveryMethodRepository
	payments repository.PaymentMethodRepository
	drafts   repository.CheckoutDraftRepository
	orders   repository.OrderRepository
	tx       repository.TransactionManager
	now      func() time.Time
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	carts repository.CartRepository,
	products repository.ProductRepository,
	tiers repository.PricingTierRepository,
	delivery repository.DeliveryMethodRepository,
	payments repository.PaymentMethodRepository,
	drafts repository.CheckoutDraftRepository,
	orders repository.OrderRepository,
	tx repository.TransactionManager,
	now func() time.Time,
	logger *zerolog.Logger,
) CheckoutUseCase {
	if now == nil {
		now = time.Now
	}
	l := logger.With().Str("component", "CheckoutUseCase").Logger()
	return &checkoutUC{
		carts:    carts,
		prices:   priceResolver{products: products, tiers: tiers},
		delivery: delivery,
		payments: payments,
		drafts:   drafts,
		orders:   orders,
		tx:       tx,
		now:      now,
		log:      &l,
	}
}

func (c *checkoutUC) Start(ctx context.Context, chatID int64) (*CheckoutStart, error) {
	cart, err := buildCart(ctx, repository.NoTX, chatID, c.carts, c.prices, c.log)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	methods, err := c.delivery.ListActive(ctx, repository.NoTX)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("list delivery methods: %w", err)
	}
	out := &CheckoutStart{OrderNumber: model.NewOrderNumber(c.now()), Cart: cart}
	for _, m := range methods {
		out.Options = append(out.Options, DeliveryOption{Method: m, Total: cart.Total + m.FeeMinor})
	}
	return out, nil
}

func (c *checkoutUC) SelectDelivery(ctx context.Context, chatID int64, methodID, orderNumber string) (*DeliveryStep, error) {
	m, err := c.activeDelivery(ctx, repository.NoTX, methodID)
	if err != nil {
		return nil, err
	}
	if m.RequiresAddress {
		return &DeliveryStep{Method: m, NeedsInfo: true}, nil
	}
	draft := &model.CheckoutDraft{
		ChatID:           chatID,
		OrderNumber:      orderNumber,
		DeliveryMethodID: m.ID,
		Customer:         model.PlaceholderCustomerInfo(),
		CreatedAt:        c.now(),
	}
	if err := c.drafts.Save(ctx, repository.NoTX, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return &DeliveryStep{Method: m}, nil
}

func (c *checkoutUC) CaptureCustomerInfo(ctx context.Context, chatID int64, methodID, orderNumber, text string) (model.CustomerInfo, error) {
	if _, err := c.activeDelivery(ctx, repository.NoTX, methodID); err != nil {
		return model.CustomerInfo{}, err
	}
	info := model.ParseCustomerInfo(text)
	draft := &model.CheckoutDraft{
		ChatID:           chatID,
		OrderNumber:      orderNumber,
		DeliveryMethodID: methodID,
		Customer:         info,
		CreatedAt:        c.now(),
	}
	if err := c.drafts.Save(ctx, repository.NoTX, draft); err != nil {
		return model.CustomerInfo{}, fmt.Errorf("save draft: %w", err)
	}
	return info, nil
}

func (c *checkoutUC) ConfirmInfo(ctx context.Context, chatID int64, methodID, orderNumber string) error {
	if _, err := c.activeDelivery(ctx, repository.NoTX, methodID); err != nil {
		return err
	}
	draft, err := c.drafts.Find(ctx, repository.NoTX, chatID, orderNumber)
	if err != nil {
		return err
	}
	if draft.DeliveryMethodID != methodID {
		return domain.ErrMethodUnavailable
	}
	return nil
}

func (c *checkoutUC) ListPayments(ctx context.Context) ([]*model.PaymentMethod, error) {
	ms, err := c.payments.ListActive(ctx, repository.NoTX)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return ms, err
}

func (c *checkoutUC) PaymentSummary(ctx context.Context, chatID int64, paymentMethodID, orderNumber string) (*PaymentSummary, error) {
	pm, err := c.payments.FindByID(ctx, repository.NoTX, paymentMethodID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !pm.Active) {
		return nil, domain.ErrMethodUnavailable
	}
	if err != nil {
		return nil, err
	}
	draft, err := c.drafts.Find(ctx, repository.NoTX, chatID, orderNumber)
	if err != nil {
		return nil, err
	}
	dm, err := c.activeDelivery(ctx, repository.NoTX, draft.DeliveryMethodID)
	if err != nil {
		return nil, err
	}
	cart, err := buildCart(ctx, repository.NoTX, chatID, c.carts, c.prices, c.log)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	draft.PaymentMethodID = pm.ID
	if err := c.drafts.Save(ctx, repository.NoTX, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return &PaymentSummary{
		OrderNumber: orderNumber,
		Payment:     pm,
		Delivery:    dm,
		Customer:    draft.Customer,
		Cart:        cart,
		Subtotal:    cart.Total,
		DeliveryFee: dm.FeeMinor,
		Total:       cart.Total + dm.FeeMinor,
	}, nil
}

func (c *checkoutUC) Complete(ctx context.Context, chatID int64, orderNumber string) (*CompletionResult, error) {
	defer logging.TraceDuration(c.log, "CheckoutUC.Complete")()
	if existing, err := c.orders.FindByNumber(ctx, repository.NoTX, chatID, orderNumber); err == nil {
		return &CompletionResult{Order: existing, Duplicate: true}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var order *model.Order
	err := c.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		draft, err := c.drafts.Find(ctx, tx, chatID, orderNumber)
		if err != nil {
			return err
		}
		dm, err := c.activeDelivery(ctx, tx, draft.DeliveryMethodID)
		if err != nil {
			return err
		}
		cart, err := buildCart(ctx, tx, chatID, c.carts, c.prices, c.log)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		now := c.now()
		o := &model.Order{
			ID:               ulid.Make().String(),
			Number:           orderNumber,
			ChatID:           chatID,
			Status:           model.OrderStatusAwaitingReview,
			SubtotalMinor:    cart.Total,
			DeliveryFeeMinor: dm.FeeMinor,
			TotalMinor:       cart.Total + dm.FeeMinor,
			DeliveryMethodID: dm.ID,
			PaymentMethodID:  draft.PaymentMethodID,
			Customer:         draft.Customer,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		for _, l := range cart.Lines {
			o.Items = append(o.Items, model.OrderItem{
				ProductID:      l.Product.ID,
				Name:           l.Product.Name,
				Quantity:       l.Quantity,
				UnitPriceMinor: l.UnitPrice,
			})
		}
		if err := c.orders.Create(ctx, tx, o); err != nil {
			return err
		}
		if err := c.carts.Clear(ctx, tx, chatID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if err := c.drafts.Delete(ctx, tx, chatID, orderNumber); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete draft: %w", err)
		}
		order = o
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Lost a race with another completion of the same number.
		existing, ferr := c.orders.FindByNumber(ctx, repository.NoTX, chatID, orderNumber)
		if ferr != nil {
			return nil, ferr
		}
		return &CompletionResult{Order: existing, Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}

	c.log.Info().Int64("chat_id", chatID).Str("order_number", orderNumber).Int64("total", order.TotalMinor).Msg("order created")
	return &CompletionResult{Order: order}, nil
}

func (c *checkoutUC) activeDelivery(ctx context.Context, tx repository.Tx, id string) (*model.DeliveryMethod, error) {
	m, err := c.delivery.FindByID(ctx, tx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !m.Active) {
		return nil, domain.ErrMethodUnavailable
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (c *checkoutUC) PurgeStaleDrafts(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	n, err := c.drafts.DeleteOlderThan(ctx, repository.NoTX, c.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	return n, nil
}
