package telegram

import (
	"context"
	"errors"
	"strings"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/infra/metrics"
	"telegram-shop-bot/internal/infra/session"
)

// Checkout keeps no server-side cursor: every button carries the method ids
// and the order number picked at the start screen.

func (r *Router) checkoutCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.startCheckout(ctx, ev.ChatID, "")
}

func (r *Router) startCheckout(ctx context.Context, chatID int64, notice string) error {
	r.captures.Cancel(chatID)
	st, err := r.checkout.Start(ctx, chatID)
	if errors.Is(err, domain.ErrEmptyCart) {
		return r.show(ctx, chatID, func(ctx context.Context) (screen, error) {
			kb := &keyboard{}
			kb.row(btn(r.t(ctx, chatID, "btn_catalog"), ActCategories))
			kb.row(r.mainMenuButton(ctx, chatID))
			return screen{text: r.t(ctx, chatID, "checkout_cart_empty"), kb: kb}, nil
		})
	}
	if err != nil {
		return err
	}
	metrics.IncCheckoutStage("start")

	return r.show(ctx, chatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		if len(st.Options) == 0 {
			kb.row(btn(r.t(ctx, chatID, "btn_view_cart"), ActViewCart), r.mainMenuButton(ctx, chatID))
			return screen{text: r.t(ctx, chatID, "checkout_no_delivery"), kb: kb}, nil
		}
		for _, o := range st.Options {
			label := r.t(ctx, chatID, "checkout_delivery_option", o.Method.Name, r.loc.FormatPrice(ctx, chatID, o.Total))
			kb.row(btn(label, ActDelivery, o.Method.ID, st.OrderNumber))
		}
		kb.row(btn(r.t(ctx, chatID, "btn_back"), ActViewCart), r.mainMenuButton(ctx, chatID))

		text := r.t(ctx, chatID, "checkout_title", st.OrderNumber, r.loc.FormatPrice(ctx, chatID, st.Cart.Total))
		if notice != "" {
			text = notice + "\n\n" + text
		}
		return screen{text: text, kb: kb}, nil
	})
}

func (r *Router) deliveryCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	methodID, order := tok.Arg(0), tok.Arg(1)
	step, err := r.checkout.SelectDelivery(ctx, ev.ChatID, methodID, order)
	if staleRef(err) {
		return r.startCheckout(ctx, ev.ChatID, r.t(ctx, ev.ChatID, "unavailable"))
	}
	if err != nil {
		return err
	}
	metrics.IncCheckoutStage("delivery")

	if !step.NeedsInfo {
		return r.paymentSelection(ctx, ev.ChatID, order)
	}
	r.captures.Register(ev.ChatID, session.Capture{Kind: session.CaptureCustomerInfo, MethodID: methodID, OrderNumber: order})
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_back"), ActCheckout), r.mainMenuButton(ctx, ev.ChatID))
		return screen{text: r.t(ctx, ev.ChatID, "checkout_info_prompt"), kb: kb}, nil
	})
}

// captureCustomerInfo consumes the free-text reply to the info prompt.
func (r *Router) captureCustomerInfo(ctx context.Context, ev adapter.InboundEvent, c session.Capture) error {
	info, err := r.checkout.CaptureCustomerInfo(ctx, ev.ChatID, c.MethodID, c.OrderNumber, ev.Text)
	if staleRef(err) {
		return r.startCheckout(ctx, ev.ChatID, r.t(ctx, ev.ChatID, "unavailable"))
	}
	if err != nil {
		return err
	}
	metrics.IncCheckoutStage("info")
	logFrom(ctx, r.log).Debug().
		Str("order_number", c.OrderNumber).
		Str("name", logging.Redact(info.Name, false)).
		Msg("customer info captured")

	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_confirm_info"), ActConfirmInfo, c.MethodID, c.OrderNumber))
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_reenter_info"), ActCheckout))
		kb.row(r.mainMenuButton(ctx, ev.ChatID))
		text := r.t(ctx, ev.ChatID, "checkout_confirm_info", esc(info.Name), esc(info.Phone), esc(info.Address))
		return screen{text: text, kb: kb}, nil
	})
}

func (r *Router) confirmInfoCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	order := tok.Arg(1)
	err := r.checkout.ConfirmInfo(ctx, ev.ChatID, tok.Arg(0), order)
	if staleRef(err) {
		return r.startCheckout(ctx, ev.ChatID, r.t(ctx, ev.ChatID, "unavailable"))
	}
	if err != nil {
		return err
	}
	metrics.IncCheckoutStage("confirm")
	return r.paymentSelection(ctx, ev.ChatID, order)
}

func (r *Router) paymentSelection(ctx context.Context, chatID int64, order string) error {
	methods, err := r.checkout.ListPayments(ctx)
	if err != nil {
		return err
	}
	return r.show(ctx, chatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		if len(methods) == 0 {
			kb.row(r.mainMenuButton(ctx, chatID))
			return screen{text: r.t(ctx, chatID, "checkout_no_payment"), kb: kb}, nil
		}
		for _, m := range methods {
			kb.row(btn(m.Name, ActPayment, m.ID, order))
		}
		kb.row(btn(r.t(ctx, chatID, "btn_back"), ActCheckout), r.mainMenuButton(ctx, chatID))
		return screen{text: r.t(ctx, chatID, "checkout_choose_payment", order), kb: kb}, nil
	})
}

func (r *Router) paymentCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	order := tok.Arg(1)
	sum, err := r.checkout.PaymentSummary(ctx, ev.ChatID, tok.Arg(0), order)
	if staleRef(err) || errors.Is(err, domain.ErrEmptyCart) {
		return r.startCheckout(ctx, ev.ChatID, r.t(ctx, ev.ChatID, "unavailable"))
	}
	if err != nil {
		return err
	}
	metrics.IncCheckoutStage("payment")

	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_payment_done"), ActPaid, order))
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_back"), ActCheckout), r.mainMenuButton(ctx, ev.ChatID))
		text := r.t(ctx, ev.ChatID, "checkout_payment_summary",
			order,
			r.loc.FormatPrice(ctx, ev.ChatID, sum.Subtotal),
			esc(sum.Delivery.Name),
			r.loc.FormatPrice(ctx, ev.ChatID, sum.DeliveryFee),
			r.loc.FormatPrice(ctx, ev.ChatID, sum.Total),
			esc(strings.TrimSpace(sum.Payment.Instructions)),
		)
		return screen{text: text, kb: kb}, nil
	})
}

// paidCBRoute completes the order. A repeated press for the same order
// number reports the existing order instead of creating another.
func (r *Router) paidCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	order := tok.Arg(0)
	res, err := r.checkout.Complete(ctx, ev.ChatID, order)
	if staleRef(err) || errors.Is(err, domain.ErrEmptyCart) {
		if errors.Is(err, domain.ErrEmptyCart) {
			metrics.ObserveOrder("empty_cart", 0)
		}
		return r.startCheckout(ctx, ev.ChatID, r.t(ctx, ev.ChatID, "unavailable"))
	}
	if err != nil {
		metrics.ObserveOrder("failed", 0)
		return err
	}

	notice := r.t(ctx, ev.ChatID, "order_already_confirmed", res.Order.Number)
	if res.Duplicate {
		metrics.ObserveOrder("duplicate", 0)
	} else {
		metrics.IncCheckoutStage("completed")
		metrics.ObserveOrder("created", res.Order.TotalMinor)
		notice = r.t(ctx, ev.ChatID, "order_confirmed", res.Order.Number, r.loc.FormatPrice(ctx, ev.ChatID, res.Order.TotalMinor))
	}
	return r.showMainMenu(ctx, ev.ChatID, notice)
}
