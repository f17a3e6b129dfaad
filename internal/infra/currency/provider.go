package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

var ErrBadResponse = errors.New("rates endpoint returned an unusable payload")

// Store is a shared cache for rate tables; redis.RatesCache implements it.
type Store interface {
	Get(ctx context.Context, base string) (map[string]float64, bool, error)
	Set(ctx context.Context, base string, rates map[string]float64) error
}

var _ adapter.RateProvider = (*Provider)(nil)

// Provider fetches exchange rates over HTTP, sharing results through Store and
// collapsing concurrent fetches for the same base.
type Provider struct {
	client *http.Client
	urlFmt string
	store  Store
	group  singleflight.Group
	log    *zerolog.Logger
	mu     sync.RWMutex
	lastOK map[string]map[string]float64
}

func NewProvider(cfg config.CurrencyConfig, store Store, logger *zerolog.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	l := logger.With().Str("component", "CurrencyProvider").Logger()
	return &Provider{
		client: &http.Client{Timeout: timeout},
		urlFmt: cfg.RatesURL,
		store:  store,
		log:    &l,
		lastOK: make(map[string]map[string]float64),
	}
}

// Rates returns 1 base = rates[code]. The base itself is always present with rate 1.
// When the endpoint fails, the last good table for base is served if there is one.
func (p *Provider) Rates(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(base)
	if p.store != nil {
		if rates, ok, err := p.store.Get(ctx, base); err == nil && ok {
			return rates, nil
		} else if err != nil {
			p.log.Warn().Err(err).Msg("rates cache read failed")
		}
	}

	v, err, _ := p.group.Do(base, func() (interface{}, error) {
		return p.fetch(ctx, base)
	})
	if err != nil {
		metrics.IncCurrencyFetch("error")
		if stale := p.stale(base); stale != nil {
			p.log.Warn().Err(err).Str("base", base).Msg("serving stale rates")
			return stale, nil
		}
		return nil, err
	}
	metrics.IncCurrencyFetch("ok")
	rates := v.(map[string]float64)

	p.mu.Lock()
	p.lastOK[base] = rates
	p.mu.Unlock()
	if p.store != nil {
		if err := p.store.Set(ctx, base, rates); err != nil {
			p.log.Warn().Err(err).Msg("rates cache write failed")
		}
	}
	return rates, nil
}

func (p *Provider) stale(base string) map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastOK[base]
}

func (p *Provider) fetch(ctx context.Context, base string) (map[string]float64, error) {
	if p.urlFmt == "" {
		return nil, fmt.Errorf("rates url not configured")
	}
	url := p.urlFmt
	if strings.Contains(url, "%s") {
		url = fmt.Sprintf(url, base)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read rates: %w", err)
	}
	return parseRates(body, base)
}

// parseRates accepts {"result":"success","rates":{...}} and plain {"rates":{...}} payloads.
func parseRates(body []byte, base string) (map[string]float64, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrBadResponse
	}
	if res := gjson.GetBytes(body, "result"); res.Exists() && res.String() != "success" {
		return nil, fmt.Errorf("%w: result %q", ErrBadResponse, res.String())
	}
	node := gjson.GetBytes(body, "rates")
	if !node.IsObject() {
		return nil, ErrBadResponse
	}
	rates := make(map[string]float64)
	node.ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.Number && v.Float() > 0 {
			rates[strings.ToUpper(k.String())] = v.Float()
		}
		return true
	})
	rates[base] = 1
	return rates, nil
}
