// Package dashboard assembles read-side views by fanning out parallel reads
// to the trading backend and folding the results. Sub-read failures degrade
// to absent sections; a partially-populated view is a success.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"trader-gateway/internal/backend"
)

// ErrTraderNotFound is terminal: the view cannot exist without its trader.
var ErrTraderNotFound = errors.New("trader not found")

// Aggregator fans out reads to the backend client.
type Aggregator struct {
	client         *backend.Client
	subReadTimeout time.Duration
	log            *logrus.Logger
}

// NewAggregator wires an Aggregator. subReadTimeout bounds each individual
// fan-out read so one slow upstream cannot stall the others.
func NewAggregator(client *backend.Client, subReadTimeout time.Duration, log *logrus.Logger) *Aggregator {
	if subReadTimeout <= 0 {
		subReadTimeout = 5 * time.Second
	}
	return &Aggregator{client: client, subReadTimeout: subReadTimeout, log: log}
}

// Dashboard is the derived, never-persisted view for one trader.
type Dashboard struct {
	Success  bool                  `json:"success"`
	Config   *backend.TraderConfig `json:"config"`
	Live     LiveData              `json:"live"`
	Metrics  Metrics               `json:"metrics"`
	Metadata Metadata              `json:"metadata"`
}

// LiveData carries the provider-shaped documents untouched.
type LiveData struct {
	Account       json.RawMessage `json:"account"`
	Positions     json.RawMessage `json:"positions"`
	EquityHistory json.RawMessage `json:"equity_history"`
	Performance   json.RawMessage `json:"performance"`
	Statistics    json.RawMessage `json:"statistics"`
}

// Metrics are derived at request time, rounded to cents. The performance
// fields stay pointers so an unavailable analytics read renders as null
// rather than a fake zero.
type Metrics struct {
	CurrentEquity      float64  `json:"current_equity"`
	InitialBalance     float64  `json:"initial_balance"`
	TotalPnL           float64  `json:"total_pnl"`
	TotalPnLPercent    float64  `json:"total_pnl_percent"`
	OpenPositionsCount int      `json:"open_positions_count"`
	TotalPositionValue float64  `json:"total_position_value"`
	WinRate            *float64 `json:"win_rate"`
	TotalTrades        *int     `json:"total_trades"`
	SharpeRatio        *float64 `json:"sharpe_ratio"`
	MaxDrawdown        *float64 `json:"max_drawdown"`
}

// Availability reports which live sections actually arrived.
type Availability struct {
	Account       bool `json:"account"`
	Positions     bool `json:"positions"`
	EquityHistory bool `json:"equity_history"`
	Performance   bool `json:"performance"`
	Statistics    bool `json:"statistics"`
}

// Metadata describes the assembled view.
type Metadata struct {
	LastUpdated      time.Time    `json:"last_updated"`
	DataAvailability Availability `json:"data_availability"`
}

// BuildDashboard assembles the view for one trader. Only a missing trader
// fails the call; every live read degrades independently.
func (a *Aggregator) BuildDashboard(ctx context.Context, token, traderID string) (*Dashboard, error) {
	cfg, err := a.client.TraderConfig(ctx, token, traderID)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.Status == 404 {
			return nil, ErrTraderNotFound
		}
		return nil, err
	}

	live := a.fanOut(ctx, traderID)

	var acct backend.Account
	acctOK := present(live.Account) && json.Unmarshal(live.Account, &acct) == nil

	var positions []backend.Position
	if present(live.Positions) {
		_ = json.Unmarshal(live.Positions, &positions)
	}

	var perf backend.Performance
	perfOK := present(live.Performance) && json.Unmarshal(live.Performance, &perf) == nil

	initial := decimal.NewFromFloat(cfg.InitialBalance)
	current := initial
	// A zero balance means the snapshot never reflected a funded account;
	// fall back to the configured starting point, like an absent snapshot.
	if acctOK && acct.TotalWalletBalance != 0 {
		current = decimal.NewFromFloat(acct.TotalWalletBalance)
	}
	pnl := current.Sub(initial)
	pnlPct := decimal.Zero
	if initial.IsPositive() {
		pnlPct = pnl.Div(initial).Mul(decimal.NewFromInt(100))
	}

	notional := decimal.Zero
	for _, p := range positions {
		amt := decimal.NewFromFloat(p.PositionAmt).Mul(decimal.NewFromFloat(p.MarkPrice))
		notional = notional.Add(amt.Abs())
	}

	metrics := Metrics{
		CurrentEquity:      round2(current),
		InitialBalance:     round2(initial),
		TotalPnL:           round2(pnl),
		TotalPnLPercent:    round2(pnlPct),
		OpenPositionsCount: len(positions),
		TotalPositionValue: round2(notional),
	}
	if perfOK {
		metrics.WinRate = perf.WinRate
		metrics.TotalTrades = perf.TotalTrades
		metrics.SharpeRatio = perf.SharpeRatio
		metrics.MaxDrawdown = perf.MaxDrawdown
	}

	return &Dashboard{
		Success: true,
		Config:  cfg,
		Live:    live,
		Metrics: metrics,
		Metadata: Metadata{
			LastUpdated: time.Now().UTC(),
			DataAvailability: Availability{
				Account:       acctOK,
				Positions:     len(positions) > 0,
				EquityHistory: present(live.EquityHistory),
				Performance:   perfOK,
				Statistics:    present(live.Statistics),
			},
		},
	}, nil
}

// fanOut issues the five live reads concurrently, each with its own timeout.
// Completion of one never blocks or cancels another.
func (a *Aggregator) fanOut(ctx context.Context, traderID string) LiveData {
	type fetch func(context.Context, string) (json.RawMessage, error)
	sections := []struct {
		name string
		f    fetch
	}{
		{"account", a.client.Account},
		{"positions", a.client.Positions},
		{"equity_history", a.client.EquityHistory},
		{"performance", a.client.Performance},
		{"statistics", a.client.Statistics},
	}

	results := make([]json.RawMessage, len(sections))
	var wg sync.WaitGroup
	for i, s := range sections {
		wg.Add(1)
		go func(i int, name string, f fetch) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, a.subReadTimeout)
			defer cancel()
			raw, err := f(sctx, traderID)
			if err != nil {
				a.log.WithError(err).WithFields(logrus.Fields{
					"trader_id": traderID,
					"section":   name,
				}).Warn("dashboard section unavailable")
				return
			}
			results[i] = raw
		}(i, s.name, s.f)
	}
	wg.Wait()

	return LiveData{
		Account:       results[0],
		Positions:     results[1],
		EquityHistory: results[2],
		Performance:   results[3],
		Statistics:    results[4],
	}
}

// present reports whether a raw section carries data. A literal JSON null or
// empty array counts as absent for availability purposes.
func present(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "[]", "{}":
		return false
	}
	return true
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
