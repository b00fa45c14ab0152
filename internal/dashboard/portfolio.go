package dashboard

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"trader-gateway/internal/backend"
)

// AgentSummary is one trader folded with its live account data for the
// portfolio view. Sub-read failures degrade to configuration-only values.
type AgentSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Status       string   `json:"status"` // "active" or "paused"
	TotalActions int      `json:"total_actions"`
	Deposit      float64  `json:"deposit"`
	Assets       []string `json:"assets"`
	PnL          float64  `json:"pnl"`
	PnLPercent   float64  `json:"pnl_percent"`
}

// PortfolioMetrics are the account-level totals across all agents.
type PortfolioMetrics struct {
	TotalCapital  float64 `json:"total_capital"`
	TotalPnL      float64 `json:"total_pnl"`
	CurrentEquity float64 `json:"current_equity"`
	PnLPercent    float64 `json:"pnl_percent"`
}

// Portfolio is the authenticated user's trader overview.
type Portfolio struct {
	Agents      []AgentSummary   `json:"agents"`
	TotalCount  int              `json:"total_count"`
	ActiveCount int              `json:"active_count"`
	Metrics     PortfolioMetrics `json:"metrics"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Portfolio lists the user's traders and enriches each with config and
// account reads issued concurrently. A failed enrichment leaves that agent
// with config-only values; it never fails the whole view.
func (a *Aggregator) Portfolio(ctx context.Context, token string) (*Portfolio, error) {
	traders, err := a.client.MyTraders(ctx, token)
	if err != nil {
		return nil, err
	}

	agents := make([]AgentSummary, len(traders))
	var wg sync.WaitGroup
	for i, t := range traders {
		wg.Add(1)
		go func(i int, t backend.Trader) {
			defer wg.Done()
			agents[i] = a.summarize(ctx, token, t)
		}(i, t)
	}
	wg.Wait()

	capital := decimal.Zero
	pnl := decimal.Zero
	active := 0
	for _, agent := range agents {
		capital = capital.Add(decimal.NewFromFloat(agent.Deposit))
		pnl = pnl.Add(decimal.NewFromFloat(agent.PnL))
		if agent.Status == "active" {
			active++
		}
	}
	equity := capital.Add(pnl)
	pnlPct := decimal.Zero
	if capital.IsPositive() {
		pnlPct = pnl.Div(capital).Mul(decimal.NewFromInt(100))
	}

	return &Portfolio{
		Agents:      agents,
		TotalCount:  len(agents),
		ActiveCount: active,
		Metrics: PortfolioMetrics{
			TotalCapital:  round2(capital),
			TotalPnL:      round2(pnl),
			CurrentEquity: round2(equity),
			PnLPercent:    round2(pnlPct),
		},
		LastUpdated: time.Now().UTC(),
	}, nil
}

// summarize folds one trader with its config and account reads.
func (a *Aggregator) summarize(ctx context.Context, token string, t backend.Trader) AgentSummary {
	status := "paused"
	if t.IsRunning {
		status = "active"
	}
	agent := AgentSummary{
		ID:          t.TraderID,
		Name:        t.TraderName,
		Description: t.AIModel + " trading on " + t.ExchangeID,
		Status:      status,
		Deposit:     t.InitialBalance,
		Assets:      []string{},
	}

	cctx, cancel := context.WithTimeout(ctx, a.subReadTimeout)
	defer cancel()
	if cfg, err := a.client.TraderConfig(cctx, token, t.TraderID); err == nil {
		agent.Assets = parseAssets(cfg.TradingSymbols)
	} else {
		a.log.WithError(err).WithField("trader_id", t.TraderID).Warn("trader config unavailable")
	}

	actx, cancel2 := context.WithTimeout(ctx, a.subReadTimeout)
	defer cancel2()
	if raw, err := a.client.Account(actx, t.TraderID); err == nil && present(raw) {
		var acct backend.Account
		if json.Unmarshal(raw, &acct) == nil {
			agent.PnL = acct.TotalPnL
			agent.PnLPercent = acct.TotalPnLPct
			agent.TotalActions = acct.PositionCount
		}
	} else if err != nil {
		a.log.WithError(err).WithField("trader_id", t.TraderID).Warn("trader account unavailable")
	}

	return agent
}

// parseAssets turns "BTCUSDT,ETHUSDT" into ["BTC", "ETH"].
func parseAssets(symbols string) []string {
	assets := []string{}
	for _, s := range strings.Split(symbols, ",") {
		s = strings.TrimSuffix(strings.TrimSpace(s), "USDT")
		if s != "" {
			assets = append(assets, s)
		}
	}
	return assets
}
