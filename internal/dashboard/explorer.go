package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExplorerPosition is one public open position.
type ExplorerPosition struct {
	ID           string  `json:"id"`
	AgentID      string  `json:"agent_id"`
	AgentName    string  `json:"agent_name"`
	Asset        string  `json:"asset"`
	Type         string  `json:"type"` // "Long" or "Short"
	Size         float64 `json:"size"`
	Leverage     float64 `json:"leverage"`
	EntryPrice   float64 `json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`
	PnL          float64 `json:"pnl"`
	ROI          float64 `json:"roi"`
}

// ExplorerPositions is the public open-positions document.
type ExplorerPositions struct {
	Positions   []ExplorerPosition `json:"positions"`
	TotalCount  int                `json:"total_count"`
	TotalValue  float64            `json:"total_value"`
	AvgLeverage float64            `json:"avg_leverage"`
	AvgROI      float64            `json:"avg_roi"`
	LastUpdated time.Time          `json:"last_updated"`
}

// ExplorerPositions folds every open position across traders. An unreachable
// upstream degrades to an empty document rather than an error: the explorer
// page polls and recovers on its own.
func (a *Aggregator) ExplorerPositions(ctx context.Context) *ExplorerPositions {
	doc := &ExplorerPositions{
		Positions:   []ExplorerPosition{},
		LastUpdated: time.Now().UTC(),
	}

	raw, err := a.client.AllPositions(ctx)
	if err != nil {
		a.log.WithError(err).Warn("all-positions feed unavailable")
		return doc
	}

	totalValue := decimal.Zero
	totalLeverage := decimal.Zero
	totalROI := decimal.Zero
	for _, p := range raw {
		side := "Short"
		if strings.EqualFold(p.Side, "BUY") || strings.EqualFold(p.Side, "LONG") {
			side = "Long"
		}
		doc.Positions = append(doc.Positions, ExplorerPosition{
			ID:           p.TraderID + "-" + p.Symbol,
			AgentID:      p.TraderID,
			AgentName:    p.TraderName,
			Asset:        extractAsset(p.Symbol),
			Type:         side,
			Size:         p.Quantity,
			Leverage:     p.Leverage,
			EntryPrice:   p.EntryPrice,
			CurrentPrice: p.MarkPrice,
			PnL:          p.UnrealizedPnL,
			ROI:          p.UnrealizedPnLPct,
		})
		totalValue = totalValue.Add(decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(p.MarkPrice)).Abs())
		totalLeverage = totalLeverage.Add(decimal.NewFromFloat(p.Leverage))
		totalROI = totalROI.Add(decimal.NewFromFloat(p.UnrealizedPnLPct))
	}

	doc.TotalCount = len(doc.Positions)
	doc.TotalValue = round2(totalValue)
	if doc.TotalCount > 0 {
		count := decimal.NewFromInt(int64(doc.TotalCount))
		doc.AvgLeverage = round2(totalLeverage.Div(count))
		doc.AvgROI = round2(totalROI.Div(count))
	}
	return doc
}

// extractAsset strips the quote/venue suffixes from a symbol.
func extractAsset(symbol string) string {
	asset := symbol
	if i := strings.Index(asset, "-"); i >= 0 {
		asset = asset[:i]
	}
	for _, suffix := range []string{"USDT", "PERP", "USD"} {
		asset = strings.TrimSuffix(asset, suffix)
	}
	return asset
}
