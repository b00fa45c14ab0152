package dashboard

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"
)

// LeaderboardEntry is one ranked public trader.
type LeaderboardEntry struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Owner     string  `json:"owner"`
	Model     string  `json:"model"`
	PnL       float64 `json:"pnl"`
	ROI       float64 `json:"roi"`
	Trades    int     `json:"trades"`
	WinRate   float64 `json:"win_rate"`
	Volume    float64 `json:"volume"`
	IsRunning bool    `json:"is_running"`
}

// Leaderboard is the public ranking document.
type Leaderboard struct {
	Agents      []LeaderboardEntry `json:"agents"`
	TotalCount  int                `json:"total_count"`
	LastUpdated time.Time          `json:"last_updated"`
}

// Leaderboard folds the competition feed into ranking entries sorted strictly
// descending by PnL. The sort is stable, so ties keep the upstream order.
func (a *Aggregator) Leaderboard(ctx context.Context) (*Leaderboard, error) {
	traders, err := a.client.Competition(ctx)
	if err != nil {
		return nil, err
	}

	agents := make([]LeaderboardEntry, 0, len(traders))
	for _, t := range traders {
		agents = append(agents, LeaderboardEntry{
			ID:    t.TraderID,
			Name:  t.TraderName,
			Owner: parseOwner(t.TraderName),
			Model: t.AIModel,
			PnL:   t.TotalPnL,
			ROI:   t.TotalPnLPct,
			// Position count stands in for trade count until the backend
			// reports executed trades.
			Trades:    t.PositionCount,
			WinRate:   estimateWinRate(t.TotalPnLPct, t.PositionCount),
			Volume:    estimateVolume(t.TotalEquity, t.PositionCount),
			IsRunning: t.IsRunning,
		})
	}

	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].PnL > agents[j].PnL
	})

	return &Leaderboard{
		Agents:      agents,
		TotalCount:  len(agents),
		LastUpdated: time.Now().UTC(),
	}, nil
}

var (
	possessiveOwner = regexp.MustCompile(`^([^']+)'s`)
	dashOwner       = regexp.MustCompile(`^([^-]+)\s*-`)
)

// parseOwner extracts an owner handle from trader names shaped like
// "Owner's Trader" or "Owner - Trader".
func parseOwner(name string) string {
	if m := possessiveOwner.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := dashOwner.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "Anonymous"
}
