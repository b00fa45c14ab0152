package dashboard

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardSortsDescendingByPnL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/competition", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"traders":[
			{"trader_id":"a","trader_name":"Alice's Agent","ai_model":"deepseek","total_pnl":5,"total_pnl_pct":0.5,"total_equity":1005,"position_count":2,"is_running":true},
			{"trader_id":"b","trader_name":"Bob - Momentum","ai_model":"openai","total_pnl":10,"total_pnl_pct":1,"total_equity":1010,"position_count":1},
			{"trader_id":"c","trader_name":"Carol","ai_model":"qwen","total_pnl":10,"total_pnl_pct":1,"total_equity":1010,"position_count":0},
			{"trader_id":"d","trader_name":"Dave's Bot","ai_model":"deepseek","total_pnl":-3,"total_pnl_pct":-0.3,"total_equity":997,"position_count":4}
		]}`))
	})
	a := newTestAggregator(t, mux)

	board, err := a.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, board.Agents, 4)
	assert.Equal(t, 4, board.TotalCount)

	// Descending by PnL; the b/c tie keeps upstream order (stable sort).
	ids := []string{board.Agents[0].ID, board.Agents[1].ID, board.Agents[2].ID, board.Agents[3].ID}
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids)

	top := board.Agents[0]
	assert.Equal(t, "Bob", top.Owner)
	assert.Equal(t, 1, top.Trades)
	assert.Equal(t, 50.5, top.WinRate)
	assert.Equal(t, 10100.0, top.Volume)

	// Zero positions: no win-rate signal and no volume.
	idle := board.Agents[1]
	assert.Equal(t, 0.0, idle.WinRate)
	assert.Equal(t, 0.0, idle.Volume)
	assert.Equal(t, "Anonymous", idle.Owner)
}

func TestLeaderboardPropagatesUpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/competition", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	a := newTestAggregator(t, mux)

	_, err := a.Leaderboard(context.Background())
	require.Error(t, err)
}

func TestParseOwner(t *testing.T) {
	cases := map[string]string{
		"Alice's Agent":  "Alice",
		"Bob - Momentum": "Bob",
		"Carol":          "Anonymous",
		"Dave-NoSpace":   "Dave",
		"'s broken":      "Anonymous",
		"":               "Anonymous",
	}
	for name, want := range cases {
		assert.Equal(t, want, parseOwner(name), "name %q", name)
	}
}

func TestEstimateWinRate(t *testing.T) {
	assert.Equal(t, 0.0, estimateWinRate(80, 0))
	assert.Equal(t, 55.0, estimateWinRate(10, 3))
	assert.Equal(t, 100.0, estimateWinRate(150, 1))
	assert.Equal(t, 0.0, estimateWinRate(-120, 1))
}

func TestEstimateVolume(t *testing.T) {
	assert.Equal(t, 0.0, estimateVolume(1000, 0))
	assert.Equal(t, 30000.0, estimateVolume(1000, 3))
}
