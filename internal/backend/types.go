package backend

// AIModel is one inference-provider configuration scoped to the user account.
type AIModel struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	Provider        string `json:"provider"`
	Enabled         bool   `json:"enabled"`
	CustomAPIURL    string `json:"custom_api_url,omitempty"`
	CustomModelName string `json:"custom_model_name,omitempty"`
}

// AIModelUpdate is the upsert payload for a model configuration.
type AIModelUpdate struct {
	Enabled         bool   `json:"enabled"`
	APIKey          string `json:"api_key"`
	CustomAPIURL    string `json:"custom_api_url,omitempty"`
	CustomModelName string `json:"custom_model_name,omitempty"`
}

// Exchange is a venue credential set. For wallet venues APIKey carries the
// generated private key and HyperliquidWalletAddr the public address.
type Exchange struct {
	ID                    string `json:"id"`
	Name                  string `json:"name,omitempty"`
	Type                  string `json:"type"`
	Enabled               bool   `json:"enabled"`
	APIKey                string `json:"api_key,omitempty"`
	SecretKey             string `json:"secret_key,omitempty"`
	Testnet               bool   `json:"testnet"`
	HyperliquidWalletAddr string `json:"hyperliquid_wallet_addr,omitempty"`
}

// TraderSpec is the full trader create/update payload. Updates resend the
// whole field set; the backend has no partial-patch semantics.
type TraderSpec struct {
	Name                 string  `json:"name"`
	AIModelID            string  `json:"ai_model_id"`
	ExchangeID           string  `json:"exchange_id"`
	InitialBalance       float64 `json:"initial_balance"`
	ScanIntervalMinutes  int     `json:"scan_interval_minutes"`
	BTCETHLeverage       float64 `json:"btc_eth_leverage"`
	AltcoinLeverage      float64 `json:"altcoin_leverage"`
	TradingSymbols       string  `json:"trading_symbols"`
	CustomPrompt         string  `json:"custom_prompt"`
	OverrideBasePrompt   bool    `json:"override_base_prompt"`
	SystemPromptTemplate string  `json:"system_prompt_template"`
	IsCrossMargin        bool    `json:"is_cross_margin"`
	UseCoinPool          bool    `json:"use_coin_pool"`
	UseOITop             bool    `json:"use_oi_top"`
}

// Trader is the backend's summary record for a trading agent.
type Trader struct {
	TraderID       string  `json:"trader_id"`
	TraderName     string  `json:"trader_name"`
	AIModel        string  `json:"ai_model"`
	ExchangeID     string  `json:"exchange_id"`
	IsRunning      bool    `json:"is_running"`
	InitialBalance float64 `json:"initial_balance"`
}

// TraderConfig is the detailed configuration document for one trader.
type TraderConfig struct {
	TraderID string `json:"trader_id"`
	TraderSpec
	IsRunning bool   `json:"is_running"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Account is the live balance snapshot for one trader.
type Account struct {
	TotalWalletBalance float64 `json:"total_wallet_balance"`
	TotalEquity        float64 `json:"total_equity"`
	TotalPnL           float64 `json:"total_pnl"`
	TotalPnLPct        float64 `json:"total_pnl_pct"`
	PositionCount      int     `json:"position_count"`
	MarginUsedPct      float64 `json:"margin_used_pct"`
}

// Position is one open position as reported by the backend.
type Position struct {
	TraderID         string  `json:"trader_id,omitempty"`
	TraderName       string  `json:"trader_name,omitempty"`
	Symbol           string  `json:"symbol"`
	Side             string  `json:"side"`
	EntryPrice       float64 `json:"entry_price"`
	MarkPrice        float64 `json:"mark_price"`
	PositionAmt      float64 `json:"position_amt"`
	Quantity         float64 `json:"quantity"`
	Leverage         float64 `json:"leverage"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
	LiquidationPrice float64 `json:"liquidation_price,omitempty"`
	MarginUsed       float64 `json:"margin_used,omitempty"`
}

// Performance carries the backend's analytics fields. Pointers keep absent
// fields distinguishable from zero values when folded into metrics.
type Performance struct {
	WinRate     *float64 `json:"win_rate"`
	TotalTrades *int     `json:"total_trades"`
	SharpeRatio *float64 `json:"sharpe_ratio"`
	MaxDrawdown *float64 `json:"max_drawdown"`
}

// CompetitionTrader is one leaderboard row from /api/competition.
type CompetitionTrader struct {
	TraderID      string  `json:"trader_id"`
	TraderName    string  `json:"trader_name"`
	AIModel       string  `json:"ai_model"`
	Exchange      string  `json:"exchange"`
	TotalEquity   float64 `json:"total_equity"`
	TotalPnL      float64 `json:"total_pnl"`
	TotalPnLPct   float64 `json:"total_pnl_pct"`
	PositionCount int     `json:"position_count"`
	MarginUsedPct float64 `json:"margin_used_pct"`
	IsRunning     bool    `json:"is_running"`
}
