package provision

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"trader-gateway/internal/backend"
)

// CreateRequest is a trader-creation request as the user states it: provider
// and venue are logical identities, not backend resource ids.
type CreateRequest struct {
	Name                 string  `json:"name" binding:"required,min=1,max=120"`
	AIModel              string  `json:"ai_model"`
	Exchange             string  `json:"exchange" binding:"required,min=1"`
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

// CreateResult is the successful workflow outcome. WalletAddress and
// NeedsDeposit exist so the caller can prompt the user for the out-of-band
// funding step before the trader can do anything.
type CreateResult struct {
	Trader        *backend.Trader `json:"trader"`
	WalletAddress string          `json:"wallet_address,omitempty"`
	IsNewWallet   bool            `json:"is_new_wallet"`
	NeedsDeposit  bool            `json:"needs_deposit"`
}

// Orchestrator sequences the trader-creation workflow: model resolution, then
// exchange/wallet provisioning, then the creation call. Steps are strictly
// ordered and all-or-nothing; nothing is rolled back on failure because an
// orphaned model or exchange configuration costs nothing idle and the model
// configuration is reusable.
type Orchestrator struct {
	resolver        *Resolver
	client          *backend.Client
	defaultProvider string
	log             *logrus.Logger
}

// NewOrchestrator wires an Orchestrator.
func NewOrchestrator(resolver *Resolver, client *backend.Client, defaultProvider string, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		resolver:        resolver,
		client:          client,
		defaultProvider: defaultProvider,
		log:             log,
	}
}

// CreateTrader runs the provisioning workflow. The cheap, likely-preexisting
// dependency (model) resolves before the irreversible one (wallet + exchange
// configuration) so a model failure never leaves a stray wallet behind.
func (o *Orchestrator) CreateTrader(ctx context.Context, token string, req CreateRequest) (*CreateResult, error) {
	if token == "" {
		return nil, backend.ErrUnauthorized
	}
	if req.Name == "" {
		return nil, fmt.Errorf("trader name is required")
	}

	provider := req.AIModel
	if provider == "" {
		provider = o.defaultProvider
	}

	modelID, err := o.resolver.ResolveAIModel(ctx, token, provider)
	if err != nil {
		return nil, &StepError{Step: StepModel, Err: err}
	}

	exchange, err := o.resolver.ResolveExchange(ctx, token, req.Exchange)
	if err != nil {
		return nil, &StepError{Step: StepExchange, Err: err}
	}
	if exchange.NewWallet {
		// The address must be visible at least once: funds have to reach it
		// out-of-band before trading can begin.
		o.log.WithFields(logrus.Fields{
			"trader":      req.Name,
			"exchange_id": exchange.ExchangeID,
			"wallet":      exchange.WalletAddress,
		}).Info("minted wallet for new trader; deposit required before trading")
	}

	spec := backend.TraderSpec{
		Name:                 req.Name,
		AIModelID:            modelID,
		ExchangeID:           exchange.ExchangeID,
		InitialBalance:       req.InitialBalance,
		ScanIntervalMinutes:  req.ScanIntervalMinutes,
		BTCETHLeverage:       req.BTCETHLeverage,
		AltcoinLeverage:      req.AltcoinLeverage,
		TradingSymbols:       req.TradingSymbols,
		CustomPrompt:         req.CustomPrompt,
		OverrideBasePrompt:   req.OverrideBasePrompt,
		SystemPromptTemplate: req.SystemPromptTemplate,
		IsCrossMargin:        req.IsCrossMargin,
		UseCoinPool:          req.UseCoinPool,
		UseOITop:             req.UseOITop,
	}

	trader, err := o.client.CreateTrader(ctx, token, spec)
	if err != nil {
		return nil, &StepError{Step: StepCreate, Err: err}
	}

	o.log.WithFields(logrus.Fields{
		"trader_id": trader.TraderID,
		"name":      req.Name,
	}).Info("trader created")

	return &CreateResult{
		Trader:        trader,
		WalletAddress: exchange.WalletAddress,
		IsNewWallet:   exchange.NewWallet,
		NeedsDeposit:  exchange.NewWallet && exchange.WalletAddress != "",
	}, nil
}
