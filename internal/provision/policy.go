package provision

import (
	"context"
	"fmt"
	"time"

	"trader-gateway/internal/backend"
	"trader-gateway/internal/wallet"
	"trader-gateway/pkg/secrets"
)

// ExchangeResolution is the outcome of resolving a venue into a concrete
// exchange configuration id.
type ExchangeResolution struct {
	ExchangeID    string
	WalletAddress string
	NewWallet     bool
}

// venuePolicy turns a venue identity into an exchange configuration. The
// policy split exists so the fresh-wallet rule stays an explicit, swappable
// object rather than inline conditionals.
type venuePolicy interface {
	resolve(ctx context.Context, token string, venue Venue) (ExchangeResolution, error)
}

// sharedCredentialPolicy covers API-key venues: the user configured the venue
// once and every trader reuses it. Resolution only validates existence.
type sharedCredentialPolicy struct {
	client *backend.Client
}

func (p *sharedCredentialPolicy) resolve(ctx context.Context, token string, venue Venue) (ExchangeResolution, error) {
	configs, err := p.client.ListExchanges(ctx, token)
	if err != nil {
		return ExchangeResolution{}, err
	}
	for _, ex := range configs {
		if ex.ID == venue.ID {
			return ExchangeResolution{ExchangeID: ex.ID}, nil
		}
	}
	return ExchangeResolution{}, fmt.Errorf("%w: %s", ErrExchangeNotConfigured, venue.ID)
}

// freshWalletPolicy covers wallet venues: custody keys must not be shared
// across independently-controlled traders, so every invocation mints a new
// wallet and a new exchange configuration. There is deliberately no reuse
// lookup here.
type freshWalletPolicy struct {
	client   *backend.Client
	sealer   *secrets.Sealer
	generate func() (wallet.Wallet, error)
	now      func() time.Time
}

func (p *freshWalletPolicy) resolve(ctx context.Context, token string, venue Venue) (ExchangeResolution, error) {
	w, err := p.generate()
	if err != nil {
		return ExchangeResolution{}, fmt.Errorf("mint wallet: %w", err)
	}

	key := w.PrivateKey
	if p.sealer != nil {
		sealed, err := p.sealer.Seal(key)
		if err != nil {
			return ExchangeResolution{}, fmt.Errorf("seal wallet key: %w", err)
		}
		key = sealed
	}

	// Timestamp suffix keeps the id unique per trader and distinct from the
	// venue's base identifier.
	exchangeID := fmt.Sprintf("%s_%d", venue.ID, p.now().Unix())
	ex := backend.Exchange{
		ID:                    exchangeID,
		Name:                  venue.Name,
		Type:                  venue.ID,
		Enabled:               true,
		APIKey:                key,
		Testnet:               venue.Testnet,
		HyperliquidWalletAddr: w.Address,
	}
	if err := p.client.UpsertExchange(ctx, token, ex); err != nil {
		return ExchangeResolution{}, err
	}

	return ExchangeResolution{
		ExchangeID:    exchangeID,
		WalletAddress: w.Address,
		NewWallet:     true,
	}, nil
}
