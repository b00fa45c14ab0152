// Package provision turns logical resource identities (AI provider names,
// venue names) into concrete backend resource ids, creating what is absent,
// and sequences the trader-creation workflow on top.
package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"trader-gateway/internal/backend"
	"trader-gateway/internal/wallet"
	"trader-gateway/pkg/secrets"
)

// ProviderSecrets carries the server-configured credentials used to create a
// model configuration the first time a provider is requested.
type ProviderSecrets struct {
	Keys   map[string]string // provider -> API key
	URLs   map[string]string // provider -> custom inference endpoint
	Models map[string]string // provider -> custom model name
}

// Resolver implements the find-by-identity-else-create pattern for AI-model
// configurations and the per-venue exchange policies.
type Resolver struct {
	client    *backend.Client
	registry  *Registry
	providers ProviderSecrets
	log       *logrus.Logger

	shared venuePolicy
	fresh  *freshWalletPolicy
}

// NewResolver wires a Resolver. sealer may be nil, in which case secrets are
// forwarded unsealed.
func NewResolver(client *backend.Client, registry *Registry, providers ProviderSecrets, sealer *secrets.Sealer, log *logrus.Logger) *Resolver {
	return &Resolver{
		client:    client,
		registry:  registry,
		providers: providers,
		log:       log,
		shared:    &sharedCredentialPolicy{client: client},
		fresh: &freshWalletPolicy{
			client:   client,
			sealer:   sealer,
			generate: wallet.Generate,
			now:      time.Now,
		},
	}
}

// ResolveAIModel returns the backend id of an enabled model configuration for
// provider, creating one from server-configured secrets when absent. Model
// configurations are account-level and shared across traders, so an existing
// match performs zero writes.
func (r *Resolver) ResolveAIModel(ctx context.Context, token, provider string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "", fmt.Errorf("empty AI provider")
	}

	models, err := r.client.ListModels(ctx, token)
	if err != nil {
		return "", err
	}
	if id := matchModel(models, provider); id != "" {
		return id, nil
	}

	key, ok := r.providers.Keys[provider]
	if !ok || key == "" {
		return "", &MissingConfigError{Name: strings.ToUpper(provider) + "_API_KEY"}
	}
	if r.fresh.sealer != nil {
		sealed, err := r.fresh.sealer.Seal(key)
		if err != nil {
			return "", fmt.Errorf("seal provider key: %w", err)
		}
		key = sealed
	}

	upd := backend.AIModelUpdate{
		Enabled:         true,
		APIKey:          key,
		CustomAPIURL:    r.providers.URLs[provider],
		CustomModelName: r.providers.Models[provider],
	}
	if err := r.client.UpdateModel(ctx, token, provider, upd); err != nil {
		return "", err
	}
	r.log.WithField("provider", provider).Info("provisioned AI model configuration")

	// Re-list to pick up the backend-assigned id, which may differ from the
	// provider name.
	models, err = r.client.ListModels(ctx, token)
	if err != nil {
		return "", err
	}
	if id := matchModel(models, provider); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("model %q not visible after provisioning", provider)
}

// matchModel scans provider-first, then falls back to an id match. Duplicates
// are tolerated; the first provider match wins.
func matchModel(models []backend.AIModel, provider string) string {
	for _, m := range models {
		if strings.ToLower(m.Provider) == provider {
			return m.ID
		}
	}
	for _, m := range models {
		if strings.ToLower(m.ID) == provider {
			return m.ID
		}
	}
	return ""
}

// ResolveExchange resolves a venue identity into an exchange configuration id
// using the policy selected by the venue's capability flags.
func (r *Resolver) ResolveExchange(ctx context.Context, token, venueID string) (ExchangeResolution, error) {
	venue, ok := r.registry.Get(venueID)
	if !ok {
		return ExchangeResolution{}, fmt.Errorf("%w: %s", ErrUnknownVenue, venueID)
	}
	if venue.Wallet {
		return r.fresh.resolve(ctx, token, venue)
	}
	return r.shared.resolve(ctx, token, venue)
}
