package provision

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Venue describes one tradable market and its capability flags. Wallet venues
// authenticate with a key pair instead of an API key/secret pair, which is
// what forces the fresh-wallet-per-trader policy.
type Venue struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Wallet  bool   `yaml:"wallet"`
	Testnet bool   `yaml:"testnet"`
}

// Registry maps venue identities to their capability flags.
type Registry struct {
	venues map[string]Venue
}

// builtinVenues covers the deployment's supported venues when no registry
// file is configured.
var builtinVenues = []Venue{
	{ID: "binance", Name: "Binance Futures", Wallet: false},
	{ID: "hyperliquid", Name: "Hyperliquid", Wallet: true},
	{ID: "aster", Name: "Aster", Wallet: true},
}

type venueFile struct {
	Venues []Venue `yaml:"venues"`
}

// LoadRegistry reads venue definitions from a YAML file, falling back to the
// built-in table when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	venues := builtinVenues
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read venue registry: %w", err)
		}
		var file venueFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse venue registry: %w", err)
		}
		if len(file.Venues) == 0 {
			return nil, fmt.Errorf("venue registry %s defines no venues", path)
		}
		venues = file.Venues
	}

	r := &Registry{venues: make(map[string]Venue, len(venues))}
	for _, v := range venues {
		id := strings.ToLower(strings.TrimSpace(v.ID))
		if id == "" {
			return nil, fmt.Errorf("venue registry entry with empty id")
		}
		v.ID = id
		r.venues[id] = v
	}
	return r, nil
}

// NewRegistry builds a registry from an explicit venue list (tests, tools).
func NewRegistry(venues ...Venue) *Registry {
	r := &Registry{venues: make(map[string]Venue, len(venues))}
	for _, v := range venues {
		v.ID = strings.ToLower(v.ID)
		r.venues[v.ID] = v
	}
	return r
}

// Get looks up a venue by identity.
func (r *Registry) Get(id string) (Venue, bool) {
	v, ok := r.venues[strings.ToLower(strings.TrimSpace(id))]
	return v, ok
}

// IDs returns all registered venue identities.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.venues))
	for id := range r.venues {
		ids = append(ids, id)
	}
	return ids
}
