// Package wallet mints fresh key pairs for wallet-based venues.
package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is one freshly generated key pair. The private key is never stored
// here; the caller places it inside the exchange configuration it creates, and
// the address must be surfaced to the user so funds can be deposited.
type Wallet struct {
	Address    string
	PrivateKey string
}

// Generate creates a secp256k1 key pair from a cryptographically secure
// random source.
func Generate() (Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return Wallet{}, fmt.Errorf("generate key: %w", err)
	}
	return Wallet{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}, nil
}
