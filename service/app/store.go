package app

import "github.com/google/uuid"

type Store interface {
	// Load the proxy state stored under key, found is false if there is none
	LoadState(key uint32) (state *ProxyState, found bool, err error)

	// Insert or replace the proxy state
	SaveState(*ProxyState) error

	// Insert mint
	InsertMint(*Mint) error

	// Update mint
	UpdateMint(*Mint) error

	// List mints, newest first
	ListMints(ListOptions) ([]Mint, error)

	// Get mint
	GetMint(id uuid.UUID) (*Mint, error)

	// Whether a mint was already paid with the given transaction
	PaymentSpent(transactionID string) (bool, error)
}
