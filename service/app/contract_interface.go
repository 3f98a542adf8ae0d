package app

import (
	"context"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
)

// Contracts are the collaborator addresses of a mint, read from the proxy
// state when the mint starts.
type Contracts struct {
	Issuing common.FlowAddress
	Catalog common.FlowAddress
}

// IssuingContract is the remote NFT contract the proxy mints on.
// Every call is a blocking round trip bounded by the implementation's
// computational and time budget. The addresses are passed on each call as
// the administrator may change them at any time.
type IssuingContract interface {
	// Number of assets that can be attached to a token
	TotalAssets(ctx context.Context, contracts Contracts) (uint32, error)
	Mint(ctx context.Context, contracts Contracts, payment common.Amount) (MintReceipt, error)
	TotalSupply(ctx context.Context, contracts Contracts) (uint64, error)
	AddAssetToToken(ctx context.Context, contracts Contracts, tokenID uint64, assetID uint32) error
	Transfer(ctx context.Context, contracts Contracts, to common.FlowAddress, tokenID uint64) error
}

// BlockClock reports the timestamp of the latest block, in milliseconds.
type BlockClock interface {
	BlockTimestamp(ctx context.Context) (uint64, error)
}

// PaymentVerifier confirms the fee a caller attached to a mint.
type PaymentVerifier interface {
	// VerifyPayment returns the amount 'caller' moved to the proxy account in
	// the sealed transaction 'transactionID'. Errors without a proxy error
	// kind mean the transaction is not a valid payment.
	VerifyPayment(ctx context.Context, caller common.FlowAddress, transactionID string) (VerifiedPayment, error)
}

type mintKey struct{}

// WithMint tags remote calls made on behalf of a mint.
func WithMint(ctx context.Context, m *Mint) context.Context {
	return context.WithValue(ctx, mintKey{}, m)
}

// MintFromContext returns the mint a remote call is made for, if any.
func MintFromContext(ctx context.Context) (*Mint, bool) {
	m, ok := ctx.Value(mintKey{}).(*Mint)
	return m, ok && m != nil
}
