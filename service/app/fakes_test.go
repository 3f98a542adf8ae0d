package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/transactions"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	testAdmin   = common.FlowAddressFromString("0xf8d6e0586b0a20c7")
	testCaller  = common.FlowAddressFromString("0x179b6b1cb6755e31")
	testIssuing = common.FlowAddressFromString("0x01cf0e2f2f715450")
	testCatalog = common.FlowAddressFromString("0xf3fcd2c1a78f5eee")
	testPrice   = common.Amount(100_000_000)
)

const (
	callTotalAssets = "total_assets"
	callMint        = "mint"
	callTotalSupply = "total_supply"
	callAddAsset    = "add_asset_to_token"
	callTransfer    = "transfer"
)

// fakeContract is an in-memory issuing contract numbering tokens from 1.
type fakeContract struct {
	mu sync.Mutex

	totalAssets uint32
	supply      uint64
	owners      map[uint64]common.FlowAddress
	assets      map[uint64][]uint32
	announce    bool
	errs        map[string]error
	calls       []string
	contracts   []Contracts

	// If set, TotalAssets signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func newFakeContract(totalAssets uint32) *fakeContract {
	return &fakeContract{
		totalAssets: totalAssets,
		owners:      make(map[uint64]common.FlowAddress),
		assets:      make(map[uint64][]uint32),
		errs:        make(map[string]error),
	}
}

func (c *fakeContract) record(call string, contracts Contracts) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	c.contracts = append(c.contracts, contracts)
	return c.errs[call]
}

func (c *fakeContract) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeContract) TotalAssets(ctx context.Context, contracts Contracts) (uint32, error) {
	if c.entered != nil {
		c.entered <- struct{}{}
		<-c.release
	}
	if err := c.record(callTotalAssets, contracts); err != nil {
		return 0, err
	}
	return c.totalAssets, nil
}

func (c *fakeContract) Mint(ctx context.Context, contracts Contracts, payment common.Amount) (MintReceipt, error) {
	if err := c.record(callMint, contracts); err != nil {
		return MintReceipt{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supply++
	receipt := MintReceipt{}
	if c.announce {
		receipt.TokenID = common.FlowIDFromUint64(c.supply)
	}
	return receipt, nil
}

func (c *fakeContract) TotalSupply(ctx context.Context, contracts Contracts) (uint64, error) {
	if err := c.record(callTotalSupply, contracts); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supply, nil
}

func (c *fakeContract) AddAssetToToken(ctx context.Context, contracts Contracts, tokenID uint64, assetID uint32) error {
	if err := c.record(callAddAsset, contracts); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if tokenID == 0 || tokenID > c.supply {
		return fmt.Errorf("token %d does not exist", tokenID)
	}
	c.assets[tokenID] = append(c.assets[tokenID], assetID)
	return nil
}

func (c *fakeContract) Transfer(ctx context.Context, contracts Contracts, to common.FlowAddress, tokenID uint64) error {
	if err := c.record(callTransfer, contracts); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners[tokenID] = to
	return nil
}

func (c *fakeContract) Contracts() []Contracts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Contracts(nil), c.contracts...)
}

// fakePayments holds sealed fee transfers by transaction id.
type fakePayments struct {
	mu       sync.Mutex
	next     int
	payments map[string]fakePayment
	err      error
}

type fakePayment struct {
	from   common.FlowAddress
	amount common.Amount
}

func newFakePayments() *fakePayments {
	return &fakePayments{payments: make(map[string]fakePayment)}
}

// pay records a transfer of 'amount' from 'from' and returns its id.
func (p *fakePayments) pay(from common.FlowAddress, amount common.Amount) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	id := fmt.Sprintf("%064x", p.next)
	p.payments[id] = fakePayment{from, amount}
	return id
}

func (p *fakePayments) VerifyPayment(ctx context.Context, caller common.FlowAddress, transactionID string) (VerifiedPayment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return VerifiedPayment{}, p.err
	}
	payment, ok := p.payments[transactionID]
	if !ok {
		return VerifiedPayment{}, fmt.Errorf("transaction %s not found", transactionID)
	}
	if payment.from != caller {
		return VerifiedPayment{}, fmt.Errorf("transaction %s was not paid by %s", transactionID, caller)
	}
	return VerifiedPayment{TransactionID: transactionID, Amount: payment.amount}, nil
}

type fakeClock struct {
	timestamp uint64
	err       error
}

func (c *fakeClock) BlockTimestamp(ctx context.Context) (uint64, error) {
	return c.timestamp, c.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := common.OpenGormDB("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { common.CloseGormDB(db) })

	require.NoError(t, Migrate(db))
	require.NoError(t, transactions.Migrate(db))

	return db
}

func newTestApp(t *testing.T, contract IssuingContract) (*App, *GormStore) {
	t.Helper()

	store := NewGormStore(newTestDB(t))
	app, err := Construct(store, contract, &fakeClock{timestamp: 1_700_000_000_000}, newFakePayments(), testAdmin, testIssuing, testCatalog, testPrice)
	require.NoError(t, err)

	return app, store
}

// payFor transfers 'amount' from 'caller' to the proxy on the app's fake chain.
func payFor(app *App, caller common.FlowAddress, amount common.Amount) string {
	return app.payments.(*fakePayments).pay(caller, amount)
}
