package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintSuccess(t *testing.T) {
	contract := newFakeContract(3)
	app, store := newTestApp(t, contract)

	m, err := app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, []string{callTotalAssets, callMint, callTotalSupply, callAddAsset, callTransfer}, contract.Calls())
	for _, c := range contract.Contracts() {
		assert.Equal(t, Contracts{Issuing: testIssuing, Catalog: testCatalog}, c)
	}

	assert.Equal(t, common.MintStateOwnershipTransferred, m.State)
	assert.True(t, m.TokenID.EqualTo(common.FlowIDFromUint64(1)))
	assert.GreaterOrEqual(t, m.AssetID, uint32(1))
	assert.LessOrEqual(t, m.AssetID, uint32(3))

	// Exactly one asset attached to the queried token, owned by the caller
	assert.Equal(t, []uint32{m.AssetID}, contract.assets[1])
	assert.Equal(t, testCaller, contract.owners[1])

	assert.Equal(t, uint64(1), app.State().Salt)
	assert.False(t, app.guard.inFlight())

	stored, err := store.GetMint(m.ID)
	require.NoError(t, err)
	assert.Equal(t, common.MintStateOwnershipTransferred, stored.State)
	assert.Equal(t, m.AssetID, stored.AssetID)
	assert.Equal(t, uint32(3), stored.TotalAssets)
	assert.Len(t, stored.Digest, 32)
}

func TestMintBadMintValue(t *testing.T) {
	contract := newFakeContract(3)
	app, store := newTestApp(t, contract)

	for _, payment := range []common.Amount{testPrice - 1, testPrice + 1, 0} {
		m, err := app.Mint(context.Background(), testCaller, payFor(app, testCaller, payment))
		assert.ErrorIs(t, err, errors.ErrBadMintValue)
		assert.Nil(t, m)
	}

	assert.Empty(t, contract.Calls())
	assert.False(t, app.guard.inFlight())
	assert.Equal(t, uint64(0), app.State().Salt)
	assert.Equal(t, testPrice, app.MintPrice())

	mints, err := store.ListMints(ParseListOptions(0, 0))
	require.NoError(t, err)
	assert.Empty(t, mints)
}

func TestMintRequiresPayment(t *testing.T) {
	contract := newFakeContract(3)
	app, store := newTestApp(t, contract)
	other := common.FlowAddressFromString("0x0ae53cb6e3f42a79")

	cases := []struct {
		name    string
		payment string
	}{
		{"missing", ""},
		{"unknown transaction", fmt.Sprintf("%064x", 999)},
		{"paid by someone else", payFor(app, other, testPrice)},
		{"wrong amount", payFor(app, testCaller, testPrice-1)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, err := app.Mint(context.Background(), testCaller, c.payment)
			assert.ErrorIs(t, err, errors.ErrBadMintValue)
			assert.Nil(t, m)
		})
	}

	assert.Empty(t, contract.Calls())
	assert.False(t, app.guard.inFlight())
	assert.Equal(t, uint64(0), app.State().Salt)

	mints, err := store.ListMints(ParseListOptions(0, 0))
	require.NoError(t, err)
	assert.Empty(t, mints)
}

func TestMintPaymentUsedOnce(t *testing.T) {
	contract := newFakeContract(3)
	app, store := newTestApp(t, contract)
	payment := payFor(app, testCaller, testPrice)

	m, err := app.Mint(context.Background(), testCaller, payment)
	require.NoError(t, err)
	assert.Equal(t, payment, m.PaymentTransactionID)
	assert.Equal(t, testPrice, m.Payment)

	calls := len(contract.Calls())

	again, err := app.Mint(context.Background(), testCaller, payment)
	assert.ErrorIs(t, err, errors.ErrBadMintValue)
	assert.Nil(t, again)
	assert.Len(t, contract.Calls(), calls)
	assert.Equal(t, uint64(1), app.State().Salt)

	spent, err := store.PaymentSpent(payment)
	require.NoError(t, err)
	assert.True(t, spent)

	// The unique index holds even without the lookup
	err = store.InsertMint(&Mint{Caller: testCaller, PaymentTransactionID: payment, State: common.MintStatePaymentChecked})
	assert.Error(t, err)
}

func TestMintFailedMintConsumesPayment(t *testing.T) {
	contract := newFakeContract(3)
	contract.errs[callMint] = fmt.Errorf("mint reverted")
	app, _ := newTestApp(t, contract)
	payment := payFor(app, testCaller, testPrice)

	_, err := app.Mint(context.Background(), testCaller, payment)
	assert.ErrorIs(t, err, errors.ErrMintingError)

	delete(contract.errs, callMint)
	_, err = app.Mint(context.Background(), testCaller, payment)
	assert.ErrorIs(t, err, errors.ErrBadMintValue)
}

func TestMintPaymentLookupFailure(t *testing.T) {
	contract := newFakeContract(3)
	app, _ := newTestApp(t, contract)
	payments := app.payments.(*fakePayments)
	payment := payments.pay(testCaller, testPrice)
	payments.err = errors.New(errors.KindRemoteError, fmt.Errorf("access node unavailable"))

	m, err := app.Mint(context.Background(), testCaller, payment)
	assert.ErrorIs(t, err, errors.ErrRemoteError)
	assert.Nil(t, m)
	assert.Empty(t, contract.Calls())

	// Not consumed
	payments.err = nil
	_, err = app.Mint(context.Background(), testCaller, payment)
	assert.NoError(t, err)
}

func TestMintRequiresCaller(t *testing.T) {
	contract := newFakeContract(3)
	app, store := newTestApp(t, contract)

	m, err := app.Mint(context.Background(), common.FlowAddress{}, payFor(app, common.FlowAddress{}, testPrice))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Nil(t, m)
	assert.Empty(t, contract.Calls())
	assert.False(t, app.guard.inFlight())

	mints, err := store.ListMints(ParseListOptions(0, 0))
	require.NoError(t, err)
	assert.Empty(t, mints)
}

func TestMintAssetCountChecks(t *testing.T) {
	cases := []struct {
		name        string
		totalAssets uint32
		want        error
	}{
		{"no assets", 0, errors.ErrNoAssetsDefined},
		{"too many assets", 256, errors.ErrTooManyAssetsDefined},
		{"way too many assets", 1 << 20, errors.ErrTooManyAssetsDefined},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			contract := newFakeContract(c.totalAssets)
			app, _ := newTestApp(t, contract)

			m, err := app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
			assert.ErrorIs(t, err, c.want)
			require.NotNil(t, m)

			assert.Equal(t, []string{callTotalAssets}, contract.Calls())
			assert.Equal(t, common.MintStateFailed, m.State)
			assert.Equal(t, common.MintStatePaymentChecked, m.FailedAt)
			assert.Equal(t, uint64(0), app.State().Salt)
			assert.False(t, app.guard.inFlight())
		})
	}
}

func TestMintMaxAssets(t *testing.T) {
	contract := newFakeContract(MaxAssets)
	app, _ := newTestApp(t, contract)

	m, err := app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.AssetID, uint32(1))
	assert.LessOrEqual(t, m.AssetID, uint32(MaxAssets))
}

func TestMintRemoteFailures(t *testing.T) {
	cases := []struct {
		failing   string
		want      error
		calls     []string
		failedAt  common.MintState
		saltAfter uint64
	}{
		{
			failing:  callTotalAssets,
			want:     errors.ErrRemoteError,
			calls:    []string{callTotalAssets},
			failedAt: common.MintStatePaymentChecked,
		},
		{
			failing:   callMint,
			want:      errors.ErrMintingError,
			calls:     []string{callTotalAssets, callMint},
			failedAt:  common.MintStateAssetCountQueried,
			saltAfter: 1,
		},
		{
			failing:   callTotalSupply,
			want:      errors.ErrRemoteError,
			calls:     []string{callTotalAssets, callMint, callTotalSupply},
			failedAt:  common.MintStateMinted,
			saltAfter: 1,
		},
		{
			failing:   callAddAsset,
			want:      errors.ErrAddTokenAssetError,
			calls:     []string{callTotalAssets, callMint, callTotalSupply, callAddAsset},
			failedAt:  common.MintStateMinted,
			saltAfter: 1,
		},
		{
			failing:   callTransfer,
			want:      errors.ErrOwnershipTransferError,
			calls:     []string{callTotalAssets, callMint, callTotalSupply, callAddAsset, callTransfer},
			failedAt:  common.MintStateAssetAttached,
			saltAfter: 1,
		},
	}

	for _, c := range cases {
		t.Run(c.failing, func(t *testing.T) {
			contract := newFakeContract(3)
			cause := fmt.Errorf("%s reverted", c.failing)
			contract.errs[c.failing] = cause
			app, store := newTestApp(t, contract)

			m, err := app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
			assert.ErrorIs(t, err, c.want)
			assert.ErrorIs(t, err, cause)
			assert.NotContains(t, err.Error(), "reverted")

			assert.Equal(t, c.calls, contract.Calls())
			assert.Equal(t, c.saltAfter, app.State().Salt)
			assert.False(t, app.guard.inFlight())

			stored, err := store.GetMint(m.ID)
			require.NoError(t, err)
			assert.Equal(t, common.MintStateFailed, stored.State)
			assert.Equal(t, c.failedAt, stored.FailedAt)
			assert.Equal(t, errors.KindOf(c.want).String(), stored.FailureKind)

			// Guard released, the next mint goes through
			delete(contract.errs, c.failing)
			_, err = app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
			assert.NoError(t, err)
		})
	}
}

func TestMintClockFailure(t *testing.T) {
	contract := newFakeContract(3)
	store := NewGormStore(newTestDB(t))
	app, err := Construct(store, contract, &fakeClock{err: fmt.Errorf("access node unavailable")}, newFakePayments(), testAdmin, testIssuing, testCatalog, testPrice)
	require.NoError(t, err)

	_, err = app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
	assert.ErrorIs(t, err, errors.ErrEnvironmentError)
	assert.Equal(t, []string{callTotalAssets}, contract.Calls())
	assert.Equal(t, uint64(0), app.State().Salt)
}

func TestMintReentrant(t *testing.T) {
	contract := newFakeContract(3)
	contract.entered = make(chan struct{})
	contract.release = make(chan struct{})
	app, _ := newTestApp(t, contract)

	type result struct {
		m   *Mint
		err error
	}
	done := make(chan result, 1)

	go func() {
		m, err := app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
		done <- result{m, err}
	}()

	select {
	case <-contract.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first mint never reached the issuing contract")
	}

	// Regardless of payment correctness
	for _, payment := range []string{payFor(app, testCaller, testPrice), payFor(app, testCaller, testPrice-1), ""} {
		m, err := app.Mint(context.Background(), testCaller, payment)
		assert.ErrorIs(t, err, errors.ErrReentrantCall)
		assert.Nil(t, m)
	}

	close(contract.release)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, common.MintStateOwnershipTransferred, r.m.State)
	case <-time.After(5 * time.Second):
		t.Fatal("first mint did not finish")
	}

	assert.Equal(t, []string{callTotalAssets, callMint, callTotalSupply, callAddAsset, callTransfer}, contract.Calls())
	assert.False(t, app.guard.inFlight())
}

func TestMintUsesIssuingAddressAtCallTime(t *testing.T) {
	contract := newFakeContract(3)
	app, _ := newTestApp(t, contract)
	issuing := common.FlowAddressFromString("0x0ae53cb6e3f42a79")

	require.NoError(t, app.SetIssuingAddress(context.Background(), testAdmin, issuing))

	m, err := app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
	require.NoError(t, err)
	assert.Equal(t, issuing, m.IssuingAddress)
	for _, c := range contract.Contracts() {
		assert.Equal(t, issuing, c.Issuing)
	}
}

func TestMintUsesCatalogAddressAtCallTime(t *testing.T) {
	contract := newFakeContract(3)
	app, store := newTestApp(t, contract)
	catalog := common.FlowAddressFromString("0x045a1763c93006ca")

	require.NoError(t, app.SetCatalogAddress(context.Background(), testAdmin, catalog))

	m, err := app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
	require.NoError(t, err)
	assert.Equal(t, catalog, m.CatalogAddress)

	calls := contract.Contracts()
	require.Len(t, calls, 5)
	for _, c := range calls {
		assert.Equal(t, Contracts{Issuing: testIssuing, Catalog: catalog}, c)
	}

	stored, err := store.GetMint(m.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog, stored.CatalogAddress)
}

func TestMintTokenIDAnnounced(t *testing.T) {
	contract := newFakeContract(2)
	contract.announce = true
	app, _ := newTestApp(t, contract)

	for i := uint64(1); i <= 3; i++ {
		m, err := app.Mint(context.Background(), testCaller, payFor(app, testCaller, testPrice))
		require.NoError(t, err)
		assert.True(t, m.TokenID.EqualTo(common.FlowIDFromUint64(i)))
		assert.Equal(t, testCaller, contract.owners[i])
	}

	assert.Equal(t, uint64(3), app.State().Salt)
}

func TestListMints(t *testing.T) {
	contract := newFakeContract(3)
	app, _ := newTestApp(t, contract)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := app.Mint(ctx, testCaller, payFor(app, testCaller, testPrice))
		require.NoError(t, err)
	}

	mints, err := app.ListMints(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, mints, 2)

	all, err := app.ListMints(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	m, err := app.GetMint(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all[0].ID, m.ID)
}

func TestMintSetState(t *testing.T) {
	m := &Mint{State: common.MintStatePaymentChecked}

	assert.Error(t, m.SetState(common.MintStateMinted))
	require.NoError(t, m.SetState(common.MintStateAssetCountQueried))
	require.NoError(t, m.SetState(common.MintStateMinted))
	assert.Error(t, m.SetState(common.MintStateMinted))

	require.NoError(t, m.SetFailed("AddTokenAssetError"))
	assert.Equal(t, common.MintStateMinted, m.FailedAt)
	assert.Error(t, m.SetState(common.MintStateAssetAttached))
	assert.Error(t, m.SetFailed("again"))
}
