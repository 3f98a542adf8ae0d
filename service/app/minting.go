package app

import (
	"context"
	"fmt"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/errors"
	log "github.com/sirupsen/logrus"
)

// MaxAssets is the largest asset count the selector can draw from.
const MaxAssets = 255

// Mint charges the caller the mint price, mints a token on the issuing
// contract, attaches a pseudo randomly chosen asset to it and transfers the
// token to the caller.
//
// The fee is a FlowToken transfer from the caller to the proxy account,
// identified by paymentTransactionID. It must match the mint price exactly
// and pays for a single mint.
//
// The remote calls are made strictly in order and each one commits on its own.
// Nothing is retried or rolled back: once the remote mint succeeded a later
// failure does not mean the payment was not consumed. The returned Mint tells
// how far the sequence got, it is nil if the call was rejected before any
// remote call was made.
func (app *App) Mint(ctx context.Context, caller common.FlowAddress, paymentTransactionID string) (*Mint, error) {
	release, err := app.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	logger := log.WithFields(log.Fields{
		"method":  "Mint",
		"caller":  caller,
		"payment": paymentTransactionID,
	})

	if caller.IsEmpty() {
		return nil, errors.New(errors.KindInvalidInput, fmt.Errorf("caller must be defined"))
	}

	payment, err := app.checkPayment(ctx, caller, paymentTransactionID)
	if err != nil {
		logger.WithError(err).Debug("Payment rejected")
		return nil, err
	}

	state := app.State()

	if payment.Amount != state.MintPrice {
		logger.WithFields(log.Fields{
			"amount":    payment.Amount,
			"mintPrice": state.MintPrice,
		}).Debug("Bad mint value")
		return nil, errors.New(errors.KindBadMintValue, fmt.Errorf("paid %s, mint price is %s", payment.Amount, state.MintPrice))
	}

	m := &Mint{
		Caller:               caller,
		Payment:              payment.Amount,
		PaymentTransactionID: payment.TransactionID,
		IssuingAddress:       state.IssuingAddress,
		CatalogAddress:       state.CatalogAddress,
		State:                common.MintStatePaymentChecked,
	}

	if err := app.db.InsertMint(m); err != nil {
		return nil, errors.New(errors.KindEnvironmentError, err)
	}

	logger = logger.WithField("mintID", m.ID)
	logger.Info("Mint")

	ctx = WithMint(ctx, m)

	s := &mintSaga{app: app, m: m, logger: logger}
	if err := s.run(ctx); err != nil {
		return m, s.fail(err)
	}

	logger.WithFields(log.Fields{
		"tokenID": m.TokenID,
		"assetID": m.AssetID,
	}).Info("Mint complete")

	return m, nil
}

// checkPayment verifies the fee transfer and that no earlier mint used it.
func (app *App) checkPayment(ctx context.Context, caller common.FlowAddress, transactionID string) (VerifiedPayment, error) {
	if transactionID == "" {
		return VerifiedPayment{}, errors.New(errors.KindBadMintValue, fmt.Errorf("no payment attached"))
	}

	payment, err := app.payments.VerifyPayment(ctx, caller, transactionID)
	if err != nil {
		if errors.KindOf(err) != 0 {
			return VerifiedPayment{}, err
		}
		return VerifiedPayment{}, errors.New(errors.KindBadMintValue, err)
	}

	spent, err := app.db.PaymentSpent(payment.TransactionID)
	if err != nil {
		return VerifiedPayment{}, errors.New(errors.KindEnvironmentError, err)
	}
	if spent {
		return VerifiedPayment{}, errors.New(errors.KindBadMintValue, fmt.Errorf("payment %s already used", payment.TransactionID))
	}

	return payment, nil
}

// mintSaga runs the remote calls of one mint and keeps its record up to date.
type mintSaga struct {
	app    *App
	m      *Mint
	logger *log.Entry
}

func (s *mintSaga) run(ctx context.Context) error {
	contract := s.app.contract
	contracts := s.m.Contracts()

	totalAssets, err := contract.TotalAssets(ctx, contracts)
	if err != nil {
		return errors.New(errors.KindRemoteError, err)
	}
	if totalAssets == 0 {
		return errors.ErrNoAssetsDefined
	}
	if totalAssets > MaxAssets {
		return errors.ErrTooManyAssetsDefined
	}

	s.m.TotalAssets = totalAssets
	s.advance(common.MintStateAssetCountQueried)

	d, err := s.app.drawBounded(ctx, uint8(totalAssets-1))
	if err != nil {
		return err
	}
	s.m.AssetID = uint32(d.Value) + 1
	s.m.Salt = d.Salt
	s.m.Digest = d.Digest

	s.logger.WithFields(log.Fields{
		"totalAssets": totalAssets,
		"assetID":     s.m.AssetID,
	}).Debug("Asset chosen")

	receipt, err := contract.Mint(ctx, contracts, s.m.Payment)
	if err != nil {
		return errors.New(errors.KindMintingError, err)
	}

	s.advance(common.MintStateMinted)

	// Assumes the issuing contract numbers tokens sequentially from 1 and
	// nothing else minted since our mint.
	tokenID, err := contract.TotalSupply(ctx, contracts)
	if err != nil {
		return errors.New(errors.KindRemoteError, err)
	}

	s.m.TokenID = common.FlowIDFromUint64(tokenID)
	if receipt.TokenID.Valid && !receipt.TokenID.EqualTo(s.m.TokenID) {
		s.logger.WithFields(log.Fields{
			"totalSupply":    tokenID,
			"announcedToken": receipt.TokenID,
		}).Warn("Token id announced by the issuing contract differs from its total supply")
	}

	if err := contract.AddAssetToToken(ctx, contracts, tokenID, s.m.AssetID); err != nil {
		return errors.New(errors.KindAddTokenAssetError, err)
	}

	s.advance(common.MintStateAssetAttached)

	if err := contract.Transfer(ctx, contracts, s.m.Caller, tokenID); err != nil {
		return errors.New(errors.KindOwnershipTransferError, err)
	}

	s.advance(common.MintStateOwnershipTransferred)

	return nil
}

// advance records progress. The record is informational, failing to store it
// does not change the outcome of the mint.
func (s *mintSaga) advance(next common.MintState) {
	if err := s.m.SetState(next); err != nil {
		s.logger.WithError(err).Error("Invalid mint state transition")
		return
	}
	if err := s.app.db.UpdateMint(s.m); err != nil {
		s.logger.WithError(err).WithField("state", next).Warn("Could not store mint progress")
	}
}

func (s *mintSaga) fail(err error) error {
	kind := errors.KindOf(err)
	reached := s.m.State

	logger := s.logger.WithError(err).WithFields(log.Fields{
		"kind":    kind,
		"reached": reached,
	})

	if reached >= common.MintStateMinted {
		logger.Warn("Mint failed after the token was minted")
	} else {
		logger.Info("Mint failed")
	}

	if e := s.m.SetFailed(kind.String()); e != nil {
		logger.WithError(e).Error("Invalid mint state transition")
	} else if e := s.app.db.UpdateMint(s.m); e != nil {
		logger.WithError(e).Warn("Could not store mint failure")
	}

	return err
}
