package app

import (
	"context"
	"fmt"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/config"
	"github.com/flow-hydraulics/flow-mint-proxy/service/flow_helpers"
	"github.com/flow-hydraulics/flow-mint-proxy/service/transactions"
	"github.com/google/uuid"
	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Onchain event names
const (
	MINTED = "Minted"
)

const (
	TOTAL_ASSETS_SCRIPT = "scripts/total_assets.cdc"
	TOTAL_SUPPLY_SCRIPT = "scripts/total_supply.cdc"
	MINT_SCRIPT         = "transactions/mint.cdc"
	ADD_ASSET_SCRIPT    = "transactions/add_asset_to_token.cdc"
	TRANSFER_SCRIPT     = "transactions/transfer.cdc"
)

// ContractService handles interfacing with the issuing contract on chain.
// Reads are Cadence scripts, writes are transactions signed by the proxy
// account with a fixed gas limit and stored in the transactions table.
type ContractService struct {
	cfg        *config.Config
	db         *gorm.DB
	flowClient flow_helpers.FlowClient
	account    *flow_helpers.Account
}

func NewContractService(cfg *config.Config, db *gorm.DB, flowClient flow_helpers.FlowClient) (*ContractService, error) {
	proxyAccount, err := flow_helpers.GetAccount(
		flow.HexToAddress(cfg.AdminAddress),
		cfg.AdminPrivateKey,
		cfg.AdminPrivateKeyType,
		cfg.AdminPrivateKeyIndexes,
	)
	if err != nil {
		return nil, err
	}

	flowAccount, err := flowClient.GetAccount(context.Background(), proxyAccount.Address)
	if err != nil {
		return nil, err
	}
	if len(flowAccount.Keys) < len(proxyAccount.KeyIndexes) {
		return nil, fmt.Errorf("too many key indexes given for admin account")
	}

	return &ContractService{cfg, db, flowClient, proxyAccount}, nil
}

func (svc *ContractService) TotalAssets(ctx context.Context, contracts Contracts) (uint32, error) {
	v, err := svc.executeScript(ctx, TOTAL_ASSETS_SCRIPT, contracts)
	if err != nil {
		return 0, err
	}

	total, ok := v.(cadence.UInt32)
	if !ok {
		return 0, fmt.Errorf("unexpected total assets value: %v", v)
	}

	return uint32(total), nil
}

func (svc *ContractService) TotalSupply(ctx context.Context, contracts Contracts) (uint64, error) {
	v, err := svc.executeScript(ctx, TOTAL_SUPPLY_SCRIPT, contracts)
	if err != nil {
		return 0, err
	}

	total, ok := v.(cadence.UInt64)
	if !ok {
		return 0, fmt.Errorf("unexpected total supply value: %v", v)
	}

	return uint64(total), nil
}

// Mint forwards the payment to the issuing contract's lazy mint.
// The minted token is deposited to the proxy account.
func (svc *ContractService) Mint(ctx context.Context, contracts Contracts, payment common.Amount) (MintReceipt, error) {
	result, err := svc.sendTransaction(ctx, "mint", MINT_SCRIPT, contracts, []cadence.Value{
		payment.Cadence(),
	})
	if err != nil {
		return MintReceipt{}, err
	}

	receipt := MintReceipt{}

	if e, ok := flow_helpers.FindEvent(result.Events, MINTED); ok {
		if v, ok := flow_helpers.EventValuesToMap(e)["id"]; ok {
			if id, err := common.FlowIDFromCadence(v); err == nil {
				receipt.TokenID = id
			}
		}
	}

	return receipt, nil
}

func (svc *ContractService) AddAssetToToken(ctx context.Context, contracts Contracts, tokenID uint64, assetID uint32) error {
	_, err := svc.sendTransaction(ctx, "add_asset_to_token", ADD_ASSET_SCRIPT, contracts, []cadence.Value{
		cadence.UInt64(tokenID),
		cadence.UInt32(assetID),
	})
	return err
}

func (svc *ContractService) Transfer(ctx context.Context, contracts Contracts, to common.FlowAddress, tokenID uint64) error {
	_, err := svc.sendTransaction(ctx, "transfer", TRANSFER_SCRIPT, contracts, []cadence.Value{
		to.Cadence(),
		cadence.UInt64(tokenID),
	})
	return err
}

// BlockTimestamp returns the timestamp of the latest sealed block in milliseconds.
func (svc *ContractService) BlockTimestamp(ctx context.Context) (uint64, error) {
	header, err := svc.flowClient.GetLatestBlockHeader(ctx, true)
	if err != nil {
		return 0, err
	}
	return uint64(header.Timestamp.UnixMilli()), nil
}

// Addresses are rendered as bare hex, templates add the 0x prefix.
func (svc *ContractService) templateVars(contracts Contracts) *flow_helpers.CadenceTemplateVars {
	return &flow_helpers.CadenceTemplateVars{
		NonFungibleToken:       common.FlowAddressFromString(svc.cfg.NonFungibleTokenAddress).Hex(),
		FungibleToken:          common.FlowAddressFromString(svc.cfg.FungibleTokenAddress).Hex(),
		FlowToken:              common.FlowAddressFromString(svc.cfg.FlowTokenAddress).Hex(),
		IssuingContractName:    svc.cfg.IssuingContractName,
		IssuingContractAddress: contracts.Issuing.Hex(),
		CatalogAddress:         contracts.Catalog.Hex(),
	}
}

func (svc *ContractService) executeScript(ctx context.Context, name string, contracts Contracts) (cadence.Value, error) {
	script, err := flow_helpers.ParseCadenceTemplate(svc.cfg.CadenceDir, name, svc.templateVars(contracts))
	if err != nil {
		return nil, err
	}

	if svc.cfg.ScriptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.cfg.ScriptTimeout)
		defer cancel()
	}

	return svc.flowClient.ExecuteScriptAtLatestBlock(ctx, script, nil)
}

// sendTransaction stores, signs and sends a transaction and waits for it to
// seal. It returns an error if the transaction could not be sent or if it
// failed on chain.
func (svc *ContractService) sendTransaction(ctx context.Context, name, templateName string, contracts Contracts, arguments []cadence.Value) (*flow.TransactionResult, error) {
	mintID := uuid.Nil
	if m, ok := MintFromContext(ctx); ok {
		mintID = m.ID
	}

	logger := log.WithFields(log.Fields{
		"method":   "sendTransaction",
		"name":     name,
		"contract": contracts.Issuing,
		"mintID":   mintID,
	})

	script, err := flow_helpers.ParseCadenceTemplate(svc.cfg.CadenceDir, templateName, svc.templateVars(contracts))
	if err != nil {
		return nil, err
	}

	t, err := transactions.NewTransactionWithMintID(name, script, arguments, svc.cfg.TransactionGasLimit, mintID)
	if err != nil {
		return nil, err
	}

	if err := t.Save(svc.db); err != nil {
		return nil, err
	}

	// Storing the outcome is best effort from here on, the transaction may
	// already have taken effect on chain.
	save := func() {
		if err := t.Save(svc.db); err != nil {
			logger.WithError(err).Warn("Could not store transaction state")
		}
	}

	markFailed := func(err error) error {
		t.State = common.TransactionStateFailed
		t.Error = err.Error()
		save()
		return err
	}

	tx, err := t.Prepare(ctx, svc.flowClient, svc.account)
	if err != nil {
		return nil, markFailed(err)
	}

	if err := svc.flowClient.SendTransaction(ctx, *tx); err != nil {
		return nil, markFailed(err)
	}

	t.TransactionID = tx.ID().Hex()
	t.State = common.TransactionStateSent
	save()

	logger = logger.WithField("transactionID", t.TransactionID)
	logger.Debug("Transaction sent")

	result, err := flow_helpers.WaitForSeal(ctx, svc.flowClient, tx.ID(), svc.cfg.TransactionTimeout, svc.cfg.TransactionPollInterval)
	if err != nil {
		if result != nil {
			_ = t.HandleResult(result)
			save()
			return nil, err
		}
		return nil, markFailed(err)
	}

	if err := t.HandleResult(result); err != nil {
		save()
		return nil, err
	}

	save()

	logger.Trace("Transaction sealed")

	return result, nil
}
