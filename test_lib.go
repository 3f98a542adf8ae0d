package main

import (
	"context"
	"encoding/hex"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flow-hydraulics/flow-mint-proxy/service/app"
	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/config"
	"github.com/flow-hydraulics/flow-mint-proxy/service/flow_helpers"
	"github.com/flow-hydraulics/flow-mint-proxy/service/http"
	"github.com/flow-hydraulics/flow-mint-proxy/service/transactions"
	"github.com/onflow/flow-go-sdk"
	"github.com/onflow/flow-go-sdk/client"
	"google.golang.org/grpc"
	"gorm.io/gorm"
)

func cleanTestDatabase(cfg *config.Config, db *gorm.DB) {
	// Only run this if database DSN contains "test"
	if strings.Contains(strings.ToLower(cfg.DatabaseDSN), "test") {
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&app.Mint{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&app.ProxyState{})
		db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&transactions.StorableTransaction{})
	}
}

// getTestCfg reads .env.test. ok is false if it does not describe a
// reachable setup, tests depending on the emulator should then skip.
func getTestCfg() (cfg *config.Config, ok bool) {
	cfg, err := config.ParseConfig(&config.ConfigOptions{EnvFilePath: ".env.test"})
	if err != nil {
		return nil, false
	}

	if !strings.Contains(strings.ToLower(cfg.DatabaseDSN), "test") {
		cfg.DatabaseDSN = "test.db"
		cfg.DatabaseType = "sqlite"
	}

	return cfg, true
}

// testEnv is an app wired to the emulator configured in .env.test.
type testEnv struct {
	app        *app.App
	contract   *app.ContractService
	flowClient *client.Client
	clean      func()
}

func getTestEnv(cfg *config.Config) (*testEnv, error) {
	flowClient, err := client.New(cfg.AccessAPIHost, grpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	db, err := common.NewGormDB(cfg)
	if err != nil {
		flowClient.Close()
		return nil, err
	}

	// Migrate before cleaning so the tables exist on a fresh database
	if err := app.Migrate(db); err != nil {
		flowClient.Close()
		common.CloseGormDB(db)
		return nil, err
	}
	if err := transactions.Migrate(db); err != nil {
		flowClient.Close()
		common.CloseGormDB(db)
		return nil, err
	}

	cleanTestDatabase(cfg, db)

	contract, err := app.NewContractService(cfg, db, flowClient)
	if err != nil {
		flowClient.Close()
		common.CloseGormDB(db)
		return nil, err
	}

	a, err := app.New(cfg, app.NewGormStore(db), contract, contract, contract)
	if err != nil {
		flowClient.Close()
		common.CloseGormDB(db)
		return nil, err
	}

	clean := func() {
		cleanTestDatabase(cfg, db)
		flowClient.Close()
		common.CloseGormDB(db)
	}

	return &testEnv{a, contract, flowClient, clean}, nil
}

func (env *testEnv) server(cfg *config.Config) *http.Server {
	return http.NewServer(cfg, nil, env.app, env.contract)
}

// payMintFee transfers 'amount' FlowToken from the admin account to the
// proxy account and returns the sealed transaction id.
func (env *testEnv) payMintFee(ctx context.Context, cfg *config.Config, amount common.Amount) (string, error) {
	script, err := flow_helpers.ParseCadenceTemplate(cfg.CadenceDir, "transactions/pay_mint_fee.cdc", &flow_helpers.CadenceTemplateVars{
		FungibleToken: common.FlowAddressFromString(cfg.FungibleTokenAddress).Hex(),
		FlowToken:     common.FlowAddressFromString(cfg.FlowTokenAddress).Hex(),
	})
	if err != nil {
		return "", err
	}

	account, err := flow_helpers.GetAccount(
		flow.HexToAddress(cfg.AdminAddress),
		cfg.AdminPrivateKey,
		cfg.AdminPrivateKeyType,
		cfg.AdminPrivateKeyIndexes,
	)
	if err != nil {
		return "", err
	}

	block, err := env.flowClient.GetLatestBlockHeader(ctx, true)
	if err != nil {
		return "", err
	}

	tx := flow.NewTransaction().
		SetScript(script).
		SetGasLimit(cfg.TransactionGasLimit).
		SetReferenceBlockID(block.ID)

	if err := tx.AddArgument(amount.Cadence()); err != nil {
		return "", err
	}
	if err := tx.AddArgument(common.FlowAddressFromString(cfg.AdminAddress).Cadence()); err != nil {
		return "", err
	}

	if err := flow_helpers.SignProposeAndPayAs(ctx, env.flowClient, account, tx); err != nil {
		return "", err
	}

	if err := env.flowClient.SendTransaction(ctx, *tx); err != nil {
		return "", err
	}

	result, err := flow_helpers.WaitForSeal(ctx, env.flowClient, tx.ID(), cfg.TransactionTimeout, cfg.TransactionPollInterval)
	if err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", result.Error
	}

	return tx.ID().Hex(), nil
}

// signAsAdmin signs a request the way a caller holding the admin key would.
func signAsAdmin(cfg *config.Config, req *nethttp.Request, body []byte) error {
	account, err := flow_helpers.GetAccount(
		flow.HexToAddress(cfg.AdminAddress),
		cfg.AdminPrivateKey,
		cfg.AdminPrivateKeyType,
		cfg.AdminPrivateKeyIndexes,
	)
	if err != nil {
		return err
	}

	signer, err := account.GetSigner()
	if err != nil {
		return err
	}

	keyIndex := account.KeyIndex()
	timestamp := time.Now().Unix()

	signature, err := signer.Sign(http.RequestMessage(req.Method, req.URL.Path, timestamp, body))
	if err != nil {
		return err
	}

	req.Header.Set(http.HeaderKeyIndex, strconv.Itoa(keyIndex))
	req.Header.Set(http.HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(http.HeaderSignature, hex.EncodeToString(signature))

	return nil
}
