package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/config"
	"github.com/flow-hydraulics/flow-mint-proxy/service/errors"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/sha3"
)

const stateTypeName = "flow-mint-proxy.ProxyState"

// StorageKey identifies the proxy state row. It is derived from the state
// type's name so it stays stable across releases.
var StorageKey = storageKey(stateTypeName)

func storageKey(typeName string) uint32 {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(typeName))
	d := h.Sum(nil)
	return uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3])
}

// App is the mint orchestrator.
type App struct {
	db       Store
	contract IssuingContract
	clock    BlockClock
	payments PaymentVerifier
	guard    reentrancyGuard

	stateLock sync.RWMutex
	state     ProxyState
}

// New constructs the orchestrator from configuration, the configured admin
// address being the constructing caller.
func New(cfg *config.Config, db Store, contract IssuingContract, clock BlockClock, payments PaymentVerifier) (*App, error) {
	if cfg == nil {
		return nil, &errors.NilConfigError{}
	}

	price, err := common.AmountFromString(cfg.MintPrice)
	if err != nil {
		return nil, err
	}

	return Construct(
		db, contract, clock, payments,
		common.FlowAddressFromString(cfg.AdminAddress),
		common.FlowAddressFromString(cfg.IssuingAddress),
		common.FlowAddressFromString(cfg.CatalogAddress),
		price,
	)
}

// Construct initializes the proxy with caller as administrator. If a state was
// persisted by an earlier run it is restored as is and the arguments are ignored.
func Construct(db Store, contract IssuingContract, clock BlockClock, payments PaymentVerifier, caller, issuing, catalog common.FlowAddress, mintPrice common.Amount) (*App, error) {
	logger := log.WithFields(log.Fields{
		"method":     "Construct",
		"storageKey": StorageKey,
	})

	if issuing.IsEmpty() || catalog.IsEmpty() {
		return nil, fmt.Errorf("issuing and catalog contract addresses must be defined")
	}
	if caller.IsEmpty() {
		return nil, fmt.Errorf("administrator must be defined")
	}

	app := &App{db: db, contract: contract, clock: clock, payments: payments}

	existing, found, err := db.LoadState(StorageKey)
	if err != nil {
		return nil, err
	}

	if found {
		logger.WithFields(log.Fields{
			"administrator": existing.Administrator,
			"issuing":       existing.IssuingAddress,
			"catalog":       existing.CatalogAddress,
			"salt":          existing.Salt,
		}).Info("Restored proxy state")

		app.state = *existing
		return app, nil
	}

	app.state = ProxyState{
		StorageKey:     StorageKey,
		IssuingAddress: issuing,
		CatalogAddress: catalog,
		MintPrice:      mintPrice,
		Salt:           0,
		Administrator:  caller,
	}

	if err := db.SaveState(&app.state); err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"administrator": caller,
		"issuing":       issuing,
		"catalog":       catalog,
		"mintPrice":     mintPrice,
	}).Info("Initialized proxy state")

	return app, nil
}

// State returns a copy of the current configuration.
func (app *App) State() ProxyState {
	app.stateLock.RLock()
	defer app.stateLock.RUnlock()
	return app.state
}

func (app *App) IssuingAddress() common.FlowAddress {
	return app.State().IssuingAddress
}

func (app *App) CatalogAddress() common.FlowAddress {
	return app.State().CatalogAddress
}

func (app *App) MintPrice() common.Amount {
	return app.State().MintPrice
}

func (app *App) Administrator() common.FlowAddress {
	return app.State().Administrator
}

func (app *App) SetIssuingAddress(ctx context.Context, caller, address common.FlowAddress) error {
	if address.IsEmpty() {
		return errors.New(errors.KindInvalidInput, fmt.Errorf("issuing address must be defined"))
	}
	return app.updateState("SetIssuingAddress", caller, func(s *ProxyState) {
		s.IssuingAddress = address
	})
}

func (app *App) SetCatalogAddress(ctx context.Context, caller, address common.FlowAddress) error {
	if address.IsEmpty() {
		return errors.New(errors.KindInvalidInput, fmt.Errorf("catalog address must be defined"))
	}
	return app.updateState("SetCatalogAddress", caller, func(s *ProxyState) {
		s.CatalogAddress = address
	})
}

func (app *App) SetMintPrice(ctx context.Context, caller common.FlowAddress, price common.Amount) error {
	return app.updateState("SetMintPrice", caller, func(s *ProxyState) {
		s.MintPrice = price
	})
}

// TransferAdministrator hands the administrator role over to another identity.
func (app *App) TransferAdministrator(ctx context.Context, caller, administrator common.FlowAddress) error {
	if administrator.IsEmpty() {
		return errors.New(errors.KindInvalidInput, fmt.Errorf("administrator must be defined"))
	}
	return app.updateState("TransferAdministrator", caller, func(s *ProxyState) {
		s.Administrator = administrator
	})
}

// updateState applies fn to a copy of the state and swaps it in once persisted.
// Not guarded against reentrancy, an in-flight mint keeps the values it read.
func (app *App) updateState(method string, caller common.FlowAddress, fn func(*ProxyState)) error {
	logger := log.WithFields(log.Fields{
		"method": method,
		"caller": caller,
	})

	app.stateLock.Lock()
	defer app.stateLock.Unlock()

	if err := onlyAdministrator(&app.state, caller); err != nil {
		logger.Warn("Caller is not the administrator")
		return err
	}

	next := app.state
	fn(&next)

	if err := app.db.SaveState(&next); err != nil {
		return errors.New(errors.KindEnvironmentError, err)
	}

	app.state = next

	logger.Info("Proxy state updated")

	return nil
}

func (app *App) ListMints(ctx context.Context, limit, offset int) ([]Mint, error) {
	opt := ParseListOptions(limit, offset)

	mints, err := app.db.ListMints(opt)
	if err != nil {
		return nil, err
	}

	return mints, nil
}

func (app *App) GetMint(ctx context.Context, id uuid.UUID) (*Mint, error) {
	return app.db.GetMint(id)
}
