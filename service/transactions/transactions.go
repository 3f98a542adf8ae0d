package transactions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/flow_helpers"
	"github.com/google/uuid"
	"github.com/onflow/cadence"
	c_json "github.com/onflow/cadence/encoding/json"
	"github.com/onflow/flow-go-sdk"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StorableTransaction represents a Flow transaction sent to the issuing contract.
// It stores the script and arguments of a transaction.
type StorableTransaction struct {
	gorm.Model
	ID     uuid.UUID `gorm:"column:id;primary_key;type:uuid;"`
	MintID uuid.UUID `gorm:"column:mint_id;type:uuid;index"`

	State         common.TransactionState `gorm:"column:state;not null;index"`
	Error         string                  `gorm:"column:error"`
	TransactionID string                  `gorm:"column:transaction_id"`

	Name      string         `gorm:"column:name"` // Just a way to identify a transaction
	Script    string         `gorm:"column:script"`
	Arguments datatypes.JSON `gorm:"column:arguments"`
	GasLimit  uint64         `gorm:"column:gas_limit"`
}

func NewTransaction(name string, script []byte, arguments []cadence.Value, gasLimit uint64) (*StorableTransaction, error) {
	argsBytes := make([][]byte, len(arguments))
	for i, a := range arguments {
		b, err := c_json.Encode(a)
		if err != nil {
			return nil, err
		}
		argsBytes[i] = b
	}

	argsJSON, err := json.Marshal(argsBytes)
	if err != nil {
		return nil, err
	}

	transaction := StorableTransaction{
		State:     common.TransactionStateInit,
		Name:      name,
		Script:    string(script),
		Arguments: argsJSON,
		GasLimit:  gasLimit,
	}

	return &transaction, nil
}

func NewTransactionWithMintID(name string, script []byte, arguments []cadence.Value, gasLimit uint64, mintID uuid.UUID) (*StorableTransaction, error) {
	t, err := NewTransaction(name, script, arguments, gasLimit)
	if err != nil {
		return nil, err
	}
	t.MintID = mintID
	return t, nil
}

func (t *StorableTransaction) ArgumentsAsCadence() ([]cadence.Value, error) {
	bytes := [][]byte{}
	if err := json.Unmarshal(t.Arguments, &bytes); err != nil {
		return nil, err
	}

	argsCadence := make([]cadence.Value, len(bytes))
	for i, a := range bytes {
		b, err := c_json.Decode(a)
		if err != nil {
			return nil, err
		}
		argsCadence[i] = b
	}

	return argsCadence, nil
}

// Prepare parses the transaction into a sendable, signed state.
func (t *StorableTransaction) Prepare(ctx context.Context, flowClient flow_helpers.FlowClient, account *flow_helpers.Account) (*flow.Transaction, error) {
	args, err := t.ArgumentsAsCadence()
	if err != nil {
		return nil, err
	}

	tx := flow.NewTransaction().
		SetScript([]byte(t.Script)).
		SetGasLimit(t.GasLimit)

	for _, a := range args {
		if err := tx.AddArgument(a); err != nil {
			return nil, err
		}
	}

	latestBlockHeader, err := flowClient.GetLatestBlockHeader(ctx, true)
	if err != nil {
		return nil, err
	}

	tx.SetReferenceBlockID(latestBlockHeader.ID)

	if err := flow_helpers.SignProposeAndPayAs(ctx, flowClient, account, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// HandleResult updates the StorableTransaction from a sealed (or expired)
// transaction result. A failed transaction is final, it is never resent.
func (t *StorableTransaction) HandleResult(result *flow.TransactionResult) error {
	t.Error = ""

	if result.Error != nil {
		args, err := t.ArgumentsAsCadence()
		if err != nil {
			args = nil
		}

		log.WithFields(log.Fields{
			"name":          t.Name,
			"transactionID": t.TransactionID,
			"error":         result.Error.Error(),
			"arguments":     args,
		}).Warn("Error in transaction")

		t.Error = result.Error.Error()
		t.State = common.TransactionStateFailed
		return fmt.Errorf("transaction %s failed: %w", t.TransactionID, result.Error)
	}

	switch result.Status {
	case flow.TransactionStatusSealed:
		t.State = common.TransactionStateComplete
		return nil
	default:
		t.State = common.TransactionStateFailed
		t.Error = fmt.Sprintf("unexpected transaction status %s", result.Status)
		return fmt.Errorf("transaction %s: %s", t.TransactionID, t.Error)
	}
}
