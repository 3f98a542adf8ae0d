package app

import (
	"fmt"
	"time"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProxyState is the configuration of the proxy. Exactly one row exists,
// identified by StorageKey.
type ProxyState struct {
	StorageKey     uint32             `gorm:"column:storage_key;primaryKey;autoIncrement:false"`
	IssuingAddress common.FlowAddress `gorm:"column:issuing_address"`
	CatalogAddress common.FlowAddress `gorm:"column:catalog_address"`
	MintPrice      common.Amount      `gorm:"column:mint_price"`
	Salt           uint64             `gorm:"column:salt"`
	Administrator  common.FlowAddress `gorm:"column:administrator"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Mint records the progress of a single mint call through the remote call sequence.
// Records are created once the payment has been checked.
type Mint struct {
	gorm.Model
	ID uuid.UUID `gorm:"column:id;primary_key;type:uuid;"`

	Caller  common.FlowAddress `gorm:"column:caller;index"`
	Payment common.Amount      `gorm:"column:payment"`
	// A payment pays for one mint only
	PaymentTransactionID string             `gorm:"column:payment_transaction_id;uniqueIndex"`
	IssuingAddress       common.FlowAddress `gorm:"column:issuing_address"`
	CatalogAddress       common.FlowAddress `gorm:"column:catalog_address"`
	State          common.MintState   `gorm:"column:state;not null;index"`
	TotalAssets    uint32             `gorm:"column:total_assets"`
	AssetID        uint32             `gorm:"column:asset_id"`
	Salt           uint64             `gorm:"column:salt"`
	Digest         common.BinaryValue `gorm:"column:digest"`
	TokenID        common.FlowID      `gorm:"column:token_id;index"`
	FailureKind    string             `gorm:"column:failure_kind"`
	// Last state reached before failing
	FailedAt common.MintState `gorm:"column:failed_at"`
}

// VerifiedPayment is a fee transfer from the caller to the proxy account
// confirmed on chain.
type VerifiedPayment struct {
	// Canonical form, used to spend the payment only once
	TransactionID string
	Amount        common.Amount
}

// MintReceipt is what the issuing contract reports back from a mint.
type MintReceipt struct {
	// Token id announced by the contract, if it announces one
	TokenID common.FlowID
}

type ListOptions struct {
	Limit  int
	Offset int
}

const DefaultLimit = 1000

func ParseListOptions(limit, offset int) ListOptions {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 {
		limit = -1
		offset = 0
	}
	if offset < 0 {
		offset = 0
	}
	return ListOptions{Limit: limit, Offset: offset}
}

func (ProxyState) TableName() string {
	return "proxy_state"
}

func (m *Mint) Contracts() Contracts {
	return Contracts{Issuing: m.IssuingAddress, Catalog: m.CatalogAddress}
}

func (Mint) TableName() string {
	return "mints"
}

func (m *Mint) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// SetState moves the mint forward in the remote call sequence.
// Steps can not be skipped or repeated and terminal states are final.
func (m *Mint) SetState(next common.MintState) error {
	if m.State.IsTerminal() {
		return fmt.Errorf("mint %s already in terminal state %s", m.ID, m.State)
	}
	if next == common.MintStateFailed || next == m.State+1 {
		m.State = next
		return nil
	}
	return fmt.Errorf("mint %s can not move from %s to %s", m.ID, m.State, next)
}

func (m *Mint) SetFailed(kind string) error {
	reached := m.State
	if err := m.SetState(common.MintStateFailed); err != nil {
		return err
	}
	m.FailedAt = reached
	m.FailureKind = kind
	return nil
}
