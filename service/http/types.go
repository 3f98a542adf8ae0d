package http

import (
	"time"

	"github.com/flow-hydraulics/flow-mint-proxy/service/app"
	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/google/uuid"
)

type ReqMint struct {
	Caller common.FlowAddress `json:"caller"`
	// Sealed FlowToken transfer from the caller to the proxy account
	PaymentTransactionID string `json:"paymentTransactionID"`
}

type ReqSetAddress struct {
	Caller  common.FlowAddress `json:"caller"`
	Address common.FlowAddress `json:"address"`
}

type ReqSetMintPrice struct {
	Caller common.FlowAddress `json:"caller"`
	Price  common.Amount      `json:"price"`
}

type ReqTransferAdministrator struct {
	Caller        common.FlowAddress `json:"caller"`
	Administrator common.FlowAddress `json:"administrator"`
}

func (r ReqMint) CallerAddress() common.FlowAddress                  { return r.Caller }
func (r ReqSetAddress) CallerAddress() common.FlowAddress            { return r.Caller }
func (r ReqSetMintPrice) CallerAddress() common.FlowAddress          { return r.Caller }
func (r ReqTransferAdministrator) CallerAddress() common.FlowAddress { return r.Caller }

type ResAddress struct {
	Address common.FlowAddress `json:"address"`
}

type ResMintPrice struct {
	Price common.Amount `json:"price"`
}

type ResConfig struct {
	IssuingAddress common.FlowAddress `json:"issuingAddress"`
	CatalogAddress common.FlowAddress `json:"catalogAddress"`
	MintPrice      common.Amount      `json:"mintPrice"`
	Administrator  common.FlowAddress `json:"administrator"`
	Salt           uint64             `json:"salt"`
}

type ResMint struct {
	ID             uuid.UUID          `json:"mintID"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	Caller         common.FlowAddress `json:"caller"`
	Payment        common.Amount      `json:"payment"`
	PaymentTxID    string             `json:"paymentTransactionID"`
	IssuingAddress common.FlowAddress `json:"issuingAddress"`
	CatalogAddress common.FlowAddress `json:"catalogAddress"`
	State          string             `json:"state"`
	TotalAssets    uint32             `json:"totalAssets,omitempty"`
	AssetID        uint32             `json:"assetID,omitempty"`
	TokenID        common.FlowID      `json:"tokenID"`
	FailureKind    string             `json:"failureKind,omitempty"`
	FailedAt       string             `json:"failedAt,omitempty"`
}

func ResConfigFromApp(s app.ProxyState) ResConfig {
	return ResConfig{
		IssuingAddress: s.IssuingAddress,
		CatalogAddress: s.CatalogAddress,
		MintPrice:      s.MintPrice,
		Administrator:  s.Administrator,
		Salt:           s.Salt,
	}
}

func ResMintFromApp(m *app.Mint) ResMint {
	res := ResMint{
		ID:             m.ID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Caller:         m.Caller,
		Payment:        m.Payment,
		PaymentTxID:    m.PaymentTransactionID,
		IssuingAddress: m.IssuingAddress,
		CatalogAddress: m.CatalogAddress,
		State:          m.State.String(),
		TotalAssets:    m.TotalAssets,
		AssetID:        m.AssetID,
		TokenID:        m.TokenID,
		FailureKind:    m.FailureKind,
	}
	if m.State == common.MintStateFailed {
		res.FailedAt = m.FailedAt.String()
	}
	return res
}

func ResMintListFromApp(mm []app.Mint) []ResMint {
	res := make([]ResMint, len(mm))
	for i := range mm {
		res[i] = ResMintFromApp(&mm[i])
	}
	return res
}
