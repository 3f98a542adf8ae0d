package common

// MintState tracks how far a single mint got through the remote call sequence.
type MintState uint

type TransactionState uint

const (
	MintStateIdle MintState = iota
	MintStatePaymentChecked
	MintStateAssetCountQueried
	MintStateMinted
	MintStateAssetAttached
	MintStateOwnershipTransferred
	MintStateFailed
)

var mintStateNames = [...]string{
	"idle",
	"paymentChecked",
	"assetCountQueried",
	"minted",
	"assetAttached",
	"ownershipTransferred",
	"failed",
}

func (s MintState) String() string {
	if int(s) < len(mintStateNames) {
		return mintStateNames[s]
	}
	return "unknown"
}

func (s MintState) IsTerminal() bool {
	return s == MintStateOwnershipTransferred || s == MintStateFailed
}

const (
	TransactionStateInit TransactionState = iota
	TransactionStateSent
	TransactionStateFailed
	TransactionStateComplete
)
