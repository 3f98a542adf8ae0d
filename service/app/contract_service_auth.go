package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/flow-hydraulics/flow-mint-proxy/service/common"
	"github.com/flow-hydraulics/flow-mint-proxy/service/errors"
	"github.com/flow-hydraulics/flow-mint-proxy/service/flow_helpers"
	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FlowToken event names
const (
	TOKENS_WITHDRAWN = "TokensWithdrawn"
	TOKENS_DEPOSITED = "TokensDeposited"
)

// VerifyPayment reads a sealed transaction and sums the FlowToken moved from
// 'caller' to the proxy account. Every token deposited to the proxy account
// must have been withdrawn from the caller.
func (svc *ContractService) VerifyPayment(ctx context.Context, caller common.FlowAddress, transactionID string) (VerifiedPayment, error) {
	h := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(transactionID)), "0x")
	id := flow.HexToID(h)
	if len(h) != 2*len(id) || id == flow.EmptyID {
		return VerifiedPayment{}, fmt.Errorf("invalid payment transaction id %q", transactionID)
	}

	result, err := svc.flowClient.GetTransactionResult(ctx, id)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return VerifiedPayment{}, fmt.Errorf("payment transaction %s not found", id)
		}
		return VerifiedPayment{}, errors.New(errors.KindRemoteError, err)
	}

	if result.Status != flow.TransactionStatusSealed {
		return VerifiedPayment{}, fmt.Errorf("payment transaction %s is not sealed (%s)", id, result.Status)
	}
	if result.Error != nil {
		return VerifiedPayment{}, fmt.Errorf("payment transaction %s failed: %w", id, result.Error)
	}

	flowToken := common.FlowAddressFromString(svc.cfg.FlowTokenAddress).Hex()
	withdrawnType := fmt.Sprintf("A.%s.FlowToken.%s", flowToken, TOKENS_WITHDRAWN)
	depositedType := fmt.Sprintf("A.%s.FlowToken.%s", flowToken, TOKENS_DEPOSITED)
	proxy := common.FlowAddress(svc.account.Address)

	var withdrawn, deposited uint64

	for _, e := range result.Events {
		switch e.Type {
		case withdrawnType:
			amount, from, err := tokenEventValues(e, "from")
			if err != nil {
				return VerifiedPayment{}, err
			}
			if from == caller {
				withdrawn += uint64(amount)
			}
		case depositedType:
			amount, to, err := tokenEventValues(e, "to")
			if err != nil {
				return VerifiedPayment{}, err
			}
			if to == proxy {
				deposited += uint64(amount)
			}
		}
	}

	if deposited == 0 {
		return VerifiedPayment{}, fmt.Errorf("payment transaction %s deposits nothing to %s", id, proxy)
	}
	if withdrawn < deposited {
		return VerifiedPayment{}, fmt.Errorf("payment transaction %s is not funded by %s", id, caller)
	}

	log.WithFields(log.Fields{
		"method":        "VerifyPayment",
		"caller":        caller,
		"transactionID": id.Hex(),
		"amount":        common.Amount(deposited),
	}).Debug("Payment verified")

	return VerifiedPayment{TransactionID: id.Hex(), Amount: common.Amount(deposited)}, nil
}

// VerifyCallerSignature checks 'signature' over 'message' against the key
// 'keyIndex' of the caller's account.
func (svc *ContractService) VerifyCallerSignature(ctx context.Context, caller common.FlowAddress, keyIndex int, message, signature []byte) error {
	account, err := svc.flowClient.GetAccount(ctx, flow.Address(caller))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.New(errors.KindNotAuthorized, err)
		}
		return errors.New(errors.KindRemoteError, err)
	}

	if err := flow_helpers.VerifyAccountKeySignature(account, keyIndex, message, signature); err != nil {
		return errors.New(errors.KindNotAuthorized, err)
	}

	return nil
}

// tokenEventValues reads the amount and the optional address field of a
// FlowToken event. A missing address reads as the empty address.
func tokenEventValues(e flow.Event, addressField string) (common.Amount, common.FlowAddress, error) {
	values := flow_helpers.EventValuesToMap(e)

	amount, err := common.AmountFromCadence(values["amount"])
	if err != nil {
		return 0, common.FlowAddress{}, fmt.Errorf("unexpected %s event: %w", e.Type, err)
	}

	v := values[addressField]
	if o, ok := v.(cadence.Optional); ok {
		if o.Value == nil {
			return amount, common.FlowAddress{}, nil
		}
		v = o.Value
	}

	address, err := common.FlowAddressFromCadence(v)
	if err != nil {
		return 0, common.FlowAddress{}, fmt.Errorf("unexpected %s event: %w", e.Type, err)
	}

	return amount, address, nil
}
