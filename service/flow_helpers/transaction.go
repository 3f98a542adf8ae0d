package flow_helpers

import (
	"context"
	"fmt"
	"time"

	"github.com/onflow/flow-go-sdk"
)

func SignProposeAndPayAs(ctx context.Context, flowClient FlowClient, account *Account, tx *flow.Transaction) error {
	key, err := account.GetProposalKey(ctx, flowClient)
	if err != nil {
		return err
	}

	signer, err := account.GetSigner()
	if err != nil {
		return err
	}

	tx.
		SetProposalKey(account.Address, key.Index, key.SequenceNumber).
		SetPayer(account.Address).
		AddAuthorizer(account.Address)

	return tx.SignEnvelope(account.Address, key.Index, signer)
}

// WaitForSeal polls the result of a transaction until it is sealed, expired
// or 'timeout' has passed.
func WaitForSeal(ctx context.Context, flowClient FlowClient, id flow.Identifier, timeout, pollInterval time.Duration) (*flow.TransactionResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		result, err := flowClient.GetTransactionResult(ctx, id)
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case flow.TransactionStatusSealed:
			return result, nil
		case flow.TransactionStatusExpired:
			return result, fmt.Errorf("transaction %s expired", id)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for transaction %s to seal: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}
