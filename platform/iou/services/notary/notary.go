/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package notary

import (
	"context"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	driver2 "github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/kvs"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("iou.notary")

const consumedPrefix = "consumed"

// Notary signs the transactions whose inputs were never consumed before.
// It is the single point that orders attempts on the same version of an obligation.
type Notary struct {
	identity  view.Identity
	signer    driver2.Signer
	verifiers contract.VerifierProvider
	kvs       *kvs.KVS
	m         *Metrics

	lock sync.Mutex
}

func New(identity view.Identity, signer driver2.Signer, verifiers contract.VerifierProvider, store *kvs.KVS, metricsProvider metrics.Provider) *Notary {
	return &Notary{
		identity:  identity,
		signer:    signer,
		verifiers: verifiers,
		kvs:       store,
		m:         newMetrics(metricsProvider),
	}
}

func (n *Notary) Identity() view.Identity {
	return n.identity
}

// Finalize checks the contract and the signatures of tx, records its inputs as consumed
// and returns a copy carrying the notary signature.
// Finalizing the same transaction twice returns the same outcome.
func (n *Notary) Finalize(ctx context.Context, stx *contract.SignedTransaction) (*contract.SignedTransaction, error) {
	res, err := n.finalize(ctx, stx)
	n.m.Requests.With(OutcomeLabel, outcome(err)).Add(1)
	if err != nil {
		logger.Warnf("refused transaction [%s]: %s", stx.ID(), err)
		return nil, err
	}
	logger.Infof("notarised transaction [%s]", stx.ID())
	return res, nil
}

func (n *Notary) finalize(ctx context.Context, stx *contract.SignedTransaction) (*contract.SignedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(driver.ErrTransport, "notary request aborted: %s", err)
	}
	if !n.identity.Equal(stx.Transaction.Notary) {
		return nil, errors.Wrapf(driver.ErrRejected, "transaction [%s] names another notary", stx.ID())
	}
	if err := stx.Verify(n.verifiers); err != nil {
		return nil, err
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	keys := make([]string, len(stx.Transaction.Inputs))
	for i, in := range stx.Transaction.Inputs {
		k, err := kvs.CreateCompositeKey(consumedPrefix, []string{in.Ref.TxID, in.Ref.String()})
		if err != nil {
			return nil, errors.Wrapf(driver.ErrRejected, "invalid input reference [%s]: %s", in.Ref, err)
		}
		var consumer string
		err = n.kvs.Get(k, &consumer)
		switch {
		case err == nil && consumer != stx.ID():
			return nil, errors.Wrapf(driver.ErrConflict, "input [%s] already consumed by [%s]", in.Ref, consumer)
		case err != nil && !errors.Is(err, kvs.ErrNotFound):
			return nil, errors.WithMessagef(err, "failed checking input [%s]", in.Ref)
		}
		keys[i] = k
	}

	sigma, err := n.signer.Sign([]byte(stx.ID()))
	if err != nil {
		return nil, errors.Wrapf(err, "failed signing transaction [%s]", stx.ID())
	}
	if len(keys) != 0 {
		err = n.kvs.Update(func(tx *kvs.Tx) error {
			for _, k := range keys {
				if err := tx.Put(k, stx.ID()); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "failed recording the inputs of [%s]", stx.ID())
		}
	}

	res := *stx
	res.Signatures = append([]contract.Signature(nil), stx.Signatures...)
	res.NotarySignature = sigma
	return &res, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "notarised"
	case errors.Is(err, driver.ErrConflict):
		return "conflict"
	case errors.Is(err, driver.ErrRejected):
		return "rejected"
	default:
		return "failed"
	}
}
