package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/setavenger/blindbit-tweakscan/internal/chain"
	"github.com/setavenger/blindbit-tweakscan/internal/metrics"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
	"golang.org/x/sync/singleflight"
)

// prevOutResolver memoises transaction outputs for the lifetime of one block scan.
// Concurrent lookups of the same txid share a single provider call.
type prevOutResolver struct {
	provider chain.Provider
	group    singleflight.Group

	mu   sync.RWMutex
	memo map[chainhash.Hash][]*wire.TxOut
}

func newPrevOutResolver(provider chain.Provider) *prevOutResolver {
	return &prevOutResolver{
		provider: provider,
		memo:     make(map[chainhash.Hash][]*wire.TxOut),
	}
}

// PkScript returns the locking script of the output referenced by outpoint
func (r *prevOutResolver) PkScript(ctx context.Context, outpoint types.Outpoint) ([]byte, error) {
	outs, err := r.txOuts(ctx, &outpoint.Txid)
	if err != nil {
		return nil, err
	}
	if int64(outpoint.Vout) >= int64(len(outs)) {
		return nil, fmt.Errorf("%w: %s, tx has %d outputs", ErrPrevOutIndex, outpoint, len(outs))
	}
	return outs[outpoint.Vout].PkScript, nil
}

func (r *prevOutResolver) txOuts(ctx context.Context, txid *chainhash.Hash) ([]*wire.TxOut, error) {
	r.mu.RLock()
	outs, ok := r.memo[*txid]
	r.mu.RUnlock()
	if ok {
		metrics.PrevOutLookups.WithLabelValues("memo").Inc()
		return outs, nil
	}

	v, err, _ := r.group.Do(txid.String(), func() (any, error) {
		// a flight for this txid may have completed since the first check
		r.mu.RLock()
		outs, ok := r.memo[*txid]
		r.mu.RUnlock()
		if ok {
			return outs, nil
		}

		metrics.PrevOutLookups.WithLabelValues("provider").Inc()
		outs, err := r.provider.GetTxOuts(ctx, txid)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.memo[*txid] = outs
		r.mu.Unlock()
		return outs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get tx outs %s: %w", txid, err)
	}
	return v.([]*wire.TxOut), nil
}

func (r *prevOutResolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.memo)
}
