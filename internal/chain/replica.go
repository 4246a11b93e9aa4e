package chain

import (
	"context"
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/database"
	"github.com/setavenger/blindbit-tweakscan/internal/metrics"
)

const layerReplica = "replica"

// ReplicaProvider reads transaction outputs from a local store first
// and writes through whatever it had to fetch from the node.
type ReplicaProvider struct {
	Provider
	store database.TxOutStore
}

func NewReplicaProvider(p Provider, store database.TxOutStore) *ReplicaProvider {
	return &ReplicaProvider{Provider: p, store: store}
}

func (r *ReplicaProvider) GetTxOuts(ctx context.Context, txid *chainhash.Hash) ([]*wire.TxOut, error) {
	outs, err := r.store.GetTxOuts(txid)
	switch {
	case err == nil:
		metrics.ProviderCacheEvents.WithLabelValues(layerReplica, "hit").Inc()
		return outs, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, err
	}
	metrics.ProviderCacheEvents.WithLabelValues(layerReplica, "miss").Inc()

	outs, err = r.Provider.GetTxOuts(ctx, txid)
	if err != nil {
		return nil, err
	}

	if err = r.store.PutTxOuts(txid, outs); err != nil {
		logging.L.Warn().Err(err).Str("txid", txid.String()).Msg("could not write tx outs to replica")
	}
	return outs, nil
}

func (r *ReplicaProvider) Close() error {
	return r.store.Close()
}
