package chain

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/jellydator/ttlcache/v3"
	"github.com/setavenger/blindbit-tweakscan/internal/metrics"
)

const layerTTL = "ttl"

// CachedProvider keeps transaction outputs across scans.
// Blocks and hashes are passed through, a reorg can change them.
type CachedProvider struct {
	Provider
	txOuts *ttlcache.Cache[chainhash.Hash, []*wire.TxOut]
}

// NewCachedProvider wraps p. A capacity of 0 bounds entries by ttl only,
// callers that want no cache should not wrap the provider.
func NewCachedProvider(p Provider, ttl time.Duration, capacity uint64) *CachedProvider {
	opts := []ttlcache.Option[chainhash.Hash, []*wire.TxOut]{
		ttlcache.WithTTL[chainhash.Hash, []*wire.TxOut](ttl),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[chainhash.Hash, []*wire.TxOut](capacity))
	}

	c := &CachedProvider{
		Provider: p,
		txOuts:   ttlcache.New[chainhash.Hash, []*wire.TxOut](opts...),
	}
	go c.txOuts.Start()
	return c
}

func (c *CachedProvider) GetTxOuts(ctx context.Context, txid *chainhash.Hash) ([]*wire.TxOut, error) {
	if item := c.txOuts.Get(*txid); item != nil {
		metrics.ProviderCacheEvents.WithLabelValues(layerTTL, "hit").Inc()
		return item.Value(), nil
	}
	metrics.ProviderCacheEvents.WithLabelValues(layerTTL, "miss").Inc()

	outs, err := c.Provider.GetTxOuts(ctx, txid)
	if err != nil {
		return nil, err
	}
	c.txOuts.Set(*txid, outs, ttlcache.DefaultTTL)
	return outs, nil
}

func (c *CachedProvider) Len() int {
	return c.txOuts.Len()
}

// Close stops the expiry loop
func (c *CachedProvider) Close() {
	c.txOuts.Stop()
}
