// Package chain provides access to block and transaction data of a node.
package chain

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/setavenger/blindbit-tweakscan/internal/metrics"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrUnexpectedData is returned when the node answers with an object other than the one requested
	ErrUnexpectedData = errors.New("node returned unexpected data")
)

// Provider resolves the chain data a block scan needs.
// Implementations own their timeout and retry policy.
type Provider interface {
	GetBlock(ctx context.Context, blockHash *chainhash.Hash) (*wire.MsgBlock, error)
	GetBlockHash(ctx context.Context, height int64) (*chainhash.Hash, error)
	// GetTxOuts returns all outputs of a transaction indexed by their position
	GetTxOuts(ctx context.Context, txid *chainhash.Hash) ([]*wire.TxOut, error)
}

// newHTTPClient pools connections, a block scan opens many requests against the same host
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,

			// Pooling / reuse
			MaxIdleConns:        200,
			MaxIdleConnsPerHost: 100,
			MaxConnsPerHost:     0,

			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

func observe(backend, method string, err error) {
	outcome := "ok"
	if errors.Is(err, ErrNotFound) {
		outcome = "not_found"
	} else if err != nil {
		outcome = "error"
	}
	metrics.ProviderRequests.WithLabelValues(backend, method, outcome).Inc()
}
