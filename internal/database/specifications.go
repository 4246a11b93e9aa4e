// database defines the interfaces for the previous output replica.
// The replica only mirrors chain data, scan results are never stored.
package database

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var ErrNotFound = errors.New("[no entry found]")

type TxOutStore interface {
	GetTxOuts(txid *chainhash.Hash) ([]*wire.TxOut, error)
	PutTxOuts(txid *chainhash.Hash, outs []*wire.TxOut) error
	Close() error
}
