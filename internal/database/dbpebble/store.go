package dbpebble

import (
	"errors"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/pebble"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/database"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
)

type Store struct {
	DB *pebble.DB
}

var _ database.TxOutStore = (*Store)(nil)

func OpenDB(basePath string) (*pebble.DB, error) {
	dbPath := filepath.Join(basePath, "pebbledb")
	opts := (&pebble.Options{}).EnsureDefaults()
	opts.Cache = pebble.NewCache(64 << 20) // 64 MiB, prevout records are small
	opts.BytesPerSync = 1 << 20            // smoother background flushes (1 MiB)

	return pebble.Open(dbPath, opts)
}

func NewStore(db *pebble.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) GetTxOuts(txid *chainhash.Hash) ([]*wire.TxOut, error) {
	val, closer, err := s.DB.Get(KeyTxOuts(txid[:]))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, database.ErrNotFound
		}
		logging.L.Err(err).Str("txid", txid.String()).Msg("failed to read tx outs")
		return nil, err
	}
	defer closer.Close()

	// val is only valid until closer is closed, decoding copies the data
	return types.DecodeTxOutsFromBytes(val)
}

func (s *Store) PutTxOuts(txid *chainhash.Hash, outs []*wire.TxOut) error {
	val, err := types.EncodeTxOuts(outs)
	if err != nil {
		return err
	}

	// NoSync, a lost write is refetched from the node
	if err = s.DB.Set(KeyTxOuts(txid[:]), val, pebble.NoSync); err != nil {
		logging.L.Err(err).Str("txid", txid.String()).Msg("insert failed")
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
