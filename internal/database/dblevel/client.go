package dblevel

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/database"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
	"github.com/syndtr/goleveldb/leveldb"
)

type Store struct {
	db *leveldb.DB
}

var _ database.TxOutStore = (*Store)(nil)

// OpenDBConnection opens the leveldb instance at path
func OpenDBConnection(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		logging.L.Err(err).Str("path", path).Msg("error opening db connection")
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) GetTxOuts(txid *chainhash.Hash) ([]*wire.TxOut, error) {
	data, err := s.db.Get(txid[:], nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, database.ErrNotFound
		}
		logging.L.Err(err).Str("txid", txid.String()).Msg("error getting tx outs")
		return nil, err
	}
	if len(data) == 0 {
		return nil, database.ErrNotFound
	}

	return types.DecodeTxOutsFromBytes(data)
}

func (s *Store) PutTxOuts(txid *chainhash.Hash, outs []*wire.TxOut) error {
	value, err := types.EncodeTxOuts(outs)
	if err != nil {
		logging.L.Err(err).Msg("error serialising data")
		return err
	}

	if err = s.db.Put(txid[:], value, nil); err != nil {
		logging.L.Err(err).Msg("error inserting tx outs")
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
