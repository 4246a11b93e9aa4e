package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/chain"
	"github.com/setavenger/blindbit-tweakscan/internal/config"
	"github.com/setavenger/blindbit-tweakscan/internal/database"
	"github.com/setavenger/blindbit-tweakscan/internal/database/dblevel"
	"github.com/setavenger/blindbit-tweakscan/internal/database/dbpebble"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newProvider builds the node client and wraps it with the configured replica.
// The returned closer releases the replica.
func newProvider() (chain.Provider, io.Closer, error) {
	var provider chain.Provider
	switch config.Provider {
	case config.BackendRPC:
		provider = chain.NewRPCClient(config.RpcEndpoint, config.RpcUser, config.RpcPass, config.RequestTimeout)
	case config.BackendREST:
		provider = chain.NewRestClient(config.RestEndpoint, config.RequestTimeout)
	default:
		return nil, nil, fmt.Errorf("provider %q: %w", config.Provider, config.ErrUnknownBackend)
	}

	store, err := openReplica()
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return provider, closerFunc(func() error { return nil }), nil
	}

	logging.L.Info().
		Str("backend", string(config.Replica)).
		Str("path", config.ReplicaPath).
		Msg("using previous output replica")
	return chain.NewReplicaProvider(provider, store), store, nil
}

func openReplica() (database.TxOutStore, error) {
	switch config.Replica {
	case config.ReplicaNone:
		return nil, nil
	case config.ReplicaPebble:
		db, err := dbpebble.OpenDB(config.ReplicaPath)
		if err != nil {
			logging.L.Err(err).Msg("failed opening db")
			return nil, err
		}
		return dbpebble.NewStore(db), nil
	case config.ReplicaLevelDB:
		return dblevel.OpenDBConnection(filepath.Join(config.ReplicaPath, "leveldb"))
	default:
		return nil, fmt.Errorf("replica backend %q: %w", config.Replica, config.ErrUnknownBackend)
	}
}
