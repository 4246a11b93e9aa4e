package indexer

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcutil/gcs"
	"github.com/btcsuite/btcutil/gcs/builder"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
)

// TaprootOutputKeys returns the x-only keys of all taproot outputs in the block
func TaprootOutputKeys(block *types.Block) [][]byte {
	var keys [][]byte
	for _, tx := range block.Txs {
		for _, out := range tx.Outs {
			if txscript.IsPayToTaproot(out.PkScript) {
				keys = append(keys, out.PkScript[2:])
			}
		}
	}
	return keys
}

// BuildTaprootPubkeyFilter creates the taproot only filter.
// A block without taproot outputs has no filter.
func BuildTaprootPubkeyFilter(block *types.Block) ([]byte, error) {
	taprootOutputs := TaprootOutputKeys(block)
	if len(taprootOutputs) == 0 {
		return nil, nil
	}

	key := builder.DeriveKey(&block.Hash)

	filter, err := gcs.BuildGCSFilter(builder.DefaultP, builder.DefaultM, key, taprootOutputs)
	if err != nil {
		logging.L.Err(err).Str("blockhash", block.Hash.String()).Msg("failed to build GCS filter")
		return nil, err
	}

	nBytes, err := filter.NBytes()
	if err != nil {
		logging.L.Err(err).Str("blockhash", block.Hash.String()).Msg("failed to get NBytes")
		return nil, err
	}

	return nBytes, nil
}
