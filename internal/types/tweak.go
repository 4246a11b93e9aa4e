package types

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const TweakDataLength = 33

// TweakRecord holds the compressed tweak of one qualifying transaction.
// TxIndex is the position of the transaction inside its block.
type TweakRecord struct {
	TxIndex int                   `json:"tx_index"`
	Txid    chainhash.Hash        `json:"txid"`
	Tweak   [TweakDataLength]byte `json:"tweak"`
}

func (t *TweakRecord) TweakHex() string {
	return hex.EncodeToString(t.Tweak[:])
}

// ScanResult is the complete, ordered tweak set of one block
type ScanResult struct {
	BlockHash chainhash.Hash
	Height    int64
	Tweaks    []TweakRecord
}

// TweakData flattens the records into the plain list of compressed keys
func (r *ScanResult) TweakData() [][TweakDataLength]byte {
	data := make([][TweakDataLength]byte, len(r.Tweaks))
	for i := range r.Tweaks {
		data[i] = r.Tweaks[i].Tweak
	}
	return data
}
