package types

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const OutpointLength = 36

// Outpoint identifies a previous output being spent.
type Outpoint struct {
	Txid chainhash.Hash `json:"txid"`
	Vout uint32         `json:"vout"`
}

// Serialise returns the txid in wire byte order followed by the little-endian vout.
// chainhash.Hash already holds the txid in wire order so no reversal is needed.
func (o Outpoint) Serialise() [OutpointLength]byte {
	var out [OutpointLength]byte
	copy(out[:32], o.Txid[:])
	binary.LittleEndian.PutUint32(out[32:], o.Vout)
	return out
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid.String(), o.Vout)
}
