package indexer

import (
	"bytes"
	"fmt"

	"github.com/setavenger/blindbit-tweakscan/internal/types"
)

// SmallestOutpoint returns the outpoint with the lexicographically smallest
// serialisation over all inputs of a transaction, eligible or not.
func SmallestOutpoint(ins []types.TxInput) (types.Outpoint, error) {
	if len(ins) == 0 {
		return types.Outpoint{}, ErrNoInputs
	}

	seen := make(map[[types.OutpointLength]byte]struct{}, len(ins))

	smallest := ins[0].PrevOut
	smallestSer := smallest.Serialise()
	for i := range ins {
		ser := ins[i].PrevOut.Serialise()
		if _, ok := seen[ser]; ok {
			return types.Outpoint{}, fmt.Errorf("%w: %s", ErrDuplicateOutpoint, ins[i].PrevOut)
		}
		seen[ser] = struct{}{}

		if bytes.Compare(ser[:], smallestSer[:]) < 0 {
			smallest = ins[i].PrevOut
			smallestSer = ser
		}
	}

	return smallest, nil
}
