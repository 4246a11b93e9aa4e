package indexer

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
	"github.com/setavenger/go-bip352"
)

const inputsTag = "BIP0352/Inputs"

// AggregateTweak returns input_hash·A where A is the sum of keys.
// No keys or a sum at infinity gives no tweak.
func AggregateTweak(smallest types.Outpoint, keys []*btcec.PublicKey) (*btcec.PublicKey, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	sum := SumPublicKeys(keys)
	sum.ToAffine()
	if sum.X.IsZero() && sum.Y.IsZero() {
		logging.L.Warn().
			Str("smallest_outpoint", smallest.String()).
			Int("keys", len(keys)).
			Msg("input keys sum to infinity")
		return nil, nil
	}
	summedKey := btcec.NewPublicKey(&sum.X, &sum.Y)

	inputHash := ComputeInputHash(smallest, summedKey)

	var scalar btcec.ModNScalar
	scalar.SetByteSlice(inputHash[:])
	if scalar.IsZero() {
		return nil, ErrZeroInputHash
	}

	var tweak btcec.JacobianPoint
	btcec.ScalarMultNonConst(&scalar, &sum, &tweak)
	tweak.ToAffine()

	return btcec.NewPublicKey(&tweak.X, &tweak.Y), nil
}

// SumPublicKeys adds keys in jacobian form, the result may be the point at infinity
func SumPublicKeys(keys []*btcec.PublicKey) btcec.JacobianPoint {
	var sum, point, next btcec.JacobianPoint
	for i, key := range keys {
		if i == 0 {
			key.AsJacobian(&sum)
			continue
		}
		key.AsJacobian(&point)
		btcec.AddNonConst(&sum, &point, &next)
		sum = next
	}
	return sum
}

// ComputeInputHash is TaggedHash("BIP0352/Inputs", outpoint || A)
func ComputeInputHash(smallest types.Outpoint, summedKey *btcec.PublicKey) [32]byte {
	outpoint := smallest.Serialise()

	msg := make([]byte, 0, types.OutpointLength+btcec.PubKeyBytesLenCompressed)
	msg = append(msg, outpoint[:]...)
	msg = append(msg, summedKey.SerializeCompressed()...)

	return bip352.HashTagged(inputsTag, msg)
}

// ComputeTweakPerTx runs classification and aggregation for one transaction whose
// previous output scripts are already resolved, prevScripts[i] belongs to tx.Ins[i].
func ComputeTweakPerTx(tx *types.Transaction, prevScripts [][]byte) (*btcec.PublicKey, int, error) {
	smallest, err := SmallestOutpoint(tx.Ins)
	if err != nil {
		return nil, -1, err
	}

	var keys []*btcec.PublicKey
	for i := range tx.Ins {
		pubKey, err := ClassifyInput(tx.Ins[i].ScriptSig, tx.Ins[i].Witness, prevScripts[i])
		if err != nil {
			return nil, i, err
		}
		if pubKey != nil {
			keys = append(keys, pubKey)
		}
	}

	tweak, err := AggregateTweak(smallest, keys)
	if err != nil {
		return nil, -1, err
	}
	return tweak, -1, nil
}
