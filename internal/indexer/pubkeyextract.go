package indexer

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/setavenger/go-bip352"
)

const annexTag = 0x50

// ClassifyInput recovers the public key of an input if its spend type is eligible.
// A nil key with a nil error means the input is not eligible.
// The only error is a taproot output key that cannot be lifted.
func ClassifyInput(scriptSig []byte, witness [][]byte, prevPkScript []byte) (*btcec.PublicKey, error) {
	switch {
	case txscript.IsPayToTaproot(prevPkScript):
		return extractPubKeyFromP2TR(witness, prevPkScript)
	case txscript.IsPayToWitnessPubKeyHash(prevPkScript):
		return extractPubKeyFromP2WPKH(witness), nil
	case txscript.IsPayToPubKeyHash(prevPkScript):
		return extractPubKeyFromP2PKH(scriptSig, prevPkScript), nil
	case txscript.IsPayToScriptHash(prevPkScript):
		return extractPubKeyFromP2SH(scriptSig, witness), nil
	default:
		return nil, nil
	}
}

func extractPubKeyFromP2TR(witness [][]byte, prevPkScript []byte) (*btcec.PublicKey, error) {
	witnessStack := witness

	// Remove annex if present
	if len(witnessStack) > 1 {
		last := witnessStack[len(witnessStack)-1]
		if len(last) > 0 && last[0] == annexTag {
			witnessStack = witnessStack[:len(witnessStack)-1]
		}
	}

	// anything but a lone signature is a script-path spend
	if len(witnessStack) != 1 {
		return nil, nil
	}

	pubKey, err := schnorr.ParsePubKey(prevPkScript[2:34])
	if err != nil {
		return nil, fmt.Errorf("%w: %x: %v", ErrInvalidTaprootKey, prevPkScript[2:34], err)
	}
	return pubKey, nil
}

func extractPubKeyFromP2WPKH(witness [][]byte) *btcec.PublicKey {
	if len(witness) != 2 || len(witness[1]) != btcec.PubKeyBytesLenCompressed {
		return nil
	}
	return parseCompressed(witness[1])
}

func extractPubKeyFromP2PKH(scriptSig, prevPkScript []byte) *btcec.PublicKey {
	pushes, ok := scriptPushes(scriptSig)
	if !ok || len(pushes) != 2 {
		return nil
	}

	pubKey := pushes[1]
	if len(pubKey) != btcec.PubKeyBytesLenCompressed {
		return nil
	}

	spkHash := prevPkScript[3:23] // skip op_codes and grab the hash
	if !bytes.Equal(bip352.Hash160(pubKey), spkHash) {
		return nil
	}
	return parseCompressed(pubKey)
}

func extractPubKeyFromP2SH(scriptSig []byte, witness [][]byte) *btcec.PublicKey {
	pushes, ok := scriptPushes(scriptSig)
	if !ok || len(pushes) == 0 {
		return nil
	}

	redeemScript := pushes[len(pushes)-1]
	if !txscript.IsPayToWitnessPubKeyHash(redeemScript) {
		return nil
	}
	return extractPubKeyFromP2WPKH(witness)
}

// scriptPushes returns the data of every push in script.
// ok is false if the script holds a non push opcode or does not parse.
func scriptPushes(script []byte) (pushes [][]byte, ok bool) {
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		if tokenizer.Opcode() > txscript.OP_16 {
			return nil, false
		}
		pushes = append(pushes, tokenizer.Data())
	}
	if tokenizer.Err() != nil {
		return nil, false
	}
	return pushes, true
}

func parseCompressed(b []byte) *btcec.PublicKey {
	if b[0] != 0x02 && b[0] != 0x03 {
		return nil
	}
	pubKey, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil
	}
	return pubKey
}
