package types

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// HeightUnknown marks a block that was resolved by hash only
const HeightUnknown int64 = -1

type TxInput struct {
	PrevOut   Outpoint
	ScriptSig []byte
	Witness   [][]byte
}

type TxOutput struct {
	Value    int64
	PkScript []byte
}

// Transaction is the scan view of a wire transaction.
// It is built once per block scan and never mutated afterwards.
type Transaction struct {
	Txid     chainhash.Hash
	Ins      []TxInput
	Outs     []TxOutput
	Coinbase bool
}

type Block struct {
	Hash   chainhash.Hash
	Height int64
	Txs    []*Transaction
}

// NewTransaction keeps references to the wire slices instead of copying them
func NewTransaction(msgTx *wire.MsgTx) *Transaction {
	tx := &Transaction{
		Txid:     msgTx.TxHash(),
		Ins:      make([]TxInput, len(msgTx.TxIn)),
		Outs:     make([]TxOutput, len(msgTx.TxOut)),
		Coinbase: blockchain.IsCoinBaseTx(msgTx),
	}

	for i, in := range msgTx.TxIn {
		tx.Ins[i] = TxInput{
			PrevOut: Outpoint{
				Txid: in.PreviousOutPoint.Hash,
				Vout: in.PreviousOutPoint.Index,
			},
			ScriptSig: in.SignatureScript,
			Witness:   in.Witness,
		}
	}

	for i, out := range msgTx.TxOut {
		tx.Outs[i] = TxOutput{
			Value:    out.Value,
			PkScript: out.PkScript,
		}
	}

	return tx
}

func NewBlock(msgBlock *wire.MsgBlock, height int64) *Block {
	block := &Block{
		Hash:   msgBlock.BlockHash(),
		Height: height,
		Txs:    make([]*Transaction, len(msgBlock.Transactions)),
	}
	for i, msgTx := range msgBlock.Transactions {
		block.Txs[i] = NewTransaction(msgTx)
	}
	return block
}
