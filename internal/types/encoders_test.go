package types

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// spenttxouts response of a three transaction block: coinbase (no prevouts) and two
// spends of the same P2WSH script
var spentBytes, _ = hex.DecodeString("030001fcedf305000000002200204ae81572f06e1b88fd5ced7a1a000945432e83e1551e6f721ee9c00b8cc3326001d772cb1d000000002200204ae81572f06e1b88fd5ced7a1a000945432e83e1551e6f721ee9c00b8cc33260")

func TestDecodeSpentTxOuts(t *testing.T) {
	r := bytes.NewReader(spentBytes)

	nTx, err := wire.ReadVarInt(r, wire.ProtocolVersion)
	require.NoError(t, err)
	require.EqualValues(t, 3, nTx)

	coinbase, err := DecodeTxOuts(r)
	require.NoError(t, err)
	require.Empty(t, coinbase)

	first, err := DecodeTxOuts(r)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.EqualValues(t, 99872252, first[0].Value)
	require.Len(t, first[0].PkScript, 34)

	second, err := DecodeTxOuts(r)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.EqualValues(t, 499872471, second[0].Value)
	require.Equal(t, first[0].PkScript, second[0].PkScript)

	require.Zero(t, r.Len())
}

func TestEncodeTxOuts(t *testing.T) {
	outs := []*wire.TxOut{
		{Value: 1000, PkScript: []byte{0x51, 0x20}},
		{Value: 0, PkScript: nil},
	}

	data, err := EncodeTxOuts(outs)
	require.NoError(t, err)

	decoded, err := DecodeTxOutsFromBytes(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	require.EqualValues(t, 1000, decoded[0].Value)
	require.Equal(t, []byte{0x51, 0x20}, decoded[0].PkScript)
	require.Empty(t, decoded[1].PkScript)
}

func TestDecodeTxOutsTruncated(t *testing.T) {
	// count says one output but the value is cut short
	_, err := DecodeTxOutsFromBytes([]byte{0x01, 0xe8, 0x03})
	require.Error(t, err)
}

func TestOutpointSerialise(t *testing.T) {
	var op Outpoint
	op.Txid[0] = 0xaa
	op.Txid[31] = 0xbb
	op.Vout = 256

	ser := op.Serialise()
	require.Equal(t, byte(0xaa), ser[0])
	require.Equal(t, byte(0xbb), ser[31])
	// little endian vout
	require.Equal(t, []byte{0x00, 0x01, 0x00, 0x00}, ser[32:])
}

func TestNewTransactionCoinbase(t *testing.T) {
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		SignatureScript:  []byte{0x03, 0x01, 0x02, 0x03},
	})
	coinbase.AddTxOut(&wire.TxOut{Value: 50, PkScript: []byte{0x51}})

	tx := NewTransaction(coinbase)
	require.True(t, tx.Coinbase)
	require.Len(t, tx.Ins, 1)
	require.Equal(t, wire.MaxPrevOutIndex, tx.Ins[0].PrevOut.Vout)
	require.Equal(t, coinbase.TxHash(), tx.Txid)
}
