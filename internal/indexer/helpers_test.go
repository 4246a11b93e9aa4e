package indexer

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/setavenger/blindbit-tweakscan/internal/chain"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
	"github.com/setavenger/go-bip352"
	"github.com/stretchr/testify/require"
)

var dummySig = bytes.Repeat([]byte{0x30}, 71)

func testKey(t *testing.T, seed byte) *btcec.PrivateKey {
	t.Helper()
	raw := bytes.Repeat([]byte{0x11}, 32)
	raw[31] = seed
	priv, _ := btcec.PrivKeyFromBytes(raw)
	return priv
}

func p2wpkhScript(pub *btcec.PublicKey) []byte {
	return append([]byte{txscript.OP_0, txscript.OP_DATA_20}, bip352.Hash160(pub.SerializeCompressed())...)
}

func p2pkhScript(pub *btcec.PublicKey) []byte {
	script := []byte{txscript.OP_DUP, txscript.OP_HASH160, txscript.OP_DATA_20}
	script = append(script, bip352.Hash160(pub.SerializeCompressed())...)
	return append(script, txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG)
}

func p2shScript(redeem []byte) []byte {
	script := []byte{txscript.OP_HASH160, txscript.OP_DATA_20}
	script = append(script, bip352.Hash160(redeem)...)
	return append(script, txscript.OP_EQUAL)
}

func p2trScript(pub *btcec.PublicKey) []byte {
	return append([]byte{txscript.OP_1, txscript.OP_DATA_32}, schnorr.SerializePubKey(pub)...)
}

func pushes(t *testing.T, data ...[]byte) []byte {
	t.Helper()
	b := txscript.NewScriptBuilder()
	for _, d := range data {
		b.AddData(d)
	}
	script, err := b.Script()
	require.NoError(t, err)
	return script
}

func txid(s string) chainhash.Hash {
	return chainhash.DoubleHashH([]byte(s))
}

// expectedTweak computes d·input_hash·G directly from the private keys
func expectedTweak(t *testing.T, smallest types.Outpoint, privs ...*btcec.PrivateKey) [33]byte {
	t.Helper()
	var d btcec.ModNScalar
	for _, priv := range privs {
		d.Add(&priv.Key)
	}
	summed, _ := btcec.PrivKeyFromBytes(scalarBytes(&d))

	// txid in wire order, vout little endian
	msg := append([]byte{}, smallest.Txid[:]...)
	msg = binary.LittleEndian.AppendUint32(msg, smallest.Vout)
	msg = append(msg, summed.PubKey().SerializeCompressed()...)
	inputHash := bip352.HashTagged("BIP0352/Inputs", msg)

	var h btcec.ModNScalar
	h.SetByteSlice(inputHash[:])
	d.Mul(&h)

	tweakPriv, _ := btcec.PrivKeyFromBytes(scalarBytes(&d))
	var out [33]byte
	copy(out[:], tweakPriv.PubKey().SerializeCompressed())
	return out
}

func scalarBytes(s *btcec.ModNScalar) []byte {
	b := s.Bytes()
	return b[:]
}

// fakeProvider serves a fixed set of transactions and counts lookups per txid
type fakeProvider struct {
	txOuts  map[chainhash.Hash][]*wire.TxOut
	blocks  map[chainhash.Hash]*wire.MsgBlock
	heights map[int64]chainhash.Hash
	delay   func(txid *chainhash.Hash) time.Duration

	mu    sync.Mutex
	calls map[chainhash.Hash]int
}

var _ chain.Provider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		txOuts:  make(map[chainhash.Hash][]*wire.TxOut),
		blocks:  make(map[chainhash.Hash]*wire.MsgBlock),
		heights: make(map[int64]chainhash.Hash),
		calls:   make(map[chainhash.Hash]int),
	}
}

func (p *fakeProvider) addTx(id chainhash.Hash, scripts ...[]byte) {
	outs := make([]*wire.TxOut, len(scripts))
	for i, s := range scripts {
		outs[i] = wire.NewTxOut(int64(1000*(i+1)), s)
	}
	p.txOuts[id] = outs
}

func (p *fakeProvider) totalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var n int
	for _, c := range p.calls {
		n += c
	}
	return n
}

func (p *fakeProvider) GetBlock(_ context.Context, blockHash *chainhash.Hash) (*wire.MsgBlock, error) {
	block, ok := p.blocks[*blockHash]
	if !ok {
		return nil, chain.ErrNotFound
	}
	return block, nil
}

func (p *fakeProvider) GetBlockHash(_ context.Context, height int64) (*chainhash.Hash, error) {
	h, ok := p.heights[height]
	if !ok {
		return nil, chain.ErrNotFound
	}
	return &h, nil
}

func (p *fakeProvider) GetTxOuts(ctx context.Context, txid *chainhash.Hash) ([]*wire.TxOut, error) {
	p.mu.Lock()
	p.calls[*txid]++
	p.mu.Unlock()

	if p.delay != nil {
		select {
		case <-time.After(p.delay(txid)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	outs, ok := p.txOuts[*txid]
	if !ok {
		return nil, chain.ErrNotFound
	}
	return outs, nil
}
