package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const (
	restEndpoint = "http://node.test:8332"
	rpcEndpoint  = "http://node.test:8332/"
)

func testTx() *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	prev := chainhash.DoubleHashH([]byte("funding"))
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prev, 1), nil, nil))
	tx.AddTxOut(wire.NewTxOut(1000, append([]byte{0x51, 0x20}, bytes.Repeat([]byte{0x02}, 32)...)))
	tx.AddTxOut(wire.NewTxOut(2000, append([]byte{0x00, 0x14}, bytes.Repeat([]byte{0x03}, 20)...)))
	return tx
}

func testBlock() *wire.MsgBlock {
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex), []byte{0x01, 0x01}, nil))
	coinbase.AddTxOut(wire.NewTxOut(50, []byte{0x6a}))

	block := wire.NewMsgBlock(wire.NewBlockHeader(1, &chainhash.Hash{}, &chainhash.Hash{}, 0x1d00ffff, 7))
	block.Header.Timestamp = time.Unix(1700000000, 0)
	_ = block.AddTransaction(coinbase)
	_ = block.AddTransaction(testTx())
	return block
}

func blockBytes(t *testing.T, block *wire.MsgBlock) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, block.Serialize(&buf))
	return buf.Bytes()
}

func txBytes(t *testing.T, tx *wire.MsgTx) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return buf.Bytes()
}

func TestRestGetBlock(t *testing.T) {
	c := NewRestClient(restEndpoint+"/", time.Second)
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	block := testBlock()
	hash := block.BlockHash()
	httpmock.RegisterResponder(http.MethodGet,
		fmt.Sprintf("%s/rest/block/%s.bin", restEndpoint, hash),
		httpmock.NewBytesResponder(http.StatusOK, blockBytes(t, block)),
	)

	got, err := c.GetBlock(context.Background(), &hash)
	require.NoError(t, err)
	require.Len(t, got.Transactions, 2)
	require.Equal(t, hash, got.BlockHash())
}

func TestRestGetBlockHashMismatch(t *testing.T) {
	c := NewRestClient(restEndpoint, time.Second)
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	other := chainhash.DoubleHashH([]byte("other"))
	httpmock.RegisterResponder(http.MethodGet,
		fmt.Sprintf("%s/rest/block/%s.bin", restEndpoint, other),
		httpmock.NewBytesResponder(http.StatusOK, blockBytes(t, testBlock())),
	)

	_, err := c.GetBlock(context.Background(), &other)
	require.ErrorIs(t, err, ErrUnexpectedData)
}

func TestRestGetBlockHash(t *testing.T) {
	c := NewRestClient(restEndpoint, time.Second)
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	want := chainhash.DoubleHashH([]byte("block 840000"))
	httpmock.RegisterResponder(http.MethodGet,
		restEndpoint+"/rest/blockhashbyheight/840000.bin",
		httpmock.NewBytesResponder(http.StatusOK, want[:]),
	)
	httpmock.RegisterResponder(http.MethodGet,
		restEndpoint+"/rest/blockhashbyheight/1.bin",
		httpmock.NewBytesResponder(http.StatusOK, want[:10]),
	)

	got, err := c.GetBlockHash(context.Background(), 840000)
	require.NoError(t, err)
	require.Equal(t, want, *got)

	_, err = c.GetBlockHash(context.Background(), 1)
	require.Error(t, err)
}

func TestRestGetTxOuts(t *testing.T) {
	c := NewRestClient(restEndpoint, time.Second)
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	tx := testTx()
	txid := tx.TxHash()
	missing := chainhash.DoubleHashH([]byte("missing"))
	httpmock.RegisterResponder(http.MethodGet,
		fmt.Sprintf("%s/rest/tx/%s.bin", restEndpoint, txid),
		httpmock.NewBytesResponder(http.StatusOK, txBytes(t, tx)),
	)
	httpmock.RegisterResponder(http.MethodGet,
		fmt.Sprintf("%s/rest/tx/%s.bin", restEndpoint, missing),
		httpmock.NewStringResponder(http.StatusNotFound, "Transaction not found"),
	)
	httpmock.RegisterResponder(http.MethodGet,
		fmt.Sprintf("%s/rest/tx/%s.bin", restEndpoint, chainhash.Hash{}),
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "warming up"),
	)

	outs, err := c.GetTxOuts(context.Background(), &txid)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	require.EqualValues(t, 2000, outs[1].Value)

	_, err = c.GetTxOuts(context.Background(), &missing)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetTxOuts(context.Background(), &chainhash.Hash{})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "warming up")
}

func rpcResult(result string) string {
	return fmt.Sprintf(`{"result":%s,"error":null,"id":"%s"}`, result, rpcID)
}

func rpcFailure(code int, msg string) string {
	return fmt.Sprintf(`{"result":null,"error":{"code":%d,"message":%q},"id":"%s"}`, code, msg, rpcID)
}

func TestRPCGetBlockAndTx(t *testing.T) {
	c := NewRPCClient(rpcEndpoint, "user", "pass", time.Second)
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	block := testBlock()
	hash := block.BlockHash()
	tx := testTx()

	httpmock.RegisterResponder(http.MethodPost, rpcEndpoint, func(req *http.Request) (*http.Response, error) {
		user, pass, ok := req.BasicAuth()
		if !ok || user != "user" || pass != "pass" {
			return httpmock.NewStringResponse(http.StatusUnauthorized, ""), nil
		}

		var body bytes.Buffer
		_, _ = body.ReadFrom(req.Body)
		switch {
		case bytes.Contains(body.Bytes(), []byte(`"getblock"`)):
			return httpmock.NewStringResponse(http.StatusOK, rpcResult(`"`+hex.EncodeToString(blockBytes(t, block))+`"`)), nil
		case bytes.Contains(body.Bytes(), []byte(`"getblockhash"`)):
			return httpmock.NewStringResponse(http.StatusOK, rpcResult(`"`+hash.String()+`"`)), nil
		case bytes.Contains(body.Bytes(), []byte(`"getrawtransaction"`)):
			return httpmock.NewStringResponse(http.StatusOK, rpcResult(`"`+hex.EncodeToString(txBytes(t, tx))+`"`)), nil
		}
		return httpmock.NewStringResponse(http.StatusNotFound, rpcFailure(rpcMethodNotFound, "Method not found")), nil
	})

	got, err := c.GetBlock(context.Background(), &hash)
	require.NoError(t, err)
	require.Equal(t, hash, got.BlockHash())

	gotHash, err := c.GetBlockHash(context.Background(), 12)
	require.NoError(t, err)
	require.Equal(t, hash, *gotHash)

	txid := tx.TxHash()
	outs, err := c.GetTxOuts(context.Background(), &txid)
	require.NoError(t, err)
	require.Len(t, outs, 2)
}

func TestRPCErrors(t *testing.T) {
	c := NewRPCClient(rpcEndpoint, "user", "wrong", time.Second)
	httpmock.ActivateNonDefault(c.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, rpcEndpoint,
		httpmock.NewStringResponder(http.StatusInternalServerError,
			rpcFailure(rpcInvalidAddressOrKey, "No such mempool or blockchain transaction")),
	)

	txid := chainhash.DoubleHashH([]byte("missing"))
	_, err := c.GetTxOuts(context.Background(), &txid)
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, IsRPCError(err))

	httpmock.RegisterResponder(http.MethodPost, rpcEndpoint,
		httpmock.NewStringResponder(http.StatusUnauthorized, ""),
	)
	_, err = c.GetBlockHash(context.Background(), 1)
	require.Error(t, err)
	require.False(t, IsRPCError(err))
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestGetTxOutsRejectsOtherTx(t *testing.T) {
	tx := testTx()
	requested := chainhash.DoubleHashH([]byte("requested"))

	rest := NewRestClient(restEndpoint, time.Second)
	httpmock.ActivateNonDefault(rest.client)
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder(http.MethodGet,
		fmt.Sprintf("%s/rest/tx/%s.bin", restEndpoint, requested),
		httpmock.NewBytesResponder(http.StatusOK, txBytes(t, tx)),
	)

	_, err := rest.GetTxOuts(context.Background(), &requested)
	require.ErrorIs(t, err, ErrUnexpectedData)

	rpc := NewRPCClient(rpcEndpoint, "user", "pass", time.Second)
	httpmock.ActivateNonDefault(rpc.client)
	httpmock.RegisterResponder(http.MethodPost, rpcEndpoint,
		httpmock.NewStringResponder(http.StatusOK, rpcResult(`"`+hex.EncodeToString(txBytes(t, tx))+`"`)),
	)

	_, err = rpc.GetTxOuts(context.Background(), &requested)
	require.ErrorIs(t, err, ErrUnexpectedData)
	require.False(t, IsRPCError(err))
}

// countingProvider serves testTx for every txid
type countingProvider struct {
	Provider
	calls atomic.Int32
	err   error
}

func (p *countingProvider) GetTxOuts(_ context.Context, _ *chainhash.Hash) ([]*wire.TxOut, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return testTx().TxOut, nil
}

func TestCachedProvider(t *testing.T) {
	inner := &countingProvider{}
	c := NewCachedProvider(inner, time.Minute, 2)
	defer c.Close()

	txid := chainhash.DoubleHashH([]byte("a"))
	for range 3 {
		outs, err := c.GetTxOuts(context.Background(), &txid)
		require.NoError(t, err)
		require.Len(t, outs, 2)
	}
	require.EqualValues(t, 1, inner.calls.Load())

	for _, s := range []string{"b", "c"} {
		h := chainhash.DoubleHashH([]byte(s))
		_, err := c.GetTxOuts(context.Background(), &h)
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.Len())
}

func TestCachedProviderSkipsErrors(t *testing.T) {
	inner := &countingProvider{err: ErrNotFound}
	c := NewCachedProvider(inner, time.Minute, 0)
	defer c.Close()

	txid := chainhash.DoubleHashH([]byte("a"))
	for range 2 {
		_, err := c.GetTxOuts(context.Background(), &txid)
		require.ErrorIs(t, err, ErrNotFound)
	}
	require.EqualValues(t, 2, inner.calls.Load())
	require.Zero(t, c.Len())
}
