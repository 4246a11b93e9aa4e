package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/setavenger/blindbit-lib/logging"
)

const (
	backendRPC = "rpc"
	rpcID      = "blindbit-tweakscan"
)

// bitcoin core error codes which mean the object does not exist
const (
	rpcInvalidParameter    = -8 // block height out of range
	rpcInvalidAddressOrKey = -5 // no such block or transaction
	rpcMethodNotFound      = -32601
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match missing blocks and transactions
func (e *RPCError) Is(target error) bool {
	return target == ErrNotFound &&
		(e.Code == rpcInvalidAddressOrKey || e.Code == rpcInvalidParameter)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	ID     string          `json:"id"`
}

// RPCClient uses the JSON-RPC interface of bitcoin core with basic auth
type RPCClient struct {
	endpoint string
	user     string
	pass     string
	client   *http.Client
}

var _ Provider = (*RPCClient)(nil)

func NewRPCClient(endpoint, user, pass string, timeout time.Duration) *RPCClient {
	return &RPCClient{
		endpoint: endpoint,
		user:     user,
		pass:     pass,
		client:   newHTTPClient(timeout),
	}
}

func (c *RPCClient) GetBlock(ctx context.Context, blockHash *chainhash.Hash) (msgBlock *wire.MsgBlock, err error) {
	defer func() { observe(backendRPC, "get_block", err) }()

	// verbosity 0 returns the serialised block as hex
	raw, err := c.callHex(ctx, "getblock", blockHash.String(), 0)
	if err != nil {
		return nil, err
	}

	msgBlock = new(wire.MsgBlock)
	if err = msgBlock.Deserialize(bytes.NewReader(raw)); err != nil {
		logging.L.Err(err).Str("blockhash", blockHash.String()).Msg("failed to decode block")
		return nil, fmt.Errorf("decode block %s: %w", blockHash, err)
	}

	if got := msgBlock.BlockHash(); !got.IsEqual(blockHash) {
		return nil, fmt.Errorf("%w: block %s for %s", ErrUnexpectedData, got, blockHash)
	}

	return msgBlock, nil
}

func (c *RPCClient) GetBlockHash(ctx context.Context, height int64) (blockHash *chainhash.Hash, err error) {
	defer func() { observe(backendRPC, "get_block_hash", err) }()

	var result string
	if err = c.call(ctx, "getblockhash", []any{height}, &result); err != nil {
		return nil, err
	}

	return chainhash.NewHashFromStr(result)
}

func (c *RPCClient) GetTxOuts(ctx context.Context, txid *chainhash.Hash) (outs []*wire.TxOut, err error) {
	defer func() { observe(backendRPC, "get_tx_outs", err) }()

	raw, err := c.callHex(ctx, "getrawtransaction", txid.String(), 0)
	if err != nil {
		return nil, err
	}

	var msgTx wire.MsgTx
	if err = msgTx.Deserialize(bytes.NewReader(raw)); err != nil {
		logging.L.Err(err).Str("txid", txid.String()).Msg("failed to decode transaction")
		return nil, fmt.Errorf("decode tx %s: %w", txid, err)
	}

	if got := msgTx.TxHash(); !got.IsEqual(txid) {
		return nil, fmt.Errorf("%w: tx %s for %s", ErrUnexpectedData, got, txid)
	}

	return msgTx.TxOut, nil
}

func (c *RPCClient) callHex(ctx context.Context, method string, params ...any) ([]byte, error) {
	var result string
	if err := c.call(ctx, method, params, &result); err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(result)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed hex result: %w", method, err)
	}
	return raw, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params []any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "1.0",
		ID:      rpcID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		logging.L.Err(err).Msg("error marshaling RPC data")
		return fmt.Errorf("error marshaling RPC data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		logging.L.Err(err).Msg("error creating request")
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.user, c.pass)

	logging.L.Trace().Str("method", method).Any("params", params).Msg("rpc request")

	resp, err := c.client.Do(req)
	if err != nil {
		logging.L.Err(err).Str("method", method).Msg("error performing request")
		return fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.L.Err(err).Int("status_code", resp.StatusCode).Msg("error reading response body")
		return err
	}

	// core answers RPC level errors with status 404/500 and a json body,
	// anything else above 400 (auth, work queue) carries no usable body
	var rpcResp rpcResponse
	if err = json.Unmarshal(body, &rpcResp); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			err = fmt.Errorf("%s: request failed with status %s", method, resp.Status)
		} else {
			err = fmt.Errorf("%s: error unmarshaling response: %w", method, err)
		}
		logging.L.Err(err).
			Int("status_code", resp.StatusCode).
			Str("body", string(body)).
			Msg("rpc request failed")
		return err
	}

	if rpcResp.Error != nil {
		if rpcResp.Error.Code == rpcMethodNotFound {
			logging.L.Error().Str("method", method).Msg("node does not support method")
		}
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}

	if err = json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("%s: unexpected result: %w", method, err)
	}
	return nil
}

// IsRPCError reports whether err carries a node side RPC error
func IsRPCError(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr)
}
