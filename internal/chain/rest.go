package chain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/setavenger/blindbit-lib/logging"
)

const backendREST = "rest"

// RestClient talks to the unauthenticated REST interface of bitcoin core (-rest=1).
// Transaction lookups need -txindex=1 on the node.
type RestClient struct {
	endpoint string
	client   *http.Client
}

var _ Provider = (*RestClient)(nil)

func NewRestClient(endpoint string, timeout time.Duration) *RestClient {
	return &RestClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   newHTTPClient(timeout),
	}
}

func (c *RestClient) GetBlock(ctx context.Context, blockHash *chainhash.Hash) (msgBlock *wire.MsgBlock, err error) {
	defer func() { observe(backendREST, "get_block", err) }()

	body, err := c.get(ctx, fmt.Sprintf("%s/rest/block/%s.bin", c.endpoint, blockHash.String()))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	block, err := btcutil.NewBlockFromReader(body)
	if err != nil {
		logging.L.Err(err).Str("blockhash", blockHash.String()).Msg("failed to decode block")
		return nil, fmt.Errorf("decode block %s: %w", blockHash, err)
	}

	if got := block.Hash(); !got.IsEqual(blockHash) {
		return nil, fmt.Errorf("%w: block %s for %s", ErrUnexpectedData, got, blockHash)
	}

	return block.MsgBlock(), nil
}

func (c *RestClient) GetBlockHash(ctx context.Context, height int64) (blockHash *chainhash.Hash, err error) {
	defer func() { observe(backendREST, "get_block_hash", err) }()

	body, err := c.get(ctx, fmt.Sprintf("%s/rest/blockhashbyheight/%d.bin", c.endpoint, height))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var raw [chainhash.HashSize]byte
	if _, err = io.ReadFull(body, raw[:]); err != nil {
		logging.L.Err(err).Int64("height", height).Msg("failed to read blockhash")
		return nil, fmt.Errorf("read blockhash at %d: %w", height, err)
	}

	return chainhash.NewHash(raw[:])
}

func (c *RestClient) GetTxOuts(ctx context.Context, txid *chainhash.Hash) (outs []*wire.TxOut, err error) {
	defer func() { observe(backendREST, "get_tx_outs", err) }()

	body, err := c.get(ctx, fmt.Sprintf("%s/rest/tx/%s.bin", c.endpoint, txid.String()))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var msgTx wire.MsgTx
	if err = msgTx.Deserialize(body); err != nil {
		logging.L.Err(err).Str("txid", txid.String()).Msg("failed to decode transaction")
		return nil, fmt.Errorf("decode tx %s: %w", txid, err)
	}

	if got := msgTx.TxHash(); !got.IsEqual(txid) {
		return nil, fmt.Errorf("%w: tx %s for %s", ErrUnexpectedData, got, txid)
	}

	return msgTx.TxOut, nil
}

// get returns the body of a successful response, the caller closes it
func (c *RestClient) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logging.L.Err(err).Msg("error creating request")
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logging.L.Err(err).Str("url", url).Msg("error performing request")
		return nil, fmt.Errorf("error performing request: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		logging.L.Error().
			Str("url", url).
			Str("status", resp.Status).
			Msg("bad status code")
		return nil, fmt.Errorf("%s: bad status %s: %s", url, resp.Status, strings.TrimSpace(string(msg)))
	}
}
