package server

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gin-gonic/gin"
	"github.com/setavenger/blindbit-lib/api"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/chain"
	"github.com/setavenger/blindbit-tweakscan/internal/config"
	"github.com/setavenger/blindbit-tweakscan/internal/indexer"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
)

// FilterTypeTaproot is the filter type blindbit oracles use for taproot output filters
const FilterTypeTaproot = 4

// ApiHandler computes everything on request, nothing is stored between calls
type ApiHandler struct {
	provider chain.Provider
	scanner  *indexer.Scanner
	version  string
}

func NewApiHandler(provider chain.Provider, scanner *indexer.Scanner, version string) *ApiHandler {
	return &ApiHandler{
		provider: provider,
		scanner:  scanner,
		version:  version,
	}
}

type InfoResponse struct {
	Version             string `json:"version"`
	Provider            string `json:"provider"`
	Replica             string `json:"replica,omitempty"`
	MaxParallelRequests uint16 `json:"max_parallel_requests"`
}

type TweakResponse struct {
	TxIndex int    `json:"tx_index"`
	Txid    string `json:"txid"`
	Tweak   string `json:"tweak"`
}

func (h *ApiHandler) GetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:             h.version,
		Provider:            string(config.Provider),
		Replica:             string(config.Replica),
		MaxParallelRequests: config.MaxParallelRequests,
	})
}

// GetTweakDataByHeight serves tweak data as json array of tweaks (33 byte as hex-formatted).
// With verbose=true every tweak carries its txid and position in the block.
func (h *ApiHandler) GetTweakDataByHeight(c *gin.Context) {
	height := c.GetInt64(ctxBlockHeight)

	result, err := h.scanner.ScanBlockHeight(c.Request.Context(), height)
	if err != nil {
		abortWithScanError(c, err)
		return
	}
	serveTweaks(c, result)
}

func (h *ApiHandler) GetTweakDataByHash(c *gin.Context) {
	blockHash, ok := c.MustGet(ctxBlockHash).(*chainhash.Hash)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid block hash type"})
		return
	}

	result, err := h.scanner.ScanBlockHash(c.Request.Context(), blockHash)
	if err != nil {
		abortWithScanError(c, err)
		return
	}
	serveTweaks(c, result)
}

func (h *ApiHandler) GetTaprootFilterByHeight(c *gin.Context) {
	height := c.GetInt64(ctxBlockHeight)
	ctx := c.Request.Context()

	blockHash, err := h.provider.GetBlockHash(ctx, height)
	if err != nil {
		abortWithScanError(c, err)
		return
	}
	msgBlock, err := h.provider.GetBlock(ctx, blockHash)
	if err != nil {
		abortWithScanError(c, err)
		return
	}

	filter, err := indexer.BuildTaprootPubkeyFilter(types.NewBlock(msgBlock, height))
	if err != nil {
		logging.L.Err(err).Int64("height", height).Msg("error building taproot filter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build filter"})
		return
	}

	c.JSON(http.StatusOK, api.FilterResponseOracle{
		FilterType:  FilterTypeTaproot,
		BlockHeight: uint32(height),
		BlockHash:   blockHash.String(),
		Data:        hex.EncodeToString(filter),
	})
}

func serveTweaks(c *gin.Context, result *types.ScanResult) {
	if c.Query("verbose") == "true" {
		records := make([]TweakResponse, len(result.Tweaks))
		for i := range result.Tweaks {
			records[i] = TweakResponse{
				TxIndex: result.Tweaks[i].TxIndex,
				Txid:    result.Tweaks[i].Txid.String(),
				Tweak:   result.Tweaks[i].TweakHex(),
			}
		}
		c.JSON(http.StatusOK, records)
		return
	}

	var serveTweakData = make([]string, len(result.Tweaks))
	for i := range result.Tweaks {
		serveTweakData[i] = result.Tweaks[i].TweakHex()
	}
	c.JSON(http.StatusOK, serveTweakData)
}

// abortWithScanError maps a missing block to 404. Errors the node answered with are 502,
// a node that could not be reached is 503.
func abortWithScanError(c *gin.Context, err error) {
	var scanErr *indexer.ScanError
	switch {
	case errors.As(err, &scanErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "block scan failed",
			"txid":  scanErr.Txid.String(),
		})
	case errors.Is(err, chain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
	case chain.IsRPCError(err), errors.Is(err, chain.ErrUnexpectedData):
		logging.L.Err(err).Str("path", c.Request.URL.Path).Msg("node rejected request")
		c.JSON(http.StatusBadGateway, gin.H{"error": "node returned an error"})
	default:
		logging.L.Err(err).Str("path", c.Request.URL.Path).Msg("error serving request")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not retrieve data from node"})
	}
}
