package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gin-gonic/gin"
	"github.com/setavenger/blindbit-lib/logging"
)

const (
	ctxBlockHeight = "blockHeight"
	ctxBlockHash   = "blockHash"
)

func BlockHeightMiddleware(c *gin.Context) {
	heightStr := c.Param("blockheight")
	if heightStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "block height is required"})
		c.Abort()
		return
	}

	height, err := strconv.ParseUint(heightStr, 10, 32)
	if err != nil {
		logging.L.Debug().Err(err).Str("blockheight", heightStr).Msg("could not parse block height")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse block height"})
		c.Abort()
		return
	}

	c.Set(ctxBlockHeight, int64(height))
	c.Next()
}

func BlockHashMiddleware(c *gin.Context) {
	hashStr := c.Param("blockhash")
	if len(hashStr) != chainhash.MaxHashStringSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "block hash must be 64 hex characters"})
		c.Abort()
		return
	}

	blockHash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		logging.L.Debug().Err(err).Str("blockhash", hashStr).Msg("could not parse block hash")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse block hash"})
		c.Abort()
		return
	}

	c.Set(ctxBlockHash, blockHash)
	c.Next()
}

// RequestLogger routes gin's access log through the shared logger
func RequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	logging.L.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("took", time.Since(start)).
		Msg("request")
}
