package indexer

import (
	"context"
	"runtime"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/chain"
	"github.com/setavenger/blindbit-tweakscan/internal/metrics"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
	"golang.org/x/sync/errgroup"
)

// Scanner derives the tweaks of whole blocks.
// It holds no per-scan state and can be shared between goroutines.
type Scanner struct {
	provider    chain.Provider
	maxParallel int
}

// NewScanner bounds the number of in-flight previous output lookups by maxParallel
func NewScanner(provider chain.Provider, maxParallel int) *Scanner {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Scanner{
		provider:    provider,
		maxParallel: maxParallel,
	}
}

// candidate is a transaction that passed the pre-filter
type candidate struct {
	txIndex     int
	tx          *types.Transaction
	prevScripts [][]byte
}

// ScanBlock returns one record per qualifying transaction in block order.
// On the first fatal error outstanding lookups are cancelled and no records are returned.
func (s *Scanner) ScanBlock(ctx context.Context, block *types.Block) ([]types.TweakRecord, error) {
	start := time.Now()

	tweaks, err := s.scanBlock(ctx, block)
	if err != nil {
		metrics.ScanFailures.Inc()
		logging.L.Err(err).
			Str("blockhash", block.Hash.String()).
			Int64("height", block.Height).
			Msg("block scan failed")
		return nil, err
	}

	metrics.BlocksScanned.Inc()
	metrics.TweaksEmitted.Add(float64(len(tweaks)))
	metrics.ScanDuration.Observe(time.Since(start).Seconds())

	logging.L.Debug().
		Str("blockhash", block.Hash.String()).
		Int64("height", block.Height).
		Int("txs", len(block.Txs)).
		Int("tweaks", len(tweaks)).
		Dur("took", time.Since(start)).
		Msg("block scanned")

	return tweaks, nil
}

func (s *Scanner) scanBlock(ctx context.Context, block *types.Block) ([]types.TweakRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var candidates []*candidate
	for i, tx := range block.Txs {
		if tx.Coinbase {
			continue
		}
		// we only compute tweaks for transactions with taproot outputs
		if !TxHasTaprootOutputs(tx) {
			continue
		}
		candidates = append(candidates, &candidate{
			txIndex:     i,
			tx:          tx,
			prevScripts: make([][]byte, len(tx.Ins)),
		})
	}

	if err := s.resolvePrevOuts(ctx, candidates); err != nil {
		return nil, err
	}

	// one slot per candidate, filled out of order and compacted afterwards
	slots := make([]*btcec.PublicKey, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tweak, inputIndex, err := ComputeTweakPerTx(c.tx, c.prevScripts)
			if err != nil {
				return &ScanError{Txid: c.tx.Txid, TxIndex: c.txIndex, InputIndex: inputIndex, Err: err}
			}
			slots[i] = tweak
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tweaks := make([]types.TweakRecord, 0, len(candidates))
	for i, tweak := range slots {
		if tweak == nil {
			continue
		}
		record := types.TweakRecord{
			TxIndex: candidates[i].txIndex,
			Txid:    candidates[i].tx.Txid,
		}
		copy(record.Tweak[:], tweak.SerializeCompressed())
		tweaks = append(tweaks, record)
	}

	return tweaks, nil
}

// resolvePrevOuts fills the previous output scripts of every candidate input
func (s *Scanner) resolvePrevOuts(ctx context.Context, candidates []*candidate) error {
	resolver := newPrevOutResolver(s.provider)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for _, c := range candidates {
		for j := range c.tx.Ins {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				pkScript, err := resolver.PkScript(gctx, c.tx.Ins[j].PrevOut)
				if err != nil {
					return &ScanError{Txid: c.tx.Txid, TxIndex: c.txIndex, InputIndex: j, Err: err}
				}
				c.prevScripts[j] = pkScript
				return nil
			})
		}
	}

	err := g.Wait()
	logging.L.Trace().Int("prev_txs", resolver.Len()).Msg("previous outputs resolved")
	return err
}

// ScanBlockHash fetches the block and scans it, the height stays unknown
func (s *Scanner) ScanBlockHash(ctx context.Context, blockHash *chainhash.Hash) (*types.ScanResult, error) {
	return s.scanByHash(ctx, blockHash, types.HeightUnknown)
}

func (s *Scanner) ScanBlockHeight(ctx context.Context, height int64) (*types.ScanResult, error) {
	blockHash, err := s.provider.GetBlockHash(ctx, height)
	if err != nil {
		logging.L.Err(err).Int64("height", height).Msg("could not resolve block hash")
		return nil, err
	}
	return s.scanByHash(ctx, blockHash, height)
}

func (s *Scanner) scanByHash(ctx context.Context, blockHash *chainhash.Hash, height int64) (*types.ScanResult, error) {
	msgBlock, err := s.provider.GetBlock(ctx, blockHash)
	if err != nil {
		logging.L.Err(err).Str("blockhash", blockHash.String()).Msg("could not fetch block")
		return nil, err
	}

	block := types.NewBlock(msgBlock, height)
	tweaks, err := s.ScanBlock(ctx, block)
	if err != nil {
		return nil, err
	}

	return &types.ScanResult{
		BlockHash: block.Hash,
		Height:    height,
		Tweaks:    tweaks,
	}, nil
}

func TxHasTaprootOutputs(tx *types.Transaction) bool {
	for _, out := range tx.Outs {
		if txscript.IsPayToTaproot(out.PkScript) {
			return true
		}
	}
	return false
}
