package indexer

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	ErrNoInputs          = errors.New("transaction has no inputs")
	ErrDuplicateOutpoint = errors.New("duplicate outpoint in input set")
	ErrInvalidTaprootKey = errors.New("taproot output key is not on the curve")
	ErrZeroInputHash     = errors.New("input hash reduces to zero mod n")
	ErrPrevOutIndex      = errors.New("previous output index out of range")
)

// ScanError labels the first fatal failure of a block scan.
// InputIndex is -1 when the failure is not tied to a single input.
type ScanError struct {
	Txid       chainhash.Hash
	TxIndex    int
	InputIndex int
	Err        error
}

func (e *ScanError) Error() string {
	if e.InputIndex < 0 {
		return fmt.Sprintf("tx %s (index %d): %v", e.Txid, e.TxIndex, e.Err)
	}
	return fmt.Sprintf("tx %s (index %d) input %d: %v", e.Txid, e.TxIndex, e.InputIndex, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
