package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/setavenger/blindbit-tweakscan/internal/chain"
	"github.com/setavenger/blindbit-tweakscan/internal/indexer"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
	"github.com/spf13/cobra"
)

// printFilter fetches the block again, the scan result only carries the tweaks
func printFilter(ctx context.Context, cmd *cobra.Command, provider chain.Provider, result *types.ScanResult) error {
	msgBlock, err := provider.GetBlock(ctx, &result.BlockHash)
	if err != nil {
		return err
	}

	filter, err := indexer.BuildTaprootPubkeyFilter(types.NewBlock(msgBlock, result.Height))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "taproot filter: %s\n", hex.EncodeToString(filter))
	return err
}
