package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/config"
	"github.com/setavenger/blindbit-tweakscan/internal/dataexport"
	"github.com/setavenger/blindbit-tweakscan/internal/indexer"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
	"github.com/spf13/cobra"
)

var errBlockSelector = errors.New("specify either block hash or height")

var (
	blkHeight  int64
	blkHash    string
	format     string
	outputPath string
	withFilter bool
)

func init() {
	scanCmd.Flags().Int64Var(&blkHeight, "blkheight", -1, "height of the block to scan")
	scanCmd.Flags().StringVar(&blkHash, "blkhash", "", "hash of the block to scan")
	scanCmd.Flags().StringVar(&format, "format", string(dataexport.FormatList), "output format: hex, json, csv or list")
	scanCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the tweaks to a file instead of stdout")
	scanCmd.Flags().BoolVar(&withFilter, "filter", false, "also print the taproot output filter of the block")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Compute the tweaks of a single block",
	Long: `Compute the silent payment tweaks of one block selected by --blkheight
or --blkhash and print them in the chosen format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (blkHeight < 0) == (blkHash == "") {
			return errBlockSelector
		}
		outFormat, err := dataexport.ParseFormat(format)
		if err != nil {
			return err
		}

		// results go to stdout, keep it free of log lines
		if outputPath == "" {
			logging.SetConsoleLogging(false)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		provider, closer, err := newProvider()
		if err != nil {
			return err
		}
		defer closer.Close()

		scanner := indexer.NewScanner(provider, int(config.MaxParallelRequests))
		result, err := scanSelected(ctx, scanner)
		if err != nil {
			return err
		}

		if outputPath != "" && outFormat == dataexport.FormatCSV {
			return dataexport.ExportTweaks(outputPath, result)
		}

		var out io.Writer = cmd.OutOrStdout()
		if outputPath != "" {
			file, err := os.Create(outputPath)
			if err != nil {
				logging.L.Err(err).Msg("failed creating file")
				return err
			}
			defer file.Close()
			out = file
		}

		if err = dataexport.WriteTweaks(out, outFormat, result); err != nil {
			return err
		}

		if withFilter {
			return printFilter(ctx, cmd, provider, result)
		}
		return nil
	},
}

func scanSelected(ctx context.Context, scanner *indexer.Scanner) (*types.ScanResult, error) {
	if blkHash != "" {
		hash, err := chainhash.NewHashFromStr(blkHash)
		if err != nil {
			return nil, err
		}
		return scanner.ScanBlockHash(ctx, hash)
	}
	return scanner.ScanBlockHeight(ctx, blkHeight)
}
