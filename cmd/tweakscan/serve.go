package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/chain"
	"github.com/setavenger/blindbit-tweakscan/internal/config"
	"github.com/setavenger/blindbit-tweakscan/internal/indexer"
	"github.com/setavenger/blindbit-tweakscan/internal/server"
	v2 "github.com/setavenger/blindbit-tweakscan/internal/server/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tweaks over http and gRPC",
	Long: `Serve tweaks and taproot filters computed on request. Nothing is
persisted, previous outputs are cached in memory when cache_capacity is set.
The gRPC oracle service is started when grpc_host is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logging.L.Info().Msg("Program Started")
		defer logging.L.Info().Msg("Program shut down")

		provider, closer, err := newProvider()
		if err != nil {
			return err
		}
		defer func() {
			if err := closer.Close(); err != nil {
				logging.L.Err(err).Msg("replica close failed")
			}
		}()

		if config.CacheCapacity > 0 {
			cached := chain.NewCachedProvider(provider, config.CacheTTL, config.CacheCapacity)
			defer cached.Close()
			provider = cached
		}

		scanner := indexer.NewScanner(provider, int(config.MaxParallelRequests))

		// either server failing stops the other
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.RunServer(gctx, server.NewApiHandler(provider, scanner, Version))
		})
		if config.GRPCHost != "" {
			g.Go(func() error {
				return v2.RunGRPCServer(gctx, v2.NewOracleService(provider, scanner))
			})
		}
		return g.Wait()
	},
}
