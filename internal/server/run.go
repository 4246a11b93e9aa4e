package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/config"
)

func NewRouter(api *ApiHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger)
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/info", api.GetInfo)
	router.GET("/tweaks/:blockheight", BlockHeightMiddleware, api.GetTweakDataByHeight)
	router.GET("/tweaks/hash/:blockhash", BlockHashMiddleware, api.GetTweakDataByHash)
	router.GET("/filter/taproot/:blockheight", BlockHeightMiddleware, api.GetTaprootFilterByHeight)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// RunServer blocks until ctx is cancelled or the listener fails
func RunServer(ctx context.Context, api *ApiHandler) error {
	srv := &http.Server{
		Addr:              config.HTTPHost,
		Handler:           NewRouter(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logging.L.Info().Str("host", config.HTTPHost).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			logging.L.Err(err).Msg("could not run server")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.L.Err(err).Msg("server shutdown failed")
		return err
	}
	logging.L.Info().Msg("server stopped")
	return nil
}
