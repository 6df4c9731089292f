package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ShabalalaWATP/UkraineOSINT/config"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/analysis"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/cache"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/server"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var gen analysis.Generator
			if cfg.LLM.GeminiAPIKey != "" {
				g, err := analysis.NewGeminiGenerator(ctx, cfg.LLM.GeminiAPIKey)
				if err != nil {
					return err
				}
				defer func() { _ = g.Close() }()
				gen = g
			} else {
				log.Printf("llm.gemini_api_key not set, /api/analyze disabled")
			}

			var articleCache *cache.ArticleCache
			if cfg.Cache.RedisAddr != "" {
				articleCache, err = cache.New(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword,
					cfg.Cache.RedisDB, cfg.Cache.TTL, nil)
				if err != nil {
					return err
				}
				defer func() { _ = articleCache.Close() }()
			}

			srv := server.New(cfg, gen, articleCache, prometheus.NewRegistry())

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				log.Printf("received %s, shutting down", sig)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches . and ./config)")
	return serve
}
