package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"babelfeed/internal/config"
	"babelfeed/internal/datenorm"
	"babelfeed/internal/feed"
	"babelfeed/internal/ingest"
	web "babelfeed/internal/server"
	"babelfeed/internal/store"
	"babelfeed/internal/textnorm"
	"babelfeed/internal/worker"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	configPath string
	redisAddr  string
	badgerPath string
	feedsFile  string
)

var rootCmd = &cobra.Command{
	Use:   "babelfeed",
	Short: "babelfeed - multilingual RSS reader with translation and keyword extraction",
}

// loadConfig applies flag overrides on top of the file config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}
	if badgerPath != "" {
		cfg.BadgerPath = badgerPath
	}
	if feedsFile != "" {
		cfg.FeedsFile = feedsFile
	}
	return cfg, nil
}

func newPipeline(cfg *config.Config, st store.Store) *ingest.Pipeline {
	normalizer := textnorm.NewNormalizer(textnorm.NewGoogleTranslator(), logger)
	return ingest.NewPipeline(st, feed.NewFetcher(), normalizer, cfg.RetentionDays, logger)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion worker and the web view",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			logger.Info("Shutting down...")
			cancel()
		}()

		cfg, err := loadConfig()
		if err != nil {
			logger.Fatal("Failed to load config", zap.Error(err))
		}

		feedURLs, err := config.LoadFeeds(cfg.FeedsFile)
		if err != nil {
			logger.Fatal("Failed to load feed list", zap.Error(err))
		}

		st, err := store.NewHybridStore(cfg.RedisAddr, cfg.BadgerPath, logger)
		if err != nil {
			logger.Fatal("Failed to init store", zap.Error(err))
		}
		defer st.Close()

		w := worker.NewWorker(newPipeline(cfg, st), feedURLs, cfg.FetchInterval(), logger)
		go w.Start(ctx)

		srv := web.NewServer(st, logger)
		go func() {
			if err := srv.Start(cfg.Port); err != nil {
				logger.Error("Web server stopped", zap.Error(err))
				cancel()
			}
		}()

		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("Web server shutdown failed", zap.Error(err))
		}
		logger.Info("Goodbye!")
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion cycle and exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			logger.Fatal("Failed to load config", zap.Error(err))
		}

		feedURLs, err := config.LoadFeeds(cfg.FeedsFile)
		if err != nil {
			logger.Fatal("Failed to load feed list", zap.Error(err))
		}

		st, err := store.NewHybridStore(cfg.RedisAddr, cfg.BadgerPath, logger)
		if err != nil {
			logger.Fatal("Failed to init store", zap.Error(err))
		}
		defer st.Close()

		report, err := newPipeline(cfg, st).Run(context.Background(), feedURLs)
		if err != nil {
			logger.Fatal("Ingestion run failed", zap.Error(err))
		}
		logger.Info("Done",
			zap.Int("inserted", report.Inserted),
			zap.Int("skipped", report.Skipped),
			zap.Int("swept", report.Swept))
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete articles older than the retention horizon",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			logger.Fatal("Failed to load config", zap.Error(err))
		}

		st, err := store.NewHybridStore(cfg.RedisAddr, cfg.BadgerPath, logger)
		if err != nil {
			logger.Fatal("Failed to init store", zap.Error(err))
		}
		defer st.Close()

		cutoff := time.Now().UTC().AddDate(0, 0, -cfg.RetentionDays).Format(datenorm.Layout)
		deleted, err := st.DeleteOlderThan(context.Background(), cutoff)
		if err != nil {
			logger.Fatal("Sweep failed", zap.Error(err))
		}
		logger.Info("Sweep complete", zap.String("cutoff", cutoff), zap.Int("deleted", deleted))
	},
}

var markUnread bool

var readCmd = &cobra.Command{
	Use:   "read [link]",
	Short: "Mark an article as read (or unread with --unread)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			logger.Fatal("Failed to load config", zap.Error(err))
		}

		// Read flags live in Redis only, so skip opening Badger.
		st, err := store.NewHybridStore(cfg.RedisAddr, "", logger)
		if err != nil {
			logger.Fatal("Failed to init store", zap.Error(err))
		}
		defer st.Close()

		link := args[0]
		if err := st.SetRead(context.Background(), link, !markUnread); err != nil {
			logger.Fatal("Failed to update read flag", zap.String("link", link), zap.Error(err))
		}
		logger.Info("Updated", zap.String("link", link), zap.Bool("read", !markUnread))
	},
}

func main() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Address of Redis server (overrides config)")
	rootCmd.PersistentFlags().StringVar(&badgerPath, "badger", "", "Path to BadgerDB data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&feedsFile, "feeds", "", "Path to newline-delimited feed list (overrides config)")
	readCmd.Flags().BoolVar(&markUnread, "unread", false, "Mark the article unread instead")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(readCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
