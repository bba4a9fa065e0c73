// mudconv copies saved world data between persistence backends.
//
// The server stores every collection as keyed JSON documents regardless of
// backend, so a migration is a straight export → import of each
// collection. The destination's sentinel file records which backend the
// data now lives in.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mudgo/server/internal/config"
	"github.com/mudgo/server/internal/persist"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	from       string
	to         string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "mudconv",
		Short:         "Migrate saved world data between store backends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "config/server.toml", "path to the TOML config file")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every collection from one backend to another",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(&f)
		},
	}
	migrate.Flags().StringVar(&f.from, "from", "", "source backend (file, sqlite, postgres)")
	migrate.Flags().StringVar(&f.to, "to", "", "destination backend (file, sqlite, postgres)")
	migrate.Flags().BoolVar(&f.dryRun, "dry-run", false, "count documents without writing")
	migrate.MarkFlagRequired("from")
	migrate.MarkFlagRequired("to")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the last-used backend and per-collection document counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(&f)
		},
	}

	root.AddCommand(migrate, status)
	return root
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(errors.Unwrap(err)) {
			return config.Defaults(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	zapCfg.DisableCaller = true
	zapCfg.DisableStacktrace = true
	return zapCfg.Build()
}

func runMigrate(f *flags) error {
	if f.from == f.to {
		return fmt.Errorf("source and destination backend are both %q", f.from)
	}
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	srcCfg := cfg.Store
	srcCfg.Backend = f.from
	src, err := persist.Open(ctx, srcCfg, log)
	if err != nil {
		return fmt.Errorf("open source %s: %w", f.from, err)
	}
	defer src.Close()

	var dst persist.Store
	if !f.dryRun {
		dstCfg := cfg.Store
		dstCfg.Backend = f.to
		dst, err = persist.Open(ctx, dstCfg, log)
		if err != nil {
			return fmt.Errorf("open destination %s: %w", f.to, err)
		}
		defer dst.Close()
	}

	total := 0
	for _, col := range persist.Collections {
		docs, err := src.LoadAll(ctx, col)
		if err != nil {
			return fmt.Errorf("export %s: %w", col, err)
		}
		if !f.dryRun {
			// ReplaceAll rather than an upsert: stale documents in the
			// destination would break the export→import round trip.
			if err := dst.ReplaceAll(ctx, col, docs); err != nil {
				return fmt.Errorf("import %s: %w", col, err)
			}
		}
		log.Info("collection copied", zap.String("collection", col), zap.Int("docs", len(docs)))
		total += len(docs)
	}

	if f.dryRun {
		log.Info("dry run complete", zap.Int("docs", total))
		return nil
	}
	if err := persist.WriteSentinel(cfg.Store.DataDir, f.to); err != nil {
		log.Warn("write backend sentinel failed", zap.Error(err))
	}
	log.Info("migration complete",
		zap.String("from", f.from),
		zap.String("to", f.to),
		zap.Int("docs", total),
	)
	return nil
}

func runStatus(f *flags) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	backend := persist.ReadSentinel(cfg.Store.DataDir)
	if backend == "" {
		backend = cfg.Store.Backend
		fmt.Printf("no sentinel found; configured backend: %s\n", backend)
	} else {
		fmt.Printf("last-used backend: %s\n", backend)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stCfg := cfg.Store
	stCfg.Backend = backend
	store, err := persist.Open(ctx, stCfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, col := range persist.Collections {
		docs, err := store.LoadAll(ctx, col)
		if err != nil {
			return fmt.Errorf("load %s: %w", col, err)
		}
		fmt.Printf("  %-14s %d\n", col, len(docs))
	}
	return nil
}
