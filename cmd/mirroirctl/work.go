package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/job"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/runner"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/skill"
)

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Run the worker pool against the job queue",
	RunE:  runWork,
}

func init() {
	workCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(workCmd)
}

func runWork(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewLogrusLogger(cfg.Log.Level)
	log.Info(ctx, "starting workers", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"workers": cfg.Worker.MaxWorkers,
	})

	db, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	blob, err := buildStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to build storage: %w", err)
	}

	jobStore := job.NewMySQLStore(db, log)
	skillStore := skill.NewMySQLStore(db, log)

	pipeline := runner.NewPipeline(jobStore, skillStore, blob, simulatorFactory, log)
	if cfg.Annotate.Enabled {
		annotator, err := skill.NewAnnotator(cfg.Annotate.BedrockRegion, cfg.Annotate.BedrockModel, cfg.Annotate.MaxTokens)
		if err != nil {
			return fmt.Errorf("failed to build annotator: %w", err)
		}
		pipeline.SetAnnotator(annotator)
	}
	pool := runner.NewWorkerPool(cfg.Worker.MaxWorkers, jobStore, pipeline, log)
	pool.Start(ctx)
	pool.Notify()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down workers", nil)
	cancel()
	return nil
}
