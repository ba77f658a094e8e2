package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/job"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/strategy"
)

var (
	enqueueApp        string
	enqueueFixture    string
	enqueueCategory   string
	enqueueGoals      []string
	enqueueMaxScreens int
	enqueueMaxDepth   int
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue an exploration job for the workers",
	RunE:  runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringVarP(&enqueueApp, "app", "a", "", "app name (required)")
	enqueueCmd.Flags().StringVarP(&enqueueFixture, "fixture", "f", "", "simulator fixture file (required)")
	enqueueCmd.Flags().StringVar(&enqueueCategory, "category", string(strategy.CategoryGeneric), "strategy category (generic|social_feed)")
	enqueueCmd.Flags().StringArrayVarP(&enqueueGoals, "goal", "g", nil, "exploration goal (repeatable)")
	enqueueCmd.Flags().IntVar(&enqueueMaxScreens, "max-screens", 0, "override the screen budget")
	enqueueCmd.Flags().IntVar(&enqueueMaxDepth, "max-depth", 0, "override the depth budget")
	enqueueCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	_ = enqueueCmd.MarkFlagRequired("app")
	_ = enqueueCmd.MarkFlagRequired("fixture")

	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewLogrusLogger(cfg.Log.Level)

	db, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	jobConfig := job.JSONMap{"fixture": enqueueFixture}
	if len(enqueueGoals) > 0 {
		goals := make([]interface{}, len(enqueueGoals))
		for i, g := range enqueueGoals {
			goals[i] = g
		}
		jobConfig["goals"] = goals
	}
	if enqueueMaxScreens > 0 {
		jobConfig["max_screens"] = enqueueMaxScreens
	}
	if enqueueMaxDepth > 0 {
		jobConfig["max_depth"] = enqueueMaxDepth
	}

	j := &job.ExplorationJob{
		AppName:  enqueueApp,
		Category: strategy.Category(enqueueCategory),
		Config:   jobConfig,
	}

	jobStore := job.NewMySQLStore(db, log)
	if err := jobStore.Create(ctx, j); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	fmt.Printf("Job %s queued for %s\n", j.ID, j.AppName)
	return nil
}
