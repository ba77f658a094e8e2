package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/internal/uuidutil"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/job"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/skill"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show an exploration job and its skill documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !uuidutil.IsValid(args[0]) {
		return fmt.Errorf("invalid job id: %s", args[0])
	}
	jobID, err := uuidutil.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid job id: %w", err)
	}

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

	jobStore := job.NewMySQLStore(db, log)
	j, err := jobStore.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	fmt.Printf("Job %s\n", j.ID)
	fmt.Printf("  App:      %s\n", j.AppName)
	fmt.Printf("  Category: %s\n", j.Category)
	fmt.Printf("  Status:   %s\n", j.Status)
	if j.Duration != nil {
		fmt.Printf("  Duration: %dms\n", *j.Duration)
	}
	for k, v := range j.Result {
		fmt.Printf("  %s: %v\n", k, v)
	}

	skillStore := skill.NewMySQLStore(db, log)
	docs, err := skillStore.ListByJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to list skill documents: %w", err)
	}
	for _, doc := range docs {
		fmt.Printf("  %s [%s] (%d steps) -> %s\n", doc.ScriptName, doc.Status, doc.StepCount, doc.StoragePath)
	}
	return nil
}
