package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/device"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/job"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/runner"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/simulator"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/skill"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/storage"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/strategy"
)

var (
	exploreFixture    string
	exploreApp        string
	exploreCategory   string
	exploreGoals      []string
	exploreOutput     string
	exploreMaxScreens int
	exploreMaxDepth   int
	exploreLogLevel   string
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Run one exploration locally against a simulator fixture",
	Long: `Explore runs a single job end to end without MySQL or a worker:
the job queue lives in an in-memory database and the generated skill
documents land in the output directory.`,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVarP(&exploreFixture, "fixture", "f", "", "simulator fixture file (required)")
	exploreCmd.Flags().StringVarP(&exploreApp, "app", "a", "", "app name (defaults to the fixture's)")
	exploreCmd.Flags().StringVar(&exploreCategory, "category", string(strategy.CategoryGeneric), "strategy category (generic|social_feed)")
	exploreCmd.Flags().StringArrayVarP(&exploreGoals, "goal", "g", nil, "exploration goal (repeatable)")
	exploreCmd.Flags().StringVarP(&exploreOutput, "output", "o", "./skills", "output directory for skill documents")
	exploreCmd.Flags().IntVar(&exploreMaxScreens, "max-screens", 0, "override the screen budget")
	exploreCmd.Flags().IntVar(&exploreMaxDepth, "max-depth", 0, "override the depth budget")
	exploreCmd.Flags().StringVar(&exploreLogLevel, "log-level", "info", "log level")
	_ = exploreCmd.MarkFlagRequired("fixture")

	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.NewLogrusLogger(exploreLogLevel)

	sim, err := simulator.Load(exploreFixture)
	if err != nil {
		return fmt.Errorf("failed to load fixture: %w", err)
	}
	appName := exploreApp
	if appName == "" {
		appName = sim.App()
	}

	// One-shot mode keeps the job queue in memory.
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open in-memory database: %w", err)
	}
	if err := db.AutoMigrate(&job.ExplorationJob{}, &skill.Document{}); err != nil {
		return fmt.Errorf("failed to migrate in-memory database: %w", err)
	}

	jobStore := job.NewMySQLStore(db, log)
	skillStore := skill.NewMySQLStore(db, log)

	blob, err := storage.NewLocalStorage(exploreOutput)
	if err != nil {
		return fmt.Errorf("failed to open output directory: %w", err)
	}

	cfg := job.JSONMap{}
	if len(exploreGoals) > 0 {
		goals := make([]interface{}, len(exploreGoals))
		for i, g := range exploreGoals {
			goals[i] = g
		}
		cfg["goals"] = goals
	}
	if exploreMaxScreens > 0 {
		cfg["max_screens"] = exploreMaxScreens
	}
	if exploreMaxDepth > 0 {
		cfg["max_depth"] = exploreMaxDepth
	}

	j := &job.ExplorationJob{
		AppName:  appName,
		Category: strategy.Category(exploreCategory),
		Config:   cfg,
	}
	if err := jobStore.Create(ctx, j); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	factory := func(ctx context.Context, j *job.ExplorationJob) (device.Device, error) {
		sim.Reset()
		return sim, nil
	}

	pipeline := runner.NewPipeline(jobStore, skillStore, blob, factory, log)
	pipeline.Run(ctx, j.ID)

	done, err := jobStore.GetByID(ctx, j.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch job result: %w", err)
	}

	fmt.Printf("Job %s: %s\n", done.ID, done.Status)
	for k, v := range done.Result {
		fmt.Printf("  %s: %v\n", k, v)
	}

	docs, err := skillStore.ListByJob(ctx, j.ID)
	if err != nil {
		return fmt.Errorf("failed to list skill documents: %w", err)
	}
	for _, doc := range docs {
		fmt.Printf("  %s (%d steps) -> %s\n", doc.ScriptName, doc.StepCount, doc.StoragePath)
	}

	if done.Status != job.StatusSuccess {
		return fmt.Errorf("exploration finished with status %s", done.Status)
	}
	return nil
}
