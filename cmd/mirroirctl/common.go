package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/database"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/device"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/job"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/runner"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/simulator"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/storage"
)

var configFile string

// connectDatabase opens the configured MySQL connection.
func connectDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := database.Connect(database.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// buildStorage builds the configured blob storage backend.
func buildStorage(cfg *Config) (storage.BlobStorage, error) {
	return storage.New(storage.Config{
		Type:          cfg.Storage.Type,
		BaseDir:       cfg.Storage.BaseDir,
		Bucket:        cfg.Storage.S3Bucket,
		Region:        cfg.Storage.S3Region,
		PresignExpiry: cfg.Storage.S3PresignExpiry,
	})
}

// simulatorFactory builds devices from each job's fixture path.
func simulatorFactory(ctx context.Context, j *job.ExplorationJob) (device.Device, error) {
	path := j.FixturePath()
	if path == "" {
		return nil, fmt.Errorf("job %s has no fixture configured", j.ID)
	}
	return simulator.Load(path)
}

var _ runner.DeviceFactory = simulatorFactory
