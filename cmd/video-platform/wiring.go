package main

import (
	"context"
	"fmt"

	"video-platform/internal/database"
	"video-platform/internal/startup"
	"video-platform/internal/storage"
	"video-platform/internal/views"
)

// buildStores returns the store for raw and transcoded video, which must be
// local for ffmpeg, and the thumbnail store.
func buildStores(ctx context.Context, config *startup.Config) (*storage.FSStore, storage.Store, error) {
	videos, err := storage.NewFSStore(config.UploadDir)
	if err != nil {
		return nil, nil, err
	}

	switch config.ThumbnailStore {
	case startup.StoreS3:
		thumbs, err := storage.NewS3Store(ctx, config.S3Bucket)
		startup.LogComponentInit("Thumbnails", "s3://"+config.S3Bucket, err)
		if err != nil {
			return nil, nil, err
		}
		return videos, thumbs, nil
	default:
		return videos, videos, nil
	}
}

// buildLedger opens the durable view ledger selected by VIEW_LEDGER.
func buildLedger(ctx context.Context, config *startup.Config, db *database.Database) (views.Ledger, error) {
	switch config.ViewLedger {
	case startup.LedgerSQLite:
		ledger := views.NewSQLLedger(db, config.ViewRetention, nil)
		ledger.StartPurger(config.ViewSweepInterval)
		return ledger, nil
	case startup.LedgerRedis:
		ledger, err := views.NewRedisLedger(ctx, views.RedisOptions{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		}, db, config.ViewRetention, nil)
		startup.LogComponentInit("View ledger", "redis://"+config.RedisAddr, err)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	case startup.LedgerDynamoDB:
		ledger, err := views.NewDynamoLedger(ctx, config.DynamoDBTable, db, config.ViewRetention, nil)
		startup.LogComponentInit("View ledger", "dynamodb:"+config.DynamoDBTable, err)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	default:
		return nil, fmt.Errorf("unknown view ledger %q", config.ViewLedger)
	}
}
