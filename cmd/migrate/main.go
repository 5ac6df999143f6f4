package main

import (
	"context"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/migrate"
)

// Usage: migrate [status]. Without an argument pending migrations are
// applied; "status" only reports the schema version.
func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if len(os.Args) > 1 && os.Args[1] != "status" {
		logger.Fatalf("unknown command %q, want status or nothing", os.Args[1])
	}
	if len(os.Args) == 1 {
		if err := migrate.Apply(ctx, pool, logger); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
	}

	schema, err := migrate.Check(ctx, pool)
	if err != nil {
		logger.Fatalf("check schema: %v", err)
	}
	logger.Printf("schema version=%d latest=%d dirty=%t", schema.Version, schema.Latest, schema.Dirty)
	if !schema.Current() {
		pool.Close()
		os.Exit(1)
	}
}
