package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"boutique-be/internal/logger"
	"boutique-be/internal/migrate"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	mode := flag.String("mode", migrate.ModeUp, "migration mode: up or down")
	dir := flag.String("dir", "./migrations", "directory holding the .sql files")
	flag.Parse()

	if err := run(context.Background(), os.Getenv("DB_URL"), *mode, *dir); err != nil {
		logger.L().Fatal("migration failed", zap.Error(err))
	}
}

func run(ctx context.Context, dsn, mode, dir string) error {
	if dsn == "" {
		return fmt.Errorf("DB_URL not set in environment")
	}

	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect db: %w", err)
	}
	defer db.Close()

	return migrate.Run(ctx, db, mode, dir)
}
