package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog/pgstore"
	"github.com/gokatarajesh/cloud-architect-quest/internal/config"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status or import")
		file    = flag.String("file", "", "YAML catalog to import (defaults to the bundled catalog)")
	)
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	pg := cfg.Postgres
	if pg.Host == "" || pg.User == "" || pg.Database == "" {
		log.Fatal().Msg("PG_HOST, PG_USER and PG_DATABASE environment variables are required")
	}

	store, err := pgstore.Open(ctx, pg.DSN(), log.Logger)
	if err != nil {
		log.Fatal().Err(err).Str("host", pg.Host).Int("port", pg.Port).Msg("failed to connect to database")
	}
	defer store.Close()

	log.Info().
		Str("host", pg.Host).
		Int("port", pg.Port).
		Str("database", pg.Database).
		Msg("connected to database")

	switch *command {
	case "up":
		if err := store.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations up")
		}
		log.Info().Msg("migrations applied successfully")

	case "down":
		if err := store.MigrateDown(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations down")
		}
		log.Info().Msg("migrations rolled back successfully")

	case "status":
		list, err := store.Status(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get migration status")
		}
		for _, m := range list {
			log.Info().Int64("version", m.Version).Str("path", m.Path).Bool("applied", m.Applied).Msg("migration")
		}

	case "import":
		cat, err := loadImport(*file)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("failed to read catalog")
		}
		if err := store.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations up")
		}
		if err := store.Import(ctx, cat); err != nil {
			log.Fatal().Err(err).Msg("failed to import catalog")
		}
		log.Info().Int("scenarios", cat.Len()).Msg("catalog imported successfully")

	default:
		log.Fatal().Str("command", *command).Msg("unknown command. Use: up, down, status or import")
	}
}

func loadImport(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
