// Package pgstore keeps the scenario catalog in Postgres.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/cloud-architect-quest/internal/catalog"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrEmpty is returned by Load when no scenario has been imported.
var ErrEmpty = errors.New("catalog store is empty")

// Store reads and writes catalog content.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(pool, logger), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{pool: pool, logger: logger.With().Str("component", "catalog_store").Logger()}
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) provider() (*goose.Provider, func() error, error) {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, nil, err
	}
	db := stdlib.OpenDBFromPool(s.pool)
	p, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migration provider: %w", err)
	}
	return p, db.Close, nil
}

// Migrate applies every pending schema migration.
func (s *Store) Migrate(ctx context.Context) error {
	p, closeDB, err := s.provider()
	if err != nil {
		return err
	}
	defer closeDB()

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, r := range results {
		s.logger.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("migration applied")
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func (s *Store) MigrateDown(ctx context.Context) error {
	p, closeDB, err := s.provider()
	if err != nil {
		return err
	}
	defer closeDB()

	r, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	s.logger.Info().Str("migration", r.Source.Path).Msg("migration rolled back")
	return nil
}

// MigrationStatus describes one known migration.
type MigrationStatus struct {
	Version int64
	Path    string
	Applied bool
}

// Status lists every migration and whether it has been applied.
func (s *Store) Status(ctx context.Context) ([]MigrationStatus, error) {
	p, closeDB, err := s.provider()
	if err != nil {
		return nil, err
	}
	defer closeDB()

	list, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]MigrationStatus, 0, len(list))
	for _, st := range list {
		out = append(out, MigrationStatus{
			Version: st.Source.Version,
			Path:    st.Source.Path,
			Applied: st.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Import replaces the stored catalog with cat in a single transaction.
func (s *Store) Import(ctx context.Context, cat *catalog.Catalog) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM scenarios`); err != nil {
			return fmt.Errorf("clear catalog: %w", err)
		}

		batch := &pgx.Batch{}
		questions := 0
		scenarios := cat.ListScenarios()
		for si, sc := range scenarios {
			batch.Queue(
				`INSERT INTO scenarios (key, position, title, avatar, description, success_summary)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				sc.Key, si, sc.Title, sc.Avatar, sc.Description, sc.SuccessSummary,
			)
			for sti, st := range sc.Stages {
				batch.Queue(
					`INSERT INTO stages (scenario_key, position, key, name, description)
					 VALUES ($1, $2, $3, $4, $5)`,
					sc.Key, sti, st.Key, st.Name, st.Description,
				)
				for qi, q := range st.Pool {
					batch.Queue(
						`INSERT INTO questions (scenario_key, stage_position, position, prompt, options, correct, correct_feedback, wrong_feedback)
						 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
						sc.Key, sti, qi, q.Prompt, q.Options, q.Correct, q.CorrectFeedback, q.WrongFeedback,
					)
					questions++
				}
			}
		}
		batch.Queue(
			`INSERT INTO catalog_imports (scenario_count, question_count) VALUES ($1, $2)`,
			len(scenarios), questions,
		)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert catalog: %w", err)
		}
		s.logger.Info().Int("scenarios", len(scenarios)).Int("questions", questions).Msg("catalog imported")
		return nil
	})
}

// Load reads the stored catalog and validates it.
func (s *Store) Load(ctx context.Context) (*catalog.Catalog, error) {
	var def catalog.Definition
	index := map[string]int{}

	rows, err := s.pool.Query(ctx,
		`SELECT key, title, avatar, description, success_summary FROM scenarios ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	for rows.Next() {
		var sc catalog.Scenario
		if err := rows.Scan(&sc.Key, &sc.Title, &sc.Avatar, &sc.Description, &sc.SuccessSummary); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		index[sc.Key] = len(def.Scenarios)
		def.Scenarios = append(def.Scenarios, sc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	if len(def.Scenarios) == 0 {
		return nil, ErrEmpty
	}

	rows, err = s.pool.Query(ctx,
		`SELECT scenario_key, key, name, description FROM stages ORDER BY scenario_key, position`)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	for rows.Next() {
		var (
			scKey string
			st    catalog.Stage
		)
		if err := rows.Scan(&scKey, &st.Key, &st.Name, &st.Description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		sc := &def.Scenarios[index[scKey]]
		sc.Stages = append(sc.Stages, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}

	rows, err = s.pool.Query(ctx,
		`SELECT scenario_key, stage_position, prompt, options, correct, correct_feedback, wrong_feedback
		 FROM questions ORDER BY scenario_key, stage_position, position`)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	for rows.Next() {
		var (
			scKey    string
			stagePos int
			q        catalog.Question
		)
		if err := rows.Scan(&scKey, &stagePos, &q.Prompt, &q.Options, &q.Correct, &q.CorrectFeedback, &q.WrongFeedback); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan question: %w", err)
		}
		sc := &def.Scenarios[index[scKey]]
		if stagePos < 0 || stagePos >= len(sc.Stages) {
			rows.Close()
			return nil, fmt.Errorf("question references missing stage %d of %q", stagePos, scKey)
		}
		sc.Stages[stagePos].Pool = append(sc.Stages[stagePos].Pool, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}

	cat, err := catalog.New(def)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}
