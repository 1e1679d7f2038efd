package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_judging.sql
var createJudgingSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createJudgingSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS session_results;
				DROP TABLE IF EXISTS answers;
				DROP TABLE IF EXISTS judges;
				DROP TABLE IF EXISTS sessions;
				DROP TABLE IF EXISTS question_banks;
				DROP TABLE IF EXISTS teams;
			`)
			return err
		},
	)
}
