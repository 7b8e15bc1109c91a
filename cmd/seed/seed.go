package main

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"storybook-backend/internal/infrastructure/recordstore"
	"storybook-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaSQL string

// seedFixture tạo schema và nạp fixture trong một transaction.
// Row đã tồn tại (trùng id) được bỏ qua. Trả về số row đã insert.
func seedFixture(ctx context.Context, pool *pgxpool.Pool, tables map[string][]recordstore.Record, reset bool) (int64, error) {
	return database.WithTransactionResult(ctx, pool, func(tx pgx.Tx) (int64, error) {
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return 0, fmt.Errorf("apply schema: %w", err)
		}

		if reset {
			if _, err := tx.Exec(ctx, truncateStatement()); err != nil {
				return 0, fmt.Errorf("reset tables: %w", err)
			}
			log.Warn().Msg("[Seed] existing records removed")
		}

		var inserted int64
		for _, table := range recordstore.InsertOrder {
			for _, rec := range tables[table] {
				query, args := buildInsert(table, rec)
				tag, err := tx.Exec(ctx, query, args...)
				if err != nil {
					return 0, fmt.Errorf("insert %s %v: %w", table, rec["id"], err)
				}
				inserted += tag.RowsAffected()
			}
			log.Info().Str("table", table).Int("rows", len(tables[table])).Msg("[Seed] table loaded")
		}
		return inserted, nil
	})
}

// buildInsert sinh INSERT ... ON CONFLICT (id) DO NOTHING.
// Column sort theo tên để câu SQL deterministic; rec đã được ValidateRecord.
func buildInsert(table string, rec recordstore.Record) (string, []any) {
	columns := make([]string, 0, len(rec))
	for col := range rec {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	idents := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		idents[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(idents, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args
}

func truncateStatement() string {
	idents := make([]string, len(recordstore.InsertOrder))
	for i, table := range recordstore.InsertOrder {
		idents[i] = pgx.Identifier{table}.Sanitize()
	}
	return "TRUNCATE " + strings.Join(idents, ", ") + " CASCADE"
}
