package recordstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ============================================
// READ OPERATIONS
// ============================================

func (s *PostgresStore) FindOne(ctx context.Context, table string, filter Filter) (Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkFilter(table, filter); err != nil {
		return nil, err
	}

	where, args := buildWhere(filter, 1)
	query := fmt.Sprintf("SELECT %s FROM %s%s LIMIT 1",
		selectList(table), pgx.Identifier{table}.Sanitize(), where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	rec, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	return Record(rec), nil
}

func (s *PostgresStore) FindMany(ctx context.Context, table string, filter Filter, order OrderBy) ([]Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkFilter(table, filter); err != nil {
		return nil, err
	}
	if err := checkOrder(table, order); err != nil {
		return nil, err
	}

	where, args := buildWhere(filter, 1)
	query := fmt.Sprintf("SELECT %s FROM %s%s%s",
		selectList(table), pgx.Identifier{table}.Sanitize(), where, buildOrder(order))

	return s.collect(ctx, table, query, args)
}

// FindManyIn dùng = ANY($1) thay vì build IN (...) động
func (s *PostgresStore) FindManyIn(ctx context.Context, table, field string, values []any, order OrderBy) ([]Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkColumn(table, field); err != nil {
		return nil, err
	}
	if err := checkOrder(table, order); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []Record{}, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s::text = ANY($1::text[])%s",
		selectList(table),
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{field}.Sanitize(),
		buildOrder(order),
	)

	return s.collect(ctx, table, query, []any{toStrings(values)})
}

func (s *PostgresStore) Count(ctx context.Context, table string, filter Filter) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	if err := checkFilter(table, filter); err != nil {
		return 0, err
	}

	where, args := buildWhere(filter, 1)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", pgx.Identifier{table}.Sanitize(), where)

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// ============================================
// WRITE OPERATIONS
// ============================================

func (s *PostgresStore) Update(ctx context.Context, table, id string, fields map[string]any) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	if err := checkFilter(table, Filter(fields)); err != nil {
		return err
	}

	keys := sortedKeys(Filter(fields))
	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{k}.Sanitize(), i+1))
		args = append(args, fields[k])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		pgx.Identifier{table}.Sanitize(), strings.Join(sets, ", "), len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================
// HELPERS
// ============================================

func (s *PostgresStore) collect(ctx context.Context, table, query string, args []any) ([]Record, error) {
	log.Debug().Str("table", table).Str("query", query).Msg("[RecordStore] query")

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}

	records := make([]Record, len(maps))
	for i, m := range maps {
		records[i] = Record(m)
	}
	return records, nil
}

func selectList(table string) string {
	cols := schema[table]
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(parts, ", ")
}

func buildWhere(filter Filter, start int) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}

	keys := sortedKeys(filter)
	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		conds = append(conds, fmt.Sprintf("%s = $%d", pgx.Identifier{k}.Sanitize(), start+i))
		args = append(args, filter[k])
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildOrder(order OrderBy) string {
	if order.Field == "" {
		return ""
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	// id làm tie-breaker để thứ tự ổn định khi sort key trùng
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", pgx.Identifier{order.Field}.Sanitize(), dir)
}

func toStrings(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}
