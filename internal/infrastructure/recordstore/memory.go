package recordstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// MemoryStore keeps tables in process memory. Used for local development
// (seeded from a YAML fixture) and as the store fake in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]Record)}
}

// LoadFixture đọc file YAML dạng:
//
//	books:
//	  - id: b1
//	    slug: my-story
//	chapters:
//	  - id: c1
//	    book_id: b1
func LoadFixture(path string) (*MemoryStore, error) {
	tables, err := ReadFixture(path)
	if err != nil {
		return nil, err
	}

	s := NewMemoryStore()
	for table, rows := range tables {
		for _, row := range rows {
			if err := s.Insert(table, row); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// ReadFixture parse file fixture và validate mọi row theo schema.
// cmd/seed dùng lại để nạp fixture vào Postgres.
func ReadFixture(path string) (map[string][]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var raw map[string][]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	tables := make(map[string][]Record, len(raw))
	for table, rows := range raw {
		for _, row := range rows {
			if err := ValidateRecord(table, Record(row)); err != nil {
				return nil, err
			}
			tables[table] = append(tables[table], Record(row))
		}
	}
	return tables, nil
}

// Insert thêm một row. Column lạ bị reject để fixture không lệch schema.
func (s *MemoryStore) Insert(table string, rec Record) error {
	if err := ValidateRecord(table, rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], copyRecord(rec))
	return nil
}

func (s *MemoryStore) FindOne(ctx context.Context, table string, filter Filter) (Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkFilter(table, filter); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.tables[table] {
		if matches(rec, filter) {
			return copyRecord(rec), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindMany(ctx context.Context, table string, filter Filter, order OrderBy) ([]Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkFilter(table, filter); err != nil {
		return nil, err
	}
	if err := checkOrder(table, order); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]Record, 0)
	for _, rec := range s.tables[table] {
		if matches(rec, filter) {
			out = append(out, copyRecord(rec))
		}
	}
	s.mu.RUnlock()

	sortRecords(out, order)
	return out, nil
}

func (s *MemoryStore) FindManyIn(ctx context.Context, table, field string, values []any, order OrderBy) ([]Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkColumn(table, field); err != nil {
		return nil, err
	}
	if err := checkOrder(table, order); err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[fmt.Sprint(v)] = struct{}{}
	}

	s.mu.RLock()
	out := make([]Record, 0)
	for _, rec := range s.tables[table] {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		if _, hit := set[fmt.Sprint(v)]; hit {
			out = append(out, copyRecord(rec))
		}
	}
	s.mu.RUnlock()

	sortRecords(out, order)
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, table string, filter Filter) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	if err := checkFilter(table, filter); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, rec := range s.tables[table] {
		if matches(rec, filter) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Update(ctx context.Context, table, id string, fields map[string]any) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if err := checkFilter(table, Filter(fields)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.tables[table] {
		if fmt.Sprint(rec["id"]) == id {
			for k, v := range fields {
				rec[k] = v
			}
			return nil
		}
	}
	return ErrNotFound
}

// ============================================
// HELPERS
// ============================================

func matches(rec Record, filter Filter) bool {
	for k, want := range filter {
		got, ok := rec[k]
		if !ok || got == nil {
			if want != nil {
				return false
			}
			continue
		}
		if want == nil || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func copyRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func sortRecords(recs []Record, order OrderBy) {
	if order.Field == "" {
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		c := compareValues(recs[i][order.Field], recs[j][order.Field])
		if order.Desc {
			return c > 0
		}
		return c < 0
	})
}

// compareValues: nil đứng cuối, số so theo float64, time theo thời gian, còn lại theo string
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}

	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
