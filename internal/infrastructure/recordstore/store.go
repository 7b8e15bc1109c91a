package recordstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
)

// Record là một row dạng column -> value, chưa map sang domain model
type Record map[string]any

// Filter là tập điều kiện equality, các key AND với nhau
type Filter map[string]any

// OrderBy chỉ định sort key. Field rỗng nghĩa là không sort.
type OrderBy struct {
	Field string
	Desc  bool
}

func Asc(field string) OrderBy  { return OrderBy{Field: field} }
func Desc(field string) OrderBy { return OrderBy{Field: field, Desc: true} }

// Store is the narrow query contract the reader and export code depend on.
// Implementations: PostgresStore (pgx) and MemoryStore (fixtures, tests).
type Store interface {
	FindOne(ctx context.Context, table string, filter Filter) (Record, error)
	FindMany(ctx context.Context, table string, filter Filter, order OrderBy) ([]Record, error)
	FindManyIn(ctx context.Context, table, field string, values []any, order OrderBy) ([]Record, error)
	Count(ctx context.Context, table string, filter Filter) (int64, error)
	Update(ctx context.Context, table, id string, fields map[string]any) error
}

// ========================================
// SCHEMA
// ========================================

// schema whitelist các table/column được phép query.
// Identifiers không bao giờ lấy trực tiếp từ input.
var schema = map[string][]string{
	"books": {
		"id", "slug", "title", "author", "cover_image", "dedication", "intro",
		"published_at", "created_at", "view_count",
	},
	"chapters": {
		"id", "book_id", "chapter_number", "title", "lede", "image",
	},
	"pages": {
		"id", "chapter_id", "page_order", "title", "content", "quote",
		"quote_attribute", "image", "image_caption",
	},
	"gallery": {
		"id", "chapter_id", "book_id", "image_url", "title", "caption", "sort_order",
	},
	"guestbook": {
		"id", "book_id", "message", "guest", "created_at", "is_private",
	},
}

// InsertOrder là thứ tự nạp table thỏa foreign key (books trước chapters...)
var InsertOrder = []string{"books", "chapters", "pages", "gallery", "guestbook"}

// ValidateRecord kiểm tra table và mọi column của rec nằm trong schema
func ValidateRecord(table string, rec Record) error {
	if err := checkTable(table); err != nil {
		return err
	}
	return checkFilter(table, Filter(rec))
}

func checkTable(table string) error {
	if _, ok := schema[table]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return nil
}

func checkColumn(table, column string) error {
	for _, c := range schema[table] {
		if c == column {
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, column)
}

func checkFilter(table string, filter Filter) error {
	for field := range filter {
		if err := checkColumn(table, field); err != nil {
			return err
		}
	}
	return nil
}

func checkOrder(table string, order OrderBy) error {
	if order.Field == "" {
		return nil
	}
	return checkColumn(table, order.Field)
}

// sortedKeys giữ thứ tự điều kiện ổn định để SQL sinh ra deterministic
func sortedKeys(filter Filter) []string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ========================================
// DECODING
// ========================================

// Decode map một Record (hoặc []Record) sang struct qua mapstructure tags.
func Decode(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			uuidToStringHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// pgx trả uuid column về dạng [16]byte khi scan vào any
func uuidToStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case [16]byte:
		return uuid.UUID(v).String(), nil
	case uuid.UUID:
		return v.String(), nil
	}
	return data, nil
}
