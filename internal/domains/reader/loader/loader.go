package loader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/infrastructure/recordstore"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	tablePages   = "pages"
	tableGallery = "gallery"

	// giới hạn cho một fetch dùng chung, độc lập với ctx của từng caller
	sharedFetchTimeout = 30 * time.Second
)

// Loader fetch nội dung của chapter (pages, gallery) từ record store.
//
// Mọi method đều read-only và idempotent. Các call cùng key đang in-flight
// được gộp làm một (singleflight); kết quả thành công được cache theo TTL.
// Call cho các chapter khác nhau chạy song song.
type Loader struct {
	store recordstore.Store
	group singleflight.Group
	cache *gocache.Cache // nil khi ttl <= 0
}

// NewLoader. ttl <= 0 tắt result cache, chỉ còn coalescing.
func NewLoader(store recordstore.Store, ttl time.Duration) *Loader {
	l := &Loader{store: store}
	if ttl > 0 {
		l.cache = gocache.New(ttl, 2*ttl)
	}
	return l
}

// LoadChapterContent trả pages của chapter theo page_order tăng dần.
func (l *Loader) LoadChapterContent(ctx context.Context, chapterID string) ([]model.Page, error) {
	v, err := l.do(ctx, "pages:"+chapterID, func(ctx context.Context) (any, error) {
		recs, err := l.store.FindMany(ctx, tablePages, recordstore.Filter{"chapter_id": chapterID}, recordstore.Asc("page_order"))
		if err != nil {
			return nil, fetchErr("pages", err)
		}
		return decodeAll[model.Page](recs)
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]model.Page)), nil
}

// LoadChapterGallery trả gallery items của một chapter theo sort_order.
func (l *Loader) LoadChapterGallery(ctx context.Context, chapterID string) ([]model.GalleryItem, error) {
	v, err := l.do(ctx, "gallery:"+chapterID, func(ctx context.Context) (any, error) {
		recs, err := l.store.FindMany(ctx, tableGallery, recordstore.Filter{"chapter_id": chapterID}, recordstore.Asc("sort_order"))
		if err != nil {
			return nil, fetchErr("gallery", err)
		}
		return decodeAll[model.GalleryItem](recs)
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]model.GalleryItem)), nil
}

// LoadBookGallery lấy gallery của nhiều chapter bằng một query duy nhất,
// rồi group theo thứ tự chapterIDs truyền vào; trong mỗi chapter giữ sort_order.
func (l *Loader) LoadBookGallery(ctx context.Context, chapterIDs []string) ([]model.GalleryItem, error) {
	if len(chapterIDs) == 0 {
		return []model.GalleryItem{}, nil
	}

	key := "book-gallery:" + strings.Join(chapterIDs, ",")
	v, err := l.do(ctx, key, func(ctx context.Context) (any, error) {
		values := make([]any, len(chapterIDs))
		for i, id := range chapterIDs {
			values[i] = id
		}

		recs, err := l.store.FindManyIn(ctx, tableGallery, "chapter_id", values, recordstore.Asc("sort_order"))
		if err != nil {
			return nil, fetchErr("book gallery", err)
		}
		items, err := decodeAll[model.GalleryItem](recs)
		if err != nil {
			return nil, err
		}
		return groupByChapter(items, chapterIDs), nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]model.GalleryItem)), nil
}

// HasGallery chỉ count, không fetch rows.
func (l *Loader) HasGallery(ctx context.Context, chapterID string) (bool, error) {
	v, err := l.do(ctx, "has-gallery:"+chapterID, func(ctx context.Context) (any, error) {
		n, err := l.store.Count(ctx, tableGallery, recordstore.Filter{"chapter_id": chapterID})
		if err != nil {
			return nil, fetchErr("gallery count", err)
		}
		return n > 0, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Invalidate xóa toàn bộ result cache (vd. sau khi nội dung sách thay đổi).
func (l *Loader) Invalidate() {
	if l.cache != nil {
		l.cache.Flush()
	}
}

// ============================================
// HELPERS
// ============================================

func (l *Loader) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if l.cache != nil {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
	}

	// fetch dùng chung không gắn với ctx của caller đầu tiên: caller nào
	// cancel thì chỉ caller đó thôi chờ, các caller còn lại vẫn nhận kết quả
	ch := l.group.DoChan(key, func() (any, error) {
		// check lại: một flight khác có thể vừa xong giữa lúc miss và lúc vào Do
		if l.cache != nil {
			if v, ok := l.cache.Get(key); ok {
				return v, nil
			}
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		res, err := fn(fetchCtx)
		if err != nil {
			return nil, err
		}
		if l.cache != nil {
			l.cache.SetDefault(key, res)
		}
		return res, nil
	})

	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func fetchErr(what string, err error) error {
	return fmt.Errorf("%w: load %s: %w", model.ErrFetchFailure, what, err)
}

func decodeAll[T any](recs []recordstore.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var item T
		if err := recordstore.Decode(rec, &item); err != nil {
			return nil, fmt.Errorf("%w: decode: %w", model.ErrFetchFailure, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func groupByChapter(items []model.GalleryItem, chapterIDs []string) []model.GalleryItem {
	buckets := make(map[string][]model.GalleryItem, len(chapterIDs))
	for _, it := range items {
		buckets[it.ChapterID] = append(buckets[it.ChapterID], it)
	}

	out := make([]model.GalleryItem, 0, len(items))
	seen := make(map[string]bool, len(chapterIDs))
	for _, id := range chapterIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, buckets[id]...)
	}
	return out
}

// clone: caller được sửa slice trả về mà không đụng vào bản trong cache
func clone[T any](in []T) []T {
	return append(make([]T, 0, len(in)), in...)
}
