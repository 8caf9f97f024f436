package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/linkpage/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newTestLinkService(t *testing.T) (*LinkService, *gorm.DB, *MemoryLinkCache) {
	t.Helper()
	gdb := setupServiceTestDB(t)
	cache := NewMemoryLinkCache(time.Minute)
	return NewLinkService(NewGormLinkStore(gdb), cache), gdb, cache
}

func TestLinkServiceCreateAssignsSequentialOrder(t *testing.T) {
	svc, _, _ := newTestLinkService(t)
	ctx := context.Background()

	first, err := svc.CreateLink(ctx, LinkInput{Text: "Shop", Href: "https://x.com", Icon: "🛒"})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if first.Order != 0 {
		t.Fatalf("expected first link order 0, got %d", first.Order)
	}
	if first.ID == 0 {
		t.Fatal("expected store to assign an id")
	}

	second, err := svc.CreateLink(ctx, LinkInput{Text: "Blog", Href: "https://blog.example.com"})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if second.Order != 1 {
		t.Fatalf("expected second link order 1, got %d", second.Order)
	}
}

func TestLinkServiceCreateUsesMaximumOrder(t *testing.T) {
	svc, gdb, _ := newTestLinkService(t)
	ctx := context.Background()

	seed := []db.Link{
		{Text: "A", Href: "https://a.example", Order: 0},
		{Text: "B", Href: "https://b.example", Order: 2},
	}
	if err := gdb.Create(&seed).Error; err != nil {
		t.Fatalf("failed to seed links: %v", err)
	}

	created, err := svc.CreateLink(ctx, LinkInput{Text: "Shop", Href: "https://x.com", Icon: "🛒"})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if created.Order != 3 {
		t.Fatalf("expected order 3, got %d", created.Order)
	}

	links, err := svc.ListLinks(ctx)
	if err != nil {
		t.Fatalf("list links failed: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	last := links[len(links)-1]
	if last.ID != created.ID || last.Text != "Shop" || last.Icon != "🛒" {
		t.Fatalf("expected new link to be listed last, got %#v", last)
	}
}

func TestLinkServiceListIsSortedByOrder(t *testing.T) {
	svc, gdb, _ := newTestLinkService(t)

	seed := []db.Link{
		{Text: "C", Href: "https://c.example", Order: 5},
		{Text: "A", Href: "https://a.example", Order: 1},
		{Text: "B", Href: "https://b.example", Order: 1},
		{Text: "D", Href: "https://d.example", Order: -2},
	}
	if err := gdb.Create(&seed).Error; err != nil {
		t.Fatalf("failed to seed links: %v", err)
	}

	links, err := svc.ListLinks(context.Background())
	if err != nil {
		t.Fatalf("list links failed: %v", err)
	}
	for i := 1; i < len(links); i++ {
		if links[i-1].Order > links[i].Order {
			t.Fatalf("links not sorted by order: %d before %d", links[i-1].Order, links[i].Order)
		}
	}
	if links[1].Text != "A" || links[2].Text != "B" {
		t.Fatalf("expected ties to keep id order, got %q then %q", links[1].Text, links[2].Text)
	}
}

func TestLinkServiceUpdatePreservesIDAndOrder(t *testing.T) {
	svc, gdb, _ := newTestLinkService(t)
	ctx := context.Background()

	seed := db.Link{Text: "Old", Href: "https://old.example", Icon: "📍", Order: 7}
	if err := gdb.Create(&seed).Error; err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}

	updated, err := svc.UpdateLink(ctx, seed.ID, LinkInput{Text: "New", Href: "https://new.example"})
	if err != nil {
		t.Fatalf("update link failed: %v", err)
	}
	if updated.ID != seed.ID || updated.Order != 7 {
		t.Fatalf("expected id %d and order 7, got id %d order %d", seed.ID, updated.ID, updated.Order)
	}
	if updated.Text != "New" || updated.Href != "https://new.example" || updated.Icon != "" {
		t.Fatalf("update did not replace fields: %#v", updated)
	}

	stored, err := svc.GetLink(ctx, seed.ID)
	if err != nil {
		t.Fatalf("get link failed: %v", err)
	}
	if stored.Text != "New" || stored.Order != 7 {
		t.Fatalf("update did not persist: %#v", stored)
	}
}

func TestLinkServiceUpdateKeepsConcurrentReorder(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewLinkService(NewGormLinkStore(gdb), nil)
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, LinkInput{Text: "Shop", Href: "https://shop.example"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 在更新语句执行前插入一次排序调整
	reordered := false
	err = gdb.Callback().Update().Before("gorm:begin_transaction").Register("test:reorder_first", func(tx *gorm.DB) {
		if reordered {
			return
		}
		reordered = true
		if err := gdb.Exec(`UPDATE links SET "order" = ? WHERE id = ?`, 7, link.ID).Error; err != nil {
			t.Errorf("concurrent reorder failed: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback failed: %v", err)
	}

	updated, err := svc.UpdateLink(ctx, link.ID, LinkInput{Text: "Shop Now", Href: "https://shop.example"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !reordered {
		t.Fatal("expected the reorder to run during the update")
	}
	if updated.Text != "Shop Now" || updated.Order != 7 {
		t.Fatalf("expected text change with reordered position kept, got %#v", updated)
	}

	var stored db.Link
	if err := gdb.First(&stored, link.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stored.Order != 7 {
		t.Fatalf("update overwrote order, got %d", stored.Order)
	}
}

func TestLinkServiceUpdateMissingLink(t *testing.T) {
	svc, _, _ := newTestLinkService(t)

	_, err := svc.UpdateLink(context.Background(), 999, LinkInput{Text: "X", Href: "https://x.com"})
	if !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestLinkServiceDeleteTwice(t *testing.T) {
	svc, _, cache := newTestLinkService(t)
	ctx := context.Background()

	keep, _ := svc.CreateLink(ctx, LinkInput{Text: "Keep", Href: "https://keep.example"})
	drop, _ := svc.CreateLink(ctx, LinkInput{Text: "Drop", Href: "https://drop.example"})

	if _, err := svc.ListLinks(ctx); err != nil {
		t.Fatalf("list links failed: %v", err)
	}

	if err := svc.DeleteLink(ctx, drop.ID); err != nil {
		t.Fatalf("delete link failed: %v", err)
	}
	cached, ok := cache.Get(ctx)
	if !ok || len(cached) != 1 || cached[0].ID != keep.ID {
		t.Fatalf("expected cache to hold only the kept link, got %#v", cached)
	}

	err := svc.DeleteLink(ctx, drop.ID)
	if !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound on second delete, got %v", err)
	}
	cached, ok = cache.Get(ctx)
	if !ok || len(cached) != 1 {
		t.Fatalf("expected cache to be unchanged after failed delete, got %#v", cached)
	}
}

func TestLinkServicePatchesCacheAfterWrites(t *testing.T) {
	svc, _, cache := newTestLinkService(t)
	ctx := context.Background()

	first, _ := svc.CreateLink(ctx, LinkInput{Text: "First", Href: "https://first.example"})
	if _, err := svc.CachedLinks(ctx); err != nil {
		t.Fatalf("cached links failed: %v", err)
	}

	second, err := svc.CreateLink(ctx, LinkInput{Text: "Second", Href: "https://second.example"})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if _, err := svc.UpdateLink(ctx, first.ID, LinkInput{Text: "First!", Href: "https://first.example"}); err != nil {
		t.Fatalf("update link failed: %v", err)
	}

	cached, ok := cache.Get(ctx)
	if !ok {
		t.Fatal("expected cache to stay primed")
	}
	if len(cached) != 2 || cached[0].Text != "First!" || cached[1].ID != second.ID {
		t.Fatalf("unexpected cache contents: %#v", cached)
	}
}

func TestLinkServiceReorder(t *testing.T) {
	svc, _, cache := newTestLinkService(t)
	ctx := context.Background()

	l1, _ := svc.CreateLink(ctx, LinkInput{Text: "A", Href: "https://a.example"})
	l2, _ := svc.CreateLink(ctx, LinkInput{Text: "B", Href: "https://b.example"})
	l3, _ := svc.CreateLink(ctx, LinkInput{Text: "C", Href: "https://c.example"})
	svc.ListLinks(ctx)

	if err := svc.ReorderLinks(ctx, []uint{l3.ID, l1.ID, l2.ID}); err != nil {
		t.Fatalf("reorder links failed: %v", err)
	}
	if _, ok := cache.Get(ctx); ok {
		t.Fatal("expected reorder to invalidate the cache")
	}

	items, err := svc.ListLinks(ctx)
	if err != nil {
		t.Fatalf("list links failed: %v", err)
	}
	if items[0].ID != l3.ID || items[0].Order != 0 {
		t.Fatalf("expected link C to be first with order 0")
	}
	if items[1].ID != l1.ID || items[1].Order != 1 {
		t.Fatalf("expected link A to be second with order 1")
	}
	if items[2].ID != l2.ID || items[2].Order != 2 {
		t.Fatalf("expected link B to be third with order 2")
	}

	if err := svc.ReorderLinks(ctx, []uint{l1.ID, l1.ID}); !errors.Is(err, ErrLinkInvalidInput) {
		t.Fatalf("expected duplicate ids to be rejected, got %v", err)
	}
}

func TestLinkServiceValidation(t *testing.T) {
	svc, _, _ := newTestLinkService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input LinkInput
	}{
		{name: "empty", input: LinkInput{}},
		{name: "missing href", input: LinkInput{Text: "Shop"}},
		{name: "markup only text", input: LinkInput{Text: "<b></b>", Href: "https://x.com"}},
		{name: "relative href", input: LinkInput{Text: "Shop", Href: "/shop"}},
		{name: "javascript href", input: LinkInput{Text: "Shop", Href: "javascript:alert(1)"}},
		{name: "hostless href", input: LinkInput{Text: "Shop", Href: "https://"}},
		{name: "long icon", input: LinkInput{Text: "Shop", Href: "https://x.com", Icon: "abcdefghijklmnopq"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateLink(ctx, tc.input); !errors.Is(err, ErrLinkInvalidInput) {
				t.Fatalf("expected ErrLinkInvalidInput, got %v", err)
			}
		})
	}
}

func TestLinkServiceStripsMarkup(t *testing.T) {
	svc, _, _ := newTestLinkService(t)

	link, err := svc.CreateLink(context.Background(), LinkInput{
		Text: "  <b>Products</b> & Pricelist ",
		Href: "#",
		Icon: "<i>📋</i>",
	})
	if err != nil {
		t.Fatalf("create link failed: %v", err)
	}
	if link.Text != "Products & Pricelist" {
		t.Fatalf("unexpected text %q", link.Text)
	}
	if link.Icon != "📋" {
		t.Fatalf("unexpected icon %q", link.Icon)
	}
}

type failingStore struct {
	LinkStore
	err error
}

func (s failingStore) List(context.Context) ([]db.Link, error) {
	return nil, wrapStoreError("list", s.err)
}

func (s failingStore) MaxOrder(context.Context) (int, error) {
	return 0, wrapStoreError("max order", s.err)
}

func TestLinkServiceSurfacesStoreErrors(t *testing.T) {
	svc := NewLinkService(failingStore{err: errors.New("connection refused")}, nil)
	ctx := context.Background()

	_, err := svc.ListLinks(ctx)
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError from list, got %v", err)
	}
	if storeErr.Op != "list" {
		t.Fatalf("expected op list, got %q", storeErr.Op)
	}

	_, err = svc.CreateLink(ctx, LinkInput{Text: "Shop", Href: "https://x.com"})
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError from create, got %v", err)
	}
}
