package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/NasaVasa/cratedigger/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Exec("TRUNCATE catalog_entries, listings, saved_queries, alert_records RESTART IDENTITY").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func floatPtr(v float64) *float64 { return &v }

func seedCatalog(t *testing.T, repo *CatalogRepository) {
	t.Helper()
	entries := []domain.CatalogEntry{
		{ReleaseID: 1, Artist: "Miles Davis", Title: "Kind of Blue", CatalogNo: "CL 1355", Barcode: "074646493520", Format: "Vinyl"},
		{ReleaseID: 2, Artist: "John Coltrane", Title: "A Love Supreme", CatalogNo: "A-77", Format: "Vinyl"},
		{ReleaseID: 3, Artist: "Lee Morgan", Title: "The Sidewinder", CatalogNo: "BLP-4157", Format: "Vinyl"},
	}
	for i := range entries {
		if err := repo.Upsert(context.Background(), &entries[i]); err != nil {
			t.Fatalf("upsert %d: %v", entries[i].ReleaseID, err)
		}
	}
}

func TestCatalogLookups(t *testing.T) {
	db := openTestDB(t)
	repo := NewCatalogRepository(db)
	seedCatalog(t, repo)
	ctx := context.Background()

	entry, err := repo.FindByCatalogNo(ctx, "CL 1355")
	if err != nil || entry.ReleaseID != 1 {
		t.Fatalf("FindByCatalogNo = %v, %v", entry, err)
	}
	entry, err = repo.FindByNormalizedCatalogNo(ctx, "BLP4157")
	if err != nil || entry.ReleaseID != 3 {
		t.Fatalf("FindByNormalizedCatalogNo = %v, %v", entry, err)
	}
	entry, err = repo.FindByBarcode(ctx, "074646493520")
	if err != nil || entry.ReleaseID != 1 {
		t.Fatalf("FindByBarcode = %v, %v", entry, err)
	}
	if _, err := repo.FindByBarcode(ctx, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("empty barcode err = %v, want ErrNotFound", err)
	}
	if _, err := repo.Get(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing release err = %v, want ErrNotFound", err)
	}
}

func TestCatalogSearchText(t *testing.T) {
	db := openTestDB(t)
	repo := NewCatalogRepository(db)
	seedCatalog(t, repo)
	ctx := context.Background()

	results, err := repo.SearchText(ctx, "Coltrane Love Supreme", 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ReleaseID != 2 {
		t.Fatalf("results = %+v, want release 2", results)
	}

	results, err = repo.SearchText(ctx, "totally unrelated electronics product", 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no candidates, got %+v", results)
	}

	results, err = repo.SearchText(ctx, "  ", 50)
	if err != nil || results != nil {
		t.Fatalf("blank query = %v, %v", results, err)
	}
}

func TestCatalogUpsertKeepsPrices(t *testing.T) {
	db := openTestDB(t)
	repo := NewCatalogRepository(db)
	seedCatalog(t, repo)
	ctx := context.Background()

	refreshed := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdatePrices(ctx, 1, domain.PriceStats{Median: 30, Low: 15}, refreshed); err != nil {
		t.Fatalf("update prices: %v", err)
	}
	if err := repo.Upsert(ctx, &domain.CatalogEntry{ReleaseID: 1, Artist: "Miles Davis", Title: "Kind Of Blue (Reissue)"}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	entry, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Title != "Kind Of Blue (Reissue)" {
		t.Fatalf("title = %q, want updated", entry.Title)
	}
	if !entry.Priced() || *entry.MedianPrice != 30 || *entry.LowPrice != 15 {
		t.Fatalf("prices lost: %+v", entry)
	}
	if err := repo.UpdatePrices(ctx, 404, domain.PriceStats{Median: 1, Low: 1}, refreshed); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update missing err = %v, want ErrNotFound", err)
	}
}

func TestCatalogListStale(t *testing.T) {
	db := openTestDB(t)
	repo := NewCatalogRepository(db)
	seedCatalog(t, repo)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.UpdatePrices(ctx, 1, domain.PriceStats{Median: 30, Low: 15}, now); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.UpdatePrices(ctx, 2, domain.PriceStats{Median: 20, Low: 10}, now.Add(-10*24*time.Hour)); err != nil {
		t.Fatalf("update: %v", err)
	}

	stale, err := repo.ListStale(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(stale) != 2 || stale[0].ReleaseID != 3 || stale[1].ReleaseID != 2 {
		t.Fatalf("stale = %+v, want [3 2]", stale)
	}
}

func TestListingUpsertPreservesFirstSeenAndNotified(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	firstSeen := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	listing := domain.Listing{ItemID: "v1|1|0", Title: "Kind of Blue", Price: 20, FirstSeen: firstSeen, DealScore: floatPtr(0.5)}
	if err := repo.Upsert(ctx, &listing); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	notifiedAt := time.Now().UTC().Truncate(time.Second)
	if err := repo.MarkNotified(ctx, listing.ItemID, notifiedAt); err != nil {
		t.Fatalf("mark: %v", err)
	}

	updated := domain.Listing{ItemID: "v1|1|0", Title: "Kind of Blue LP", Price: 18, FirstSeen: time.Now().UTC(), DealScore: floatPtr(0.55)}
	if err := repo.Upsert(ctx, &updated); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, err := repo.Get(ctx, "v1|1|0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 18 || got.Title != "Kind of Blue LP" {
		t.Fatalf("listing not updated: %+v", got)
	}
	if !got.FirstSeen.Equal(firstSeen) {
		t.Fatalf("first seen = %v, want %v", got.FirstSeen, firstSeen)
	}
	if got.NotifiedAt == nil || !got.NotifiedAt.Equal(notifiedAt) {
		t.Fatalf("notified at = %v, want %v", got.NotifiedAt, notifiedAt)
	}
}

func TestListingUnnotifiedAndCleanup(t *testing.T) {
	db := openTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	listings := []domain.Listing{
		{ItemID: "a", Title: "a", Price: 10, FirstSeen: now, DealScore: floatPtr(0.3)},
		{ItemID: "b", Title: "b", Price: 10, FirstSeen: now, DealScore: floatPtr(0.6)},
		{ItemID: "c", Title: "c", Price: 10, FirstSeen: now, DealScore: floatPtr(0.1)},
		{ItemID: "d", Title: "d", Price: 10, FirstSeen: now.Add(-40 * 24 * time.Hour)},
	}
	for i := range listings {
		if err := repo.Upsert(ctx, &listings[i]); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	pending, err := repo.ListUnnotified(ctx, 0.25, 10)
	if err != nil {
		t.Fatalf("unnotified: %v", err)
	}
	if len(pending) != 2 || pending[0].ItemID != "b" || pending[1].ItemID != "a" {
		t.Fatalf("pending = %+v, want [b a]", pending)
	}

	deleted, err := repo.DeleteSeenBefore(ctx, now.Add(-30*24*time.Hour))
	if err != nil || deleted != 1 {
		t.Fatalf("deleted = %d, %v; want 1", deleted, err)
	}
	if _, err := repo.Get(ctx, "d"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("old listing still present: %v", err)
	}
}

func TestSavedQueries(t *testing.T) {
	db := openTestDB(t)
	repo := NewSavedQueryRepository(db)
	ctx := context.Background()

	first := domain.SavedQuery{RecipientID: 7, Query: "blue note", MinDealScore: 0.25, PollMinutes: 30, Active: true}
	second := domain.SavedQuery{RecipientID: 7, Query: "prestige", MinDealScore: 0.25, PollMinutes: 30, Active: true}
	other := domain.SavedQuery{RecipientID: 8, Query: "impulse", MinDealScore: 0.25, PollMinutes: 30, Active: true}
	for _, q := range []*domain.SavedQuery{&first, &second, &other} {
		if err := repo.Create(ctx, q); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if first.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	if err := repo.SetActive(ctx, 8, first.ID, false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign deactivate err = %v, want ErrNotFound", err)
	}
	if err := repo.SetActive(ctx, 7, second.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := repo.ListActive(ctx)
	if err != nil || len(active) != 2 {
		t.Fatalf("active = %+v, %v", active, err)
	}

	changed, err := repo.SetThreshold(ctx, 7, 0.4)
	if err != nil || changed != 2 {
		t.Fatalf("set threshold changed = %d, %v; want 2", changed, err)
	}
	mine, err := repo.ListByRecipient(ctx, 7)
	if err != nil || len(mine) != 2 {
		t.Fatalf("by recipient = %+v, %v", mine, err)
	}
	if mine[0].MinDealScore != 0.4 || mine[1].MinDealScore != 0.4 || mine[1].Active {
		t.Fatalf("unexpected queries after threshold change: %+v", mine)
	}
}

func TestAlertRecords(t *testing.T) {
	db := openTestDB(t)
	repo := NewAlertRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	record := domain.AlertRecord{RecipientID: 7, ItemID: "a", SentAt: now, DealScore: 0.5}
	if err := repo.Create(ctx, &record); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &record); err != nil {
		t.Fatalf("duplicate create should be ignored: %v", err)
	}

	exists, err := repo.Exists(ctx, 7, "a")
	if err != nil || !exists {
		t.Fatalf("exists = %v, %v", exists, err)
	}
	exists, err = repo.Exists(ctx, 8, "a")
	if err != nil || exists {
		t.Fatalf("other recipient exists = %v, %v", exists, err)
	}

	old := domain.AlertRecord{RecipientID: 7, ItemID: "b", SentAt: now.Add(-100 * 24 * time.Hour)}
	if err := repo.Create(ctx, &old); err != nil {
		t.Fatalf("create old: %v", err)
	}
	deleted, err := repo.DeleteSentBefore(ctx, now.Add(-90*24*time.Hour))
	if err != nil || deleted != 1 {
		t.Fatalf("deleted = %d, %v; want 1", deleted, err)
	}
}
